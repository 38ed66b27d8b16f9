package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidCLumin/estate-agent-crm/internal/domain"
)

func newTestScheduler(s *fakeStore, leader domain.LeaderElection) *CronDeadlineScheduler {
	return NewCronDeadlineScheduler(
		&fakeSchedulerRepo{s: s},
		&fakeAuditRepo{s: s},
		&fakePublisher{s: s},
		leader,
		"instance-1",
		time.Minute,
		nopLogger{},
	)
}

func TestScheduleDeadlineReplacesPendingJob(t *testing.T) {
	store := newFakeStore()
	sched := newTestScheduler(store, &fakeLeader{leader: true})
	ctx := context.Background()

	prop := liveProperty(domain.BiddingOpen, nil)
	require.NoError(t, sched.ScheduleDeadline(ctx, prop))
	require.Len(t, store.jobs, 1)

	later := baseTime.Add(72 * time.Hour)
	prop.BiddingDeadline = &later
	require.NoError(t, sched.ScheduleDeadline(ctx, prop))

	require.Len(t, store.jobs, 2)
	assert.Equal(t, domain.JobCancelled, store.jobs[0].Status)
	assert.Equal(t, domain.JobPending, store.jobs[1].Status)
	assert.True(t, store.jobs[1].RunAt.Equal(later))
}

func TestScheduleDeadlineNilDeadlineCancels(t *testing.T) {
	store := newFakeStore()
	sched := newTestScheduler(store, &fakeLeader{leader: true})
	ctx := context.Background()

	prop := liveProperty(domain.BiddingOpen, nil)
	require.NoError(t, sched.ScheduleDeadline(ctx, prop))

	prop.BiddingDeadline = nil
	require.NoError(t, sched.ScheduleDeadline(ctx, prop))

	require.Len(t, store.jobs, 1)
	assert.Equal(t, domain.JobCancelled, store.jobs[0].Status)
}

func TestSweepEmitsAuditAndEventForDueJobs(t *testing.T) {
	store := newFakeStore()
	sched := newTestScheduler(store, &fakeLeader{leader: true})
	ctx := context.Background()

	store.jobs = []*domain.ScheduledJob{
		{
			ID:         "job-due",
			TenantID:   "tenant-1",
			PropertyID: "prop-1",
			JobType:    domain.JobDeadlinePassed,
			RunAt:      time.Now().Add(-time.Minute),
			Status:     domain.JobPending,
		},
		{
			ID:         "job-future",
			TenantID:   "tenant-1",
			PropertyID: "prop-2",
			JobType:    domain.JobDeadlinePassed,
			RunAt:      time.Now().Add(time.Hour),
			Status:     domain.JobPending,
		},
	}

	sched.sweep(ctx)

	assert.Equal(t, domain.JobExecuted, store.jobs[0].Status)
	assert.Equal(t, domain.JobPending, store.jobs[1].Status)

	require.Len(t, store.audit, 1)
	assert.Equal(t, domain.AuditDeadlinePassed, store.audit[0].Action)
	assert.Equal(t, "prop-1", store.audit[0].EntityID)

	require.Len(t, store.events, 1)
	assert.Equal(t, domain.EventDeadlinePassed, store.events[0].Type)
	assert.Equal(t, "prop-1", store.events[0].PropertyID)

	// A second sweep finds nothing due.
	sched.sweep(ctx)
	assert.Len(t, store.audit, 1)
	assert.Len(t, store.events, 1)
}

func TestSweepSkipsWhenNotLeader(t *testing.T) {
	store := newFakeStore()
	sched := newTestScheduler(store, &fakeLeader{leader: false})

	store.jobs = []*domain.ScheduledJob{{
		ID:         "job-due",
		TenantID:   "tenant-1",
		PropertyID: "prop-1",
		JobType:    domain.JobDeadlinePassed,
		RunAt:      time.Now().Add(-time.Minute),
		Status:     domain.JobPending,
	}}

	sched.sweep(context.Background())

	assert.Equal(t, domain.JobPending, store.jobs[0].Status)
	assert.Empty(t, store.audit)
	assert.Empty(t, store.events)
}
