package services

import (
	"context"
	"fmt"
	"time"

	"github.com/DavidCLumin/estate-agent-crm/internal/domain"
	"github.com/DavidCLumin/estate-agent-crm/pkg/logger"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// CronDeadlineScheduler sweeps a scheduled-jobs table for bidding
// deadlines that have passed. The sweep is observational: it writes a
// BIDDING_DEADLINE_PASSED audit event and publishes a realtime event,
// but never mutates the property - the bid validator alone enforces the
// cutoff. Leader election keeps a multi-instance deployment from
// emitting the same job twice.
type CronDeadlineScheduler struct {
	cron       *cron.Cron
	jobs       domain.SchedulerRepository
	audit      domain.AuditRepository
	events     domain.EventPublisher
	leader     domain.LeaderElection
	instanceID string
	interval   time.Duration
	log        logger.Logger
}

func NewCronDeadlineScheduler(
	jobs domain.SchedulerRepository,
	audit domain.AuditRepository,
	events domain.EventPublisher,
	leader domain.LeaderElection,
	instanceID string,
	interval time.Duration,
	log logger.Logger,
) *CronDeadlineScheduler {
	return &CronDeadlineScheduler{
		cron:       cron.New(cron.WithSeconds()),
		jobs:       jobs,
		audit:      audit,
		events:     events,
		leader:     leader,
		instanceID: instanceID,
		interval:   interval,
		log:        log,
	}
}

func (s *CronDeadlineScheduler) Start(ctx context.Context) error {
	s.log.Info("Starting deadline scheduler", "interval", s.interval.String())

	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		s.sweep(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *CronDeadlineScheduler) Stop() error {
	s.log.Info("Stopping deadline scheduler")
	s.cron.Stop()
	return nil
}

// ScheduleDeadline replaces any pending job for the property with one
// at its current deadline.
func (s *CronDeadlineScheduler) ScheduleDeadline(ctx context.Context, property *domain.Property) error {
	if property.BiddingDeadline == nil {
		return s.jobs.CancelJobsForProperty(ctx, property.ID)
	}
	if err := s.jobs.CancelJobsForProperty(ctx, property.ID); err != nil {
		return err
	}
	return s.jobs.CreateJob(ctx, &domain.ScheduledJob{
		ID:         uuid.NewString(),
		TenantID:   property.TenantID,
		PropertyID: property.ID,
		JobType:    domain.JobDeadlinePassed,
		RunAt:      *property.BiddingDeadline,
		Status:     domain.JobPending,
		CreatedAt:  time.Now().UTC(),
	})
}

func (s *CronDeadlineScheduler) CancelDeadline(ctx context.Context, propertyID string) error {
	return s.jobs.CancelJobsForProperty(ctx, propertyID)
}

func (s *CronDeadlineScheduler) sweep(ctx context.Context) {
	if !s.holdLeadership(ctx) {
		return
	}

	jobs, err := s.jobs.GetDueJobs(ctx, time.Now())
	if err != nil {
		s.log.Error("Failed to fetch due deadline jobs", "error", err)
		return
	}

	for _, job := range jobs {
		s.log.Info("Bidding deadline passed", "job_id", job.ID, "property_id", job.PropertyID)

		recordAudit(ctx, s.audit, s.log, &domain.AuditEvent{
			TenantID: job.TenantID,
			Action:   domain.AuditDeadlinePassed,
			Entity:   "Property",
			EntityID: job.PropertyID,
		})

		if s.events != nil {
			err := s.events.PublishBidEvent(ctx, &domain.BidEvent{
				Type:       domain.EventDeadlinePassed,
				TenantID:   job.TenantID,
				PropertyID: job.PropertyID,
				Timestamp:  job.RunAt,
			})
			if err != nil {
				s.log.Warn("Failed to publish deadline event", "property_id", job.PropertyID, "error", err)
			}
		}

		if err := s.jobs.MarkExecuted(ctx, job.ID); err != nil {
			s.log.Error("Failed to mark deadline job executed", "job_id", job.ID, "error", err)
		}
	}
}

func (s *CronDeadlineScheduler) holdLeadership(ctx context.Context) bool {
	if s.leader == nil {
		return true
	}
	isLeader, err := s.leader.IsLeader(ctx, s.instanceID)
	if err != nil {
		s.log.Error("Leader check failed", "error", err)
		return false
	}
	if isLeader {
		return true
	}
	became, err := s.leader.BecomeLeader(ctx, s.instanceID)
	if err != nil {
		s.log.Error("Leader election failed", "error", err)
		return false
	}
	return became
}
