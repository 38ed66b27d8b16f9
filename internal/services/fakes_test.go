package services

import (
	"context"
	"sort"
	"time"

	"github.com/DavidCLumin/estate-agent-crm/internal/domain"
)

// fakeStore is the shared in-memory backend for the per-interface fakes
// below. Mocking individual repository calls cannot express the
// recorder's transactional re-read, so the fakes are stateful.
type fakeStore struct {
	properties map[string]*domain.Property
	bids       map[string][]*domain.Bid // propertyID -> chronological
	audit      []*domain.AuditEvent
	auditErr   error
	jobs       []*domain.ScheduledJob
	events     []*domain.BidEvent
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		properties: make(map[string]*domain.Property),
		bids:       make(map[string][]*domain.Bid),
	}
}

func (s *fakeStore) addProperty(p *domain.Property) {
	clone := *p
	s.properties[p.ID] = &clone
}

func (s *fakeStore) auditActions() []string {
	actions := make([]string, 0, len(s.audit))
	for _, event := range s.audit {
		actions = append(actions, event.Action)
	}
	return actions
}

type fakePropertyRepo struct{ s *fakeStore }

func (r *fakePropertyRepo) Create(_ context.Context, p *domain.Property) error {
	r.s.addProperty(p)
	return nil
}

func (r *fakePropertyRepo) GetByID(_ context.Context, tenantID, propertyID string) (*domain.Property, error) {
	p, ok := r.s.properties[propertyID]
	if !ok || p.TenantID != tenantID || p.DeletedAt != nil {
		return nil, domain.ErrPropertyNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *fakePropertyRepo) GetForUpdate(ctx context.Context, tenantID, propertyID string) (*domain.Property, error) {
	return r.GetByID(ctx, tenantID, propertyID)
}

func (r *fakePropertyRepo) List(_ context.Context, tenantID string, liveOnly bool) ([]*domain.Property, error) {
	var out []*domain.Property
	for _, p := range r.s.properties {
		if p.TenantID != tenantID || p.DeletedAt != nil {
			continue
		}
		if liveOnly && p.Status != domain.StatusLive {
			continue
		}
		clone := *p
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakePropertyRepo) Update(_ context.Context, p *domain.Property) error {
	r.s.addProperty(p)
	return nil
}

func (r *fakePropertyRepo) SoftDelete(_ context.Context, tenantID, propertyID string, at time.Time) error {
	if p, ok := r.s.properties[propertyID]; ok && p.TenantID == tenantID {
		p.DeletedAt = &at
	}
	return nil
}

type fakeBidRepo struct{ s *fakeStore }

func (r *fakeBidRepo) Create(_ context.Context, bid *domain.Bid) error {
	clone := *bid
	r.s.bids[bid.PropertyID] = append(r.s.bids[bid.PropertyID], &clone)
	return nil
}

func (r *fakeBidRepo) GetByID(_ context.Context, tenantID, propertyID, bidID string) (*domain.Bid, error) {
	for _, bid := range r.s.bids[propertyID] {
		if bid.ID == bidID && bid.TenantID == tenantID {
			clone := *bid
			return &clone, nil
		}
	}
	return nil, domain.ErrBidNotFound
}

func (r *fakeBidRepo) Highest(_ context.Context, tenantID, propertyID string) (*domain.Bid, error) {
	var highest *domain.Bid
	for _, bid := range r.s.bids[propertyID] {
		if bid.TenantID != tenantID {
			continue
		}
		if highest == nil || bid.Amount.GreaterThan(highest.Amount) {
			highest = bid
		}
	}
	if highest == nil {
		return nil, nil
	}
	clone := *highest
	return &clone, nil
}

func (r *fakeBidRepo) ListByProperty(_ context.Context, tenantID, propertyID string) ([]*domain.Bid, error) {
	var out []*domain.Bid
	for _, bid := range r.s.bids[propertyID] {
		if bid.TenantID == tenantID {
			clone := *bid
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeBidRepo) ListByBuyer(_ context.Context, tenantID, propertyID, buyerUserID string) ([]*domain.Bid, error) {
	var out []*domain.Bid
	for _, bid := range r.s.bids[propertyID] {
		if bid.TenantID == tenantID && bid.BuyerUserID == buyerUserID {
			clone := *bid
			out = append(out, &clone)
		}
	}
	// Newest first, matching the repository contract.
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type fakeAuditRepo struct{ s *fakeStore }

func (r *fakeAuditRepo) Record(_ context.Context, event *domain.AuditEvent) error {
	if r.s.auditErr != nil {
		return r.s.auditErr
	}
	clone := *event
	r.s.audit = append(r.s.audit, &clone)
	return nil
}

func (r *fakeAuditRepo) ListRecent(_ context.Context, tenantID string, limit int) ([]*domain.AuditEvent, error) {
	var out []*domain.AuditEvent
	for i := len(r.s.audit) - 1; i >= 0 && len(out) < limit; i-- {
		if r.s.audit[i].TenantID == tenantID {
			out = append(out, r.s.audit[i])
		}
	}
	return out, nil
}

type fakeSchedulerRepo struct{ s *fakeStore }

func (r *fakeSchedulerRepo) CreateJob(_ context.Context, job *domain.ScheduledJob) error {
	clone := *job
	r.s.jobs = append(r.s.jobs, &clone)
	return nil
}

func (r *fakeSchedulerRepo) GetDueJobs(_ context.Context, before time.Time) ([]*domain.ScheduledJob, error) {
	var due []*domain.ScheduledJob
	for _, job := range r.s.jobs {
		if job.Status == domain.JobPending && !job.RunAt.After(before) {
			due = append(due, job)
		}
	}
	return due, nil
}

func (r *fakeSchedulerRepo) MarkExecuted(_ context.Context, jobID string) error {
	for _, job := range r.s.jobs {
		if job.ID == jobID {
			job.Status = domain.JobExecuted
		}
	}
	return nil
}

func (r *fakeSchedulerRepo) CancelJobsForProperty(_ context.Context, propertyID string) error {
	for _, job := range r.s.jobs {
		if job.PropertyID == propertyID && job.Status == domain.JobPending {
			job.Status = domain.JobCancelled
		}
	}
	return nil
}

// fakeTxManager runs the unit of work directly; the fakes are
// single-goroutine so there is nothing to serialize.
type fakeTxManager struct{}

func (fakeTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// retryingTxManager runs the unit of work twice, the way the real
// manager does after a serialization conflict on the first attempt.
type retryingTxManager struct{}

func (retryingTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}
	return fn(ctx)
}

type fakePublisher struct{ s *fakeStore }

func (p *fakePublisher) PublishBidEvent(_ context.Context, event *domain.BidEvent) error {
	clone := *event
	p.s.events = append(p.s.events, &clone)
	return nil
}

type fakeDeadlines struct {
	scheduled []string
	cancelled []string
}

func (d *fakeDeadlines) ScheduleDeadline(_ context.Context, property *domain.Property) error {
	d.scheduled = append(d.scheduled, property.ID)
	return nil
}

func (d *fakeDeadlines) CancelDeadline(_ context.Context, propertyID string) error {
	d.cancelled = append(d.cancelled, propertyID)
	return nil
}

// fakeLeader flips leadership for scheduler tests.
type fakeLeader struct{ leader bool }

func (l *fakeLeader) BecomeLeader(context.Context, string) (bool, error) { return l.leader, nil }
func (l *fakeLeader) IsLeader(context.Context, string) (bool, error)     { return l.leader, nil }
func (l *fakeLeader) ReleaseLeadership(context.Context, string) error    { return nil }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Fatal(string, ...interface{}) {}

const testSecret = "test-secret"

func newTestBidService(s *fakeStore) *BidService {
	return NewBidService(
		fakeTxManager{},
		&fakePropertyRepo{s: s},
		&fakeBidRepo{s: s},
		&fakeAuditRepo{s: s},
		&fakePublisher{s: s},
		testSecret,
		nopLogger{},
	)
}

func newTestPropertyService(s *fakeStore, deadlines *fakeDeadlines) *PropertyService {
	return NewPropertyService(
		fakeTxManager{},
		&fakePropertyRepo{s: s},
		&fakeBidRepo{s: s},
		&fakeAuditRepo{s: s},
		&fakePublisher{s: s},
		deadlines,
		nopLogger{},
	)
}
