package domain

import (
	"context"
	"time"
)

// Repository interfaces. Every query is tenant-filtered in SQL; callers
// never post-filter.
type PropertyRepository interface {
	Create(ctx context.Context, property *Property) error
	// GetByID returns ErrPropertyNotFound for missing, soft-deleted or
	// cross-tenant rows.
	GetByID(ctx context.Context, tenantID, propertyID string) (*Property, error)
	// GetForUpdate is GetByID plus a row lock; only valid inside a
	// transaction opened by TxManager.
	GetForUpdate(ctx context.Context, tenantID, propertyID string) (*Property, error)
	List(ctx context.Context, tenantID string, liveOnly bool) ([]*Property, error)
	Update(ctx context.Context, property *Property) error
	SoftDelete(ctx context.Context, tenantID, propertyID string, at time.Time) error
}

type BidRepository interface {
	Create(ctx context.Context, bid *Bid) error
	GetByID(ctx context.Context, tenantID, propertyID, bidID string) (*Bid, error)
	// Highest returns (nil, nil) when the property has no bids yet.
	Highest(ctx context.Context, tenantID, propertyID string) (*Bid, error)
	// ListByProperty returns bids in chronological order.
	ListByProperty(ctx context.Context, tenantID, propertyID string) ([]*Bid, error)
	// ListByBuyer returns the buyer's own bids, newest first.
	ListByBuyer(ctx context.Context, tenantID, propertyID, buyerUserID string) ([]*Bid, error)
}

type AuditRepository interface {
	Record(ctx context.Context, event *AuditEvent) error
	ListRecent(ctx context.Context, tenantID string, limit int) ([]*AuditEvent, error)
}

type SchedulerRepository interface {
	CreateJob(ctx context.Context, job *ScheduledJob) error
	GetDueJobs(ctx context.Context, before time.Time) ([]*ScheduledJob, error)
	MarkExecuted(ctx context.Context, jobID string) error
	CancelJobsForProperty(ctx context.Context, propertyID string) error
}

// TxManager runs fn inside one transaction; repositories called with the
// ctx it passes operate on that transaction. Serialization conflicts are
// retried a bounded number of times before surfacing ErrTxConflict.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Event interfaces
type EventPublisher interface {
	PublishBidEvent(ctx context.Context, event *BidEvent) error
}

type EventHandler func(event *BidEvent)

type EventSubscriber interface {
	Subscribe(ctx context.Context, handler EventHandler) error
}

// DeadlineScheduler maintains the pending deadline job for a property.
type DeadlineScheduler interface {
	ScheduleDeadline(ctx context.Context, property *Property) error
	CancelDeadline(ctx context.Context, propertyID string) error
}

// Leader election interface
type LeaderElection interface {
	BecomeLeader(ctx context.Context, instanceID string) (bool, error)
	IsLeader(ctx context.Context, instanceID string) (bool, error)
	ReleaseLeadership(ctx context.Context, instanceID string) error
}
