package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleSuperAdmin  Role = "SUPER_ADMIN"
	RoleTenantAdmin Role = "TENANT_ADMIN"
	RoleAgent       Role = "AGENT"
	RoleBuyer       Role = "BUYER"
)

type PropertyStatus string

const (
	StatusDraft      PropertyStatus = "DRAFT"
	StatusLive       PropertyStatus = "LIVE"
	StatusUnderOffer PropertyStatus = "UNDER_OFFER"
	StatusSold       PropertyStatus = "SOLD"
)

type BiddingMode string

const (
	BiddingOpen   BiddingMode = "OPEN"
	BiddingSealed BiddingMode = "SEALED"
)

// Property is the full staff-facing record. Buyer-facing reads must go
// through BuyerView so the hidden minimum offer never reaches buyers.
type Property struct {
	ID              string           `json:"id"`
	TenantID        string           `json:"tenant_id"`
	Title           string           `json:"title"`
	Address         string           `json:"address"`
	Eircode         string           `json:"eircode,omitempty"`
	Description     string           `json:"description"`
	PriceGuide      decimal.Decimal  `json:"price_guide"`
	MinimumOffer    *decimal.Decimal `json:"minimum_offer,omitempty"`
	MinIncrement    int64            `json:"min_increment"`
	Status          PropertyStatus   `json:"status"`
	BiddingMode     BiddingMode      `json:"bidding_mode"`
	BiddingDeadline *time.Time       `json:"bidding_deadline,omitempty"`
	CreatedByID     string           `json:"created_by_id"`
	AssignedAgentID string           `json:"assigned_agent_id,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	DeletedAt       *time.Time       `json:"deleted_at,omitempty"`
}

// Bid rows are immutable once written. There is deliberately no update
// or delete path anywhere in the repository surface.
type Bid struct {
	ID          string          `json:"id"`
	TenantID    string          `json:"tenant_id"`
	PropertyID  string          `json:"property_id"`
	BuyerUserID string          `json:"buyer_user_id"`
	Amount      decimal.Decimal `json:"amount"`
	BidHash     string          `json:"bid_hash"`
	CreatedAt   time.Time       `json:"created_at"`
}

type AuditEvent struct {
	ID        string                 `json:"id"`
	TenantID  string                 `json:"tenant_id,omitempty"`
	UserID    string                 `json:"user_id,omitempty"`
	Action    string                 `json:"action"`
	Entity    string                 `json:"entity"`
	EntityID  string                 `json:"entity_id,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	IPAddress string                 `json:"ip_address,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// Audit actions recorded by the services.
const (
	AuditBidSubmitted          = "BID_SUBMITTED"
	AuditBiddingClosed         = "BIDDING_CLOSED"
	AuditOfferAccepted         = "OFFER_ACCEPTED"
	AuditPropertyCreated       = "PROPERTY_CREATED"
	AuditPropertyUpdated       = "PROPERTY_UPDATED"
	AuditPropertyStatusChanged = "PROPERTY_STATUS_CHANGED"
	AuditPropertyDeleted       = "PROPERTY_DELETED"
	AuditPropertyPublished     = "PROPERTY_PUBLISHED"
	AuditDeadlinePassed        = "BIDDING_DEADLINE_PASSED"
)

// BidEvent is the realtime fan-out payload published on the bid_events
// channel. It carries no buyer identity on purpose.
type BidEvent struct {
	Type       BidEventType    `json:"type"`
	TenantID   string          `json:"tenant_id"`
	PropertyID string          `json:"property_id"`
	Amount     decimal.Decimal `json:"amount"`
	Timestamp  time.Time       `json:"timestamp"`
}

type BidEventType string

const (
	EventBidSubmitted   BidEventType = "bid_submitted"
	EventBiddingClosed  BidEventType = "bidding_closed"
	EventOfferAccepted  BidEventType = "offer_accepted"
	EventDeadlinePassed BidEventType = "bidding_deadline_passed"
)

// ScheduledJob tracks a pending deadline sweep for a property. Passing
// the deadline never mutates the property itself; admission control
// enforces the cutoff and the job only drives audit and realtime fan-out.
type ScheduledJob struct {
	ID         string
	TenantID   string
	PropertyID string
	JobType    JobType
	RunAt      time.Time
	Status     JobStatus
	CreatedAt  time.Time
}

type JobType string

const (
	JobDeadlinePassed JobType = "deadline_passed"
)

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobExecuted  JobStatus = "executed"
	JobCancelled JobStatus = "cancelled"
)
