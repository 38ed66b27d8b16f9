package services

import (
	"context"
	"net/http"
	"time"

	"github.com/DavidCLumin/estate-agent-crm/internal/domain"
	"github.com/DavidCLumin/estate-agent-crm/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const defaultMinIncrement = 1000

// PropertyInput is the staff payload for creating a property.
type PropertyInput struct {
	Title           string                `json:"title"`
	Address         string                `json:"address"`
	Eircode         string                `json:"eircode"`
	Description     string                `json:"description"`
	PriceGuide      decimal.Decimal       `json:"price_guide"`
	MinimumOffer    *decimal.Decimal      `json:"minimum_offer"`
	Status          domain.PropertyStatus `json:"status"`
	BiddingMode     domain.BiddingMode    `json:"bidding_mode"`
	BiddingDeadline *time.Time            `json:"bidding_deadline"`
	AssignedAgentID string                `json:"assigned_agent_id"`
	MinIncrement    int64                 `json:"min_increment"`
}

// PropertyPatch is a partial update; nil fields are left unchanged.
type PropertyPatch struct {
	Title           *string                `json:"title"`
	Address         *string                `json:"address"`
	Eircode         *string                `json:"eircode"`
	Description     *string                `json:"description"`
	PriceGuide      *decimal.Decimal       `json:"price_guide"`
	MinimumOffer    *decimal.Decimal       `json:"minimum_offer"`
	Status          *domain.PropertyStatus `json:"status"`
	BiddingMode     *domain.BiddingMode    `json:"bidding_mode"`
	BiddingDeadline *time.Time             `json:"bidding_deadline"`
	AssignedAgentID *string                `json:"assigned_agent_id"`
	MinIncrement    *int64                 `json:"min_increment"`
}

type AcceptOfferResult struct {
	Property      *domain.Property `json:"property"`
	AcceptedBidID string           `json:"accepted_bid_id"`
}

// PropertyService owns the listing lifecycle: CRUD, publishing and the
// offer resolution transitions (close bidding, accept offer).
type PropertyService struct {
	tx         domain.TxManager
	properties domain.PropertyRepository
	bids       domain.BidRepository
	audit      domain.AuditRepository
	events     domain.EventPublisher
	deadlines  domain.DeadlineScheduler
	now        func() time.Time
	log        logger.Logger
}

func NewPropertyService(
	tx domain.TxManager,
	properties domain.PropertyRepository,
	bids domain.BidRepository,
	audit domain.AuditRepository,
	events domain.EventPublisher,
	deadlines domain.DeadlineScheduler,
	log logger.Logger,
) *PropertyService {
	return &PropertyService{
		tx:         tx,
		properties: properties,
		bids:       bids,
		audit:      audit,
		events:     events,
		deadlines:  deadlines,
		now:        time.Now,
		log:        log,
	}
}

func (s *PropertyService) Create(ctx context.Context, tenantID, actorID, ip string, input PropertyInput) (*domain.Property, error) {
	if input.Status == "" {
		input.Status = domain.StatusDraft
	}
	if input.MinIncrement == 0 {
		input.MinIncrement = defaultMinIncrement
	}
	if err := validatePropertyInput(&input); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	property := &domain.Property{
		ID:              uuid.NewString(),
		TenantID:        tenantID,
		Title:           input.Title,
		Address:         input.Address,
		Eircode:         input.Eircode,
		Description:     input.Description,
		PriceGuide:      input.PriceGuide,
		MinimumOffer:    input.MinimumOffer,
		MinIncrement:    input.MinIncrement,
		Status:          input.Status,
		BiddingMode:     input.BiddingMode,
		BiddingDeadline: input.BiddingDeadline,
		CreatedByID:     actorID,
		AssignedAgentID: input.AssignedAgentID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.properties.Create(ctx, property); err != nil {
			return err
		}
		recordAudit(ctx, s.audit, s.log, &domain.AuditEvent{
			TenantID:  tenantID,
			UserID:    actorID,
			Action:    domain.AuditPropertyCreated,
			Entity:    "Property",
			EntityID:  property.ID,
			IPAddress: ip,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if property.Status == domain.StatusLive && property.BiddingDeadline != nil {
		s.scheduleDeadline(ctx, property)
	}
	return property, nil
}

func (s *PropertyService) Get(ctx context.Context, tenantID, propertyID string, callerRole domain.Role) (*domain.Property, error) {
	property, err := s.properties.GetByID(ctx, tenantID, propertyID)
	if err != nil {
		return nil, err
	}
	// Buyers only ever see live listings; anything else is a 404, not a
	// 403, so drafts and closed listings do not leak.
	if callerRole == domain.RoleBuyer && property.Status != domain.StatusLive {
		return nil, domain.ErrPropertyNotFound
	}
	return property, nil
}

func (s *PropertyService) List(ctx context.Context, tenantID string, callerRole domain.Role) ([]*domain.Property, error) {
	return s.properties.List(ctx, tenantID, callerRole == domain.RoleBuyer)
}

func (s *PropertyService) Update(ctx context.Context, tenantID, actorID, ip, propertyID string, patch PropertyPatch) (*domain.Property, error) {
	var updated *domain.Property

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		property, err := s.properties.GetForUpdate(ctx, tenantID, propertyID)
		if err != nil {
			return err
		}

		// Recomputed per attempt: a retried transaction re-reads the row
		// and may no longer see a status change.
		previousStatus := property.Status
		statusChanged := false
		if patch.Status != nil && *patch.Status != property.Status {
			if err := domain.ValidateStatusTransition(property.Status, *patch.Status); err != nil {
				return err
			}
			statusChanged = true
		}

		applyPatch(property, patch)
		if err := validateProperty(property); err != nil {
			return err
		}
		property.UpdatedAt = s.now().UTC()

		if err := s.properties.Update(ctx, property); err != nil {
			return err
		}

		action := domain.AuditPropertyUpdated
		var metadata map[string]interface{}
		if statusChanged {
			action = domain.AuditPropertyStatusChanged
			metadata = map[string]interface{}{"from": previousStatus, "to": property.Status}
		}
		recordAudit(ctx, s.audit, s.log, &domain.AuditEvent{
			TenantID:  tenantID,
			UserID:    actorID,
			Action:    action,
			Entity:    "Property",
			EntityID:  propertyID,
			Metadata:  metadata,
			IPAddress: ip,
		})

		updated = property
		return nil
	})
	if err != nil {
		return nil, err
	}

	if patch.BiddingDeadline != nil && updated.Status == domain.StatusLive {
		s.scheduleDeadline(ctx, updated)
	}
	return updated, nil
}

func (s *PropertyService) Delete(ctx context.Context, tenantID, actorID, ip, propertyID string) (*domain.Property, error) {
	var deleted *domain.Property
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		property, err := s.properties.GetForUpdate(ctx, tenantID, propertyID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		if err := s.properties.SoftDelete(ctx, tenantID, propertyID, now); err != nil {
			return err
		}
		property.DeletedAt = &now
		property.UpdatedAt = now

		recordAudit(ctx, s.audit, s.log, &domain.AuditEvent{
			TenantID:  tenantID,
			UserID:    actorID,
			Action:    domain.AuditPropertyDeleted,
			Entity:    "Property",
			EntityID:  propertyID,
			IPAddress: ip,
		})

		deleted = property
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cancelDeadline(ctx, propertyID)
	return deleted, nil
}

// Publish moves a draft listing live and arms its deadline sweep.
func (s *PropertyService) Publish(ctx context.Context, tenantID, actorID, ip, propertyID string) (*domain.Property, error) {
	var published *domain.Property
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		property, err := s.properties.GetForUpdate(ctx, tenantID, propertyID)
		if err != nil {
			return err
		}
		if err := domain.ValidateStatusTransition(property.Status, domain.StatusLive); err != nil {
			return err
		}

		property.Status = domain.StatusLive
		property.UpdatedAt = s.now().UTC()
		if err := s.properties.Update(ctx, property); err != nil {
			return err
		}

		recordAudit(ctx, s.audit, s.log, &domain.AuditEvent{
			TenantID:  tenantID,
			UserID:    actorID,
			Action:    domain.AuditPropertyPublished,
			Entity:    "Property",
			EntityID:  propertyID,
			IPAddress: ip,
		})

		published = property
		return nil
	})
	if err != nil {
		return nil, err
	}

	if published.BiddingDeadline != nil {
		s.scheduleDeadline(ctx, published)
	}
	return published, nil
}

// CloseBidding stamps the deadline to now and moves the property to
// UNDER_OFFER. Re-closing an already-closed property is harmless; the
// self-transition is allowed.
func (s *PropertyService) CloseBidding(ctx context.Context, tenantID, actorID, propertyID string) (*domain.Property, error) {
	var closed *domain.Property
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		property, err := s.properties.GetForUpdate(ctx, tenantID, propertyID)
		if err != nil {
			return err
		}
		if err := domain.ValidateStatusTransition(property.Status, domain.StatusUnderOffer); err != nil {
			return err
		}

		now := s.now().UTC()
		property.BiddingDeadline = &now
		property.Status = domain.StatusUnderOffer
		property.UpdatedAt = now
		if err := s.properties.Update(ctx, property); err != nil {
			return err
		}

		recordAudit(ctx, s.audit, s.log, &domain.AuditEvent{
			TenantID: tenantID,
			UserID:   actorID,
			Action:   domain.AuditBiddingClosed,
			Entity:   "Property",
			EntityID: propertyID,
		})

		closed = property
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cancelDeadline(ctx, propertyID)
	s.publishEvent(ctx, &domain.BidEvent{
		Type:       domain.EventBiddingClosed,
		TenantID:   tenantID,
		PropertyID: propertyID,
		Timestamp:  s.now().UTC(),
	})
	return closed, nil
}

// AcceptOffer marks the property under offer against the given bid. The
// accepted bid is recorded in the audit trail and returned to the
// caller; the property row itself carries no accepted-bid reference.
func (s *PropertyService) AcceptOffer(ctx context.Context, tenantID, actorID, propertyID, bidID string) (*AcceptOfferResult, error) {
	var result *AcceptOfferResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		property, err := s.properties.GetForUpdate(ctx, tenantID, propertyID)
		if err != nil {
			return err
		}
		if property.Status != domain.StatusLive && property.Status != domain.StatusUnderOffer {
			return domain.NewAppError(http.StatusConflict, "INVALID_STATUS_TRANSITION",
				"Offer can only be accepted on active listings")
		}

		bid, err := s.bids.GetByID(ctx, tenantID, propertyID, bidID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		property.Status = domain.StatusUnderOffer
		property.BiddingDeadline = &now
		property.UpdatedAt = now
		if err := s.properties.Update(ctx, property); err != nil {
			return err
		}

		recordAudit(ctx, s.audit, s.log, &domain.AuditEvent{
			TenantID: tenantID,
			UserID:   actorID,
			Action:   domain.AuditOfferAccepted,
			Entity:   "Bid",
			EntityID: bid.ID,
			Metadata: map[string]interface{}{"propertyId": propertyID, "amount": bid.Amount.String()},
		})

		result = &AcceptOfferResult{Property: property, AcceptedBidID: bid.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cancelDeadline(ctx, propertyID)
	s.publishEvent(ctx, &domain.BidEvent{
		Type:       domain.EventOfferAccepted,
		TenantID:   tenantID,
		PropertyID: propertyID,
		Timestamp:  s.now().UTC(),
	})
	return result, nil
}

func (s *PropertyService) scheduleDeadline(ctx context.Context, property *domain.Property) {
	if s.deadlines == nil {
		return
	}
	if err := s.deadlines.ScheduleDeadline(ctx, property); err != nil {
		s.log.Warn("Failed to schedule deadline job", "property_id", property.ID, "error", err)
	}
}

func (s *PropertyService) cancelDeadline(ctx context.Context, propertyID string) {
	if s.deadlines == nil {
		return
	}
	if err := s.deadlines.CancelDeadline(ctx, propertyID); err != nil {
		s.log.Warn("Failed to cancel deadline job", "property_id", propertyID, "error", err)
	}
}

func (s *PropertyService) publishEvent(ctx context.Context, event *domain.BidEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishBidEvent(ctx, event); err != nil {
		s.log.Warn("Failed to publish property event",
			"type", event.Type, "property_id", event.PropertyID, "error", err)
	}
}

func applyPatch(property *domain.Property, patch PropertyPatch) {
	if patch.Title != nil {
		property.Title = *patch.Title
	}
	if patch.Address != nil {
		property.Address = *patch.Address
	}
	if patch.Eircode != nil {
		property.Eircode = *patch.Eircode
	}
	if patch.Description != nil {
		property.Description = *patch.Description
	}
	if patch.PriceGuide != nil {
		property.PriceGuide = *patch.PriceGuide
	}
	if patch.MinimumOffer != nil {
		property.MinimumOffer = patch.MinimumOffer
	}
	if patch.Status != nil {
		property.Status = *patch.Status
	}
	if patch.BiddingMode != nil {
		property.BiddingMode = *patch.BiddingMode
	}
	if patch.BiddingDeadline != nil {
		property.BiddingDeadline = patch.BiddingDeadline
	}
	if patch.AssignedAgentID != nil {
		property.AssignedAgentID = *patch.AssignedAgentID
	}
	if patch.MinIncrement != nil {
		property.MinIncrement = *patch.MinIncrement
	}
}

func validatePropertyInput(input *PropertyInput) error {
	p := &domain.Property{
		Title:        input.Title,
		Address:      input.Address,
		Description:  input.Description,
		PriceGuide:   input.PriceGuide,
		MinimumOffer: input.MinimumOffer,
		MinIncrement: input.MinIncrement,
		Status:       input.Status,
		BiddingMode:  input.BiddingMode,
	}
	return validateProperty(p)
}

func validateProperty(p *domain.Property) error {
	validation := func(message string) error {
		return domain.NewAppError(http.StatusBadRequest, "VALIDATION", message)
	}
	if len(p.Title) < 3 {
		return validation("Title must be at least 3 characters")
	}
	if len(p.Address) < 3 {
		return validation("Address must be at least 3 characters")
	}
	if len(p.Description) < 3 {
		return validation("Description must be at least 3 characters")
	}
	if p.PriceGuide.Sign() < 0 || !p.PriceGuide.Equal(p.PriceGuide.Round(2)) {
		return validation("Price guide must be a non-negative amount with at most two decimal places")
	}
	if p.MinimumOffer != nil && (p.MinimumOffer.Sign() < 0 || !p.MinimumOffer.Equal(p.MinimumOffer.Round(2))) {
		return validation("Minimum offer must be a non-negative amount with at most two decimal places")
	}
	if p.MinIncrement <= 0 {
		return validation("Minimum increment must be positive")
	}
	if p.BiddingMode != domain.BiddingOpen && p.BiddingMode != domain.BiddingSealed {
		return validation("Bidding mode must be OPEN or SEALED")
	}
	switch p.Status {
	case domain.StatusDraft, domain.StatusLive, domain.StatusUnderOffer, domain.StatusSold:
	default:
		return validation("Unknown property status")
	}
	return nil
}
