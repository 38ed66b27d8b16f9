package services

import (
	"context"
	"time"

	"github.com/DavidCLumin/estate-agent-crm/internal/domain"
	"github.com/DavidCLumin/estate-agent-crm/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BidService is the bid engine: admission validation, transactional
// recording, and role-aware snapshot reads.
type BidService struct {
	tx         domain.TxManager
	properties domain.PropertyRepository
	bids       domain.BidRepository
	audit      domain.AuditRepository
	events     domain.EventPublisher
	hashSecret string
	now        func() time.Time
	log        logger.Logger
}

func NewBidService(
	tx domain.TxManager,
	properties domain.PropertyRepository,
	bids domain.BidRepository,
	audit domain.AuditRepository,
	events domain.EventPublisher,
	hashSecret string,
	log logger.Logger,
) *BidService {
	return &BidService{
		tx:         tx,
		properties: properties,
		bids:       bids,
		audit:      audit,
		events:     events,
		hashSecret: hashSecret,
		now:        time.Now,
		log:        log,
	}
}

// SubmitBid records an admissible bid. Property and latest bid are
// re-read inside the transaction - never trusted from any earlier read -
// so concurrent submissions against the same property serialize on the
// property row lock and each validates against the committed state of
// the one before it.
func (s *BidService) SubmitBid(ctx context.Context, tenantID, buyerUserID, propertyID string, amount decimal.Decimal) (*domain.Bid, error) {
	// Sub-cent amounts would be rounded by the DECIMAL(12,2) column, so
	// the stored amount would no longer match the hashed one.
	if amount.Sign() <= 0 || !amount.Equal(amount.Round(2)) {
		return nil, domain.ErrInvalidBidAmount
	}

	s.log.Info("Submitting bid",
		"tenant_id", tenantID, "property_id", propertyID, "amount", amount.String())

	var created *domain.Bid
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		property, err := s.properties.GetForUpdate(ctx, tenantID, propertyID)
		if err != nil {
			return err
		}
		if property.Status != domain.StatusLive {
			return domain.ErrPropertyNotLive
		}

		latest, err := s.bids.Highest(ctx, tenantID, propertyID)
		if err != nil {
			return err
		}

		// Millisecond precision matches the DATETIME(3) column, so the
		// stored created_at round-trips into the same hash input.
		now := s.now().UTC().Truncate(time.Millisecond)
		if err := domain.ValidateBidSubmission(property, latest, amount, now); err != nil {
			return err
		}

		bid := &domain.Bid{
			ID:          uuid.NewString(),
			TenantID:    tenantID,
			PropertyID:  propertyID,
			BuyerUserID: buyerUserID,
			Amount:      amount,
			BidHash:     domain.BuildBidHash(tenantID, propertyID, buyerUserID, amount.String(), now, s.hashSecret),
			CreatedAt:   now,
		}
		if err := s.bids.Create(ctx, bid); err != nil {
			return err
		}

		recordAudit(ctx, s.audit, s.log, &domain.AuditEvent{
			TenantID: tenantID,
			UserID:   buyerUserID,
			Action:   domain.AuditBidSubmitted,
			Entity:   "Bid",
			EntityID: bid.ID,
			Metadata: map[string]interface{}{"propertyId": propertyID, "amount": amount.String()},
		})

		created = bid
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, &domain.BidEvent{
		Type:       domain.EventBidSubmitted,
		TenantID:   tenantID,
		PropertyID: propertyID,
		Amount:     created.Amount,
		Timestamp:  created.CreatedAt,
	})

	return created, nil
}

// GetBidSnapshot returns the role-appropriate view of a property's bids.
// OPEN-mode buyers get their own bids plus an anonymized history; SEALED
// buyers get only their own bids; staff get the full list, newest first.
func (s *BidService) GetBidSnapshot(ctx context.Context, tenantID, propertyID string, callerRole domain.Role, callerUserID string) (interface{}, error) {
	property, err := s.properties.GetByID(ctx, tenantID, propertyID)
	if err != nil {
		return nil, err
	}
	if callerRole == domain.RoleBuyer && property.Status != domain.StatusLive {
		return nil, domain.ErrPropertyNotFound
	}

	if callerRole != domain.RoleBuyer {
		bids, err := s.bids.ListByProperty(ctx, tenantID, propertyID)
		if err != nil {
			return nil, err
		}
		reverse(bids)
		return bids, nil
	}

	ownBids, err := s.bids.ListByBuyer(ctx, tenantID, propertyID, callerUserID)
	if err != nil {
		return nil, err
	}
	if ownBids == nil {
		ownBids = []*domain.Bid{}
	}

	if property.BiddingMode != domain.BiddingOpen {
		return ownBids, nil
	}

	all, err := s.bids.ListByProperty(ctx, tenantID, propertyID)
	if err != nil {
		return nil, err
	}

	snapshot := &domain.OpenBidSnapshot{
		OwnBids:    ownBids,
		BidHistory: domain.AnonymizeBidHistory(all),
	}
	for _, bid := range all {
		if snapshot.HighestBid == nil || bid.Amount.GreaterThan(*snapshot.HighestBid) {
			amount := bid.Amount
			snapshot.HighestBid = &amount
		}
	}
	return snapshot, nil
}

// VerifyBid recomputes a stored bid's integrity digest. Staff tooling
// uses this to prove a bid row was not altered after creation.
func (s *BidService) VerifyBid(ctx context.Context, tenantID, propertyID, bidID string) (bool, error) {
	bid, err := s.bids.GetByID(ctx, tenantID, propertyID, bidID)
	if err != nil {
		return false, err
	}
	return domain.VerifyBidHash(bid, s.hashSecret), nil
}

func (s *BidService) publishEvent(ctx context.Context, event *domain.BidEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishBidEvent(ctx, event); err != nil {
		s.log.Warn("Failed to publish bid event",
			"type", event.Type, "property_id", event.PropertyID, "error", err)
	}
}

func reverse(bids []*domain.Bid) {
	for i, j := 0, len(bids)-1; i < j; i, j = i+1, j-1 {
		bids[i], bids[j] = bids[j], bids[i]
	}
}
