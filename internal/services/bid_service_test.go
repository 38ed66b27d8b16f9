package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidCLumin/estate-agent-crm/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// tickingClock hands out strictly increasing timestamps so bids created
// in sequence never collide on created_at.
func tickingClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func liveProperty(mode domain.BiddingMode, minimumOffer *decimal.Decimal) *domain.Property {
	deadline := baseTime.Add(24 * time.Hour)
	return &domain.Property{
		ID:              "prop-1",
		TenantID:        "tenant-1",
		Title:           "4 Bed Detached, Ranelagh",
		Address:         "12 Elm Park, Ranelagh, Dublin 6",
		Description:     "South-facing garden, recently renovated",
		PriceGuide:      dec("750000"),
		MinimumOffer:    minimumOffer,
		MinIncrement:    1000,
		Status:          domain.StatusLive,
		BiddingMode:     mode,
		BiddingDeadline: &deadline,
		CreatedByID:     "admin-1",
		CreatedAt:       baseTime,
		UpdatedAt:       baseTime,
	}
}

func TestSubmitBidOpenModeSequence(t *testing.T) {
	store := newFakeStore()
	store.addProperty(liveProperty(domain.BiddingOpen, decPtr("700000")))
	svc := newTestBidService(store)
	svc.now = tickingClock(baseTime)
	ctx := context.Background()

	_, err := svc.SubmitBid(ctx, "tenant-1", "buyer-1", "prop-1", dec("699999"))
	require.Error(t, err)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "BELOW_MINIMUM_OFFER", appErr.Code)
	assert.NotContains(t, appErr.Message, "700000")

	first, err := svc.SubmitBid(ctx, "tenant-1", "buyer-1", "prop-1", dec("700000"))
	require.NoError(t, err)
	assert.True(t, first.Amount.Equal(dec("700000")))
	assert.NotEmpty(t, first.BidHash)

	_, err = svc.SubmitBid(ctx, "tenant-1", "buyer-2", "prop-1", dec("700000"))
	require.Error(t, err)
	appErr, ok = domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "MUST_EXCEED_HIGHEST", appErr.Code)

	second, err := svc.SubmitBid(ctx, "tenant-1", "buyer-2", "prop-1", dec("700001"))
	require.NoError(t, err)
	assert.True(t, second.Amount.Equal(dec("700001")))

	assert.Len(t, store.bids["prop-1"], 2)
	assert.Equal(t, []string{domain.AuditBidSubmitted, domain.AuditBidSubmitted}, store.auditActions())
	require.Len(t, store.events, 2)
	assert.Equal(t, domain.EventBidSubmitted, store.events[0].Type)
}

func TestSubmitBidSealedModeIgnoresPriorBids(t *testing.T) {
	store := newFakeStore()
	store.addProperty(liveProperty(domain.BiddingSealed, decPtr("600000")))
	svc := newTestBidService(store)
	svc.now = tickingClock(baseTime)
	ctx := context.Background()

	_, err := svc.SubmitBid(ctx, "tenant-1", "buyer-1", "prop-1", dec("700000"))
	require.NoError(t, err)

	// Lower than the standing bid, but sealed mode never compares.
	lower, err := svc.SubmitBid(ctx, "tenant-1", "buyer-2", "prop-1", dec("650000"))
	require.NoError(t, err)
	assert.True(t, lower.Amount.Equal(dec("650000")))
	assert.Len(t, store.bids["prop-1"], 2)
}

func TestSubmitBidAfterDeadline(t *testing.T) {
	store := newFakeStore()
	prop := liveProperty(domain.BiddingOpen, nil)
	past := baseTime.Add(-time.Hour)
	prop.BiddingDeadline = &past
	store.addProperty(prop)
	svc := newTestBidService(store)
	svc.now = tickingClock(baseTime)

	_, err := svc.SubmitBid(context.Background(), "tenant-1", "buyer-1", "prop-1", dec("800000"))
	require.Error(t, err)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "BIDDING_CLOSED", appErr.Code)
	assert.Empty(t, store.bids["prop-1"])
	assert.Empty(t, store.audit)
	assert.Empty(t, store.events)
}

func TestSubmitBidPropertyNotLive(t *testing.T) {
	store := newFakeStore()
	prop := liveProperty(domain.BiddingOpen, nil)
	prop.Status = domain.StatusDraft
	store.addProperty(prop)
	svc := newTestBidService(store)

	_, err := svc.SubmitBid(context.Background(), "tenant-1", "buyer-1", "prop-1", dec("800000"))
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "PROPERTY_NOT_LIVE", appErr.Code)
	assert.Equal(t, 409, appErr.Status)
}

func TestSubmitBidUnknownProperty(t *testing.T) {
	store := newFakeStore()
	svc := newTestBidService(store)

	_, err := svc.SubmitBid(context.Background(), "tenant-1", "buyer-1", "nope", dec("800000"))
	assert.ErrorIs(t, err, domain.ErrPropertyNotFound)
}

func TestSubmitBidCrossTenantIsNotFound(t *testing.T) {
	store := newFakeStore()
	store.addProperty(liveProperty(domain.BiddingOpen, nil))
	svc := newTestBidService(store)

	_, err := svc.SubmitBid(context.Background(), "tenant-2", "buyer-1", "prop-1", dec("800000"))
	assert.ErrorIs(t, err, domain.ErrPropertyNotFound)
}

func TestSubmitBidNonPositiveAmount(t *testing.T) {
	store := newFakeStore()
	store.addProperty(liveProperty(domain.BiddingOpen, nil))
	svc := newTestBidService(store)
	ctx := context.Background()

	for _, amount := range []decimal.Decimal{decimal.Zero, dec("-100")} {
		_, err := svc.SubmitBid(ctx, "tenant-1", "buyer-1", "prop-1", amount)
		appErr, ok := domain.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, 400, appErr.Status)
		assert.Equal(t, "VALIDATION", appErr.Code)
	}
	assert.Empty(t, store.bids["prop-1"])
}

func TestSubmitBidRejectsSubCentPrecision(t *testing.T) {
	store := newFakeStore()
	store.addProperty(liveProperty(domain.BiddingOpen, nil))
	svc := newTestBidService(store)
	svc.now = tickingClock(baseTime)
	ctx := context.Background()

	// A third decimal place would be rounded away by the amount column,
	// breaking the stored hash.
	_, err := svc.SubmitBid(ctx, "tenant-1", "buyer-1", "prop-1", dec("710000.555"))
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.Status)
	assert.Equal(t, "VALIDATION", appErr.Code)
	assert.Empty(t, store.bids["prop-1"])

	// Exactly two places is fine, as is a trailing zero beyond them.
	bid, err := svc.SubmitBid(ctx, "tenant-1", "buyer-1", "prop-1", dec("710000.50"))
	require.NoError(t, err)
	valid, err := svc.VerifyBid(ctx, "tenant-1", "prop-1", bid.ID)
	require.NoError(t, err)
	assert.True(t, valid)

	_, err = svc.SubmitBid(ctx, "tenant-1", "buyer-2", "prop-1", dec("710000.600"))
	assert.NoError(t, err)
}

func TestSubmitBidAuditFailureDoesNotBlock(t *testing.T) {
	store := newFakeStore()
	store.addProperty(liveProperty(domain.BiddingOpen, nil))
	store.auditErr = assert.AnError
	svc := newTestBidService(store)
	svc.now = tickingClock(baseTime)

	bid, err := svc.SubmitBid(context.Background(), "tenant-1", "buyer-1", "prop-1", dec("750000"))
	require.NoError(t, err)
	assert.NotNil(t, bid)
	assert.Len(t, store.bids["prop-1"], 1)
}

func TestVerifyBidDetectsTampering(t *testing.T) {
	store := newFakeStore()
	store.addProperty(liveProperty(domain.BiddingOpen, nil))
	svc := newTestBidService(store)
	svc.now = tickingClock(baseTime)
	ctx := context.Background()

	bid, err := svc.SubmitBid(ctx, "tenant-1", "buyer-1", "prop-1", dec("750000"))
	require.NoError(t, err)

	ok, err := svc.VerifyBid(ctx, "tenant-1", "prop-1", bid.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	store.bids["prop-1"][0].Amount = dec("1")
	ok, err = svc.VerifyBid(ctx, "tenant-1", "prop-1", bid.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.VerifyBid(ctx, "tenant-1", "prop-1", "missing")
	assert.ErrorIs(t, err, domain.ErrBidNotFound)
}

func submitSnapshotFixture(t *testing.T, store *fakeStore, mode domain.BiddingMode) {
	t.Helper()
	store.addProperty(liveProperty(mode, nil))
	svc := newTestBidService(store)
	svc.now = tickingClock(baseTime)
	ctx := context.Background()

	for _, step := range []struct {
		buyer  string
		amount string
	}{
		{"buyer-1", "700000"},
		{"buyer-2", "710000"},
		{"buyer-1", "720000"},
	} {
		_, err := svc.SubmitBid(ctx, "tenant-1", step.buyer, "prop-1", dec(step.amount))
		require.NoError(t, err)
	}
}

func TestGetBidSnapshotStaffSeesFullHistory(t *testing.T) {
	store := newFakeStore()
	submitSnapshotFixture(t, store, domain.BiddingOpen)
	svc := newTestBidService(store)

	snapshot, err := svc.GetBidSnapshot(context.Background(), "tenant-1", "prop-1", domain.RoleAgent, "agent-1")
	require.NoError(t, err)

	bids, ok := snapshot.([]*domain.Bid)
	require.True(t, ok)
	require.Len(t, bids, 3)
	// Newest first with buyer identity intact.
	assert.True(t, bids[0].Amount.Equal(dec("720000")))
	assert.Equal(t, "buyer-1", bids[0].BuyerUserID)
	assert.True(t, bids[2].Amount.Equal(dec("700000")))
}

func TestGetBidSnapshotBuyerOpenMode(t *testing.T) {
	store := newFakeStore()
	submitSnapshotFixture(t, store, domain.BiddingOpen)
	svc := newTestBidService(store)

	snapshot, err := svc.GetBidSnapshot(context.Background(), "tenant-1", "prop-1", domain.RoleBuyer, "buyer-2")
	require.NoError(t, err)

	open, ok := snapshot.(*domain.OpenBidSnapshot)
	require.True(t, ok)

	require.Len(t, open.OwnBids, 1)
	assert.True(t, open.OwnBids[0].Amount.Equal(dec("710000")))

	require.NotNil(t, open.HighestBid)
	assert.True(t, open.HighestBid.Equal(dec("720000")))

	require.Len(t, open.BidHistory, 3)
	for _, entry := range open.BidHistory {
		assert.NotContains(t, entry.Bidder, "buyer")
	}
	// buyer-1 bid first and third, so the labels fold to A, B, A.
	assert.Equal(t, "Bidder A", open.BidHistory[0].Bidder)
	assert.Equal(t, "Bidder B", open.BidHistory[1].Bidder)
	assert.Equal(t, "Bidder A", open.BidHistory[2].Bidder)
}

func TestGetBidSnapshotBuyerSealedMode(t *testing.T) {
	store := newFakeStore()
	submitSnapshotFixture(t, store, domain.BiddingSealed)
	svc := newTestBidService(store)

	snapshot, err := svc.GetBidSnapshot(context.Background(), "tenant-1", "prop-1", domain.RoleBuyer, "buyer-1")
	require.NoError(t, err)

	bids, ok := snapshot.([]*domain.Bid)
	require.True(t, ok)
	require.Len(t, bids, 2)
	for _, bid := range bids {
		assert.Equal(t, "buyer-1", bid.BuyerUserID)
	}
}

func TestGetBidSnapshotBuyerWithNoBids(t *testing.T) {
	store := newFakeStore()
	store.addProperty(liveProperty(domain.BiddingSealed, nil))
	svc := newTestBidService(store)

	snapshot, err := svc.GetBidSnapshot(context.Background(), "tenant-1", "prop-1", domain.RoleBuyer, "buyer-9")
	require.NoError(t, err)

	bids, ok := snapshot.([]*domain.Bid)
	require.True(t, ok)
	assert.NotNil(t, bids)
	assert.Empty(t, bids)
}

func TestGetBidSnapshotBuyerNonLiveIsNotFound(t *testing.T) {
	store := newFakeStore()
	prop := liveProperty(domain.BiddingOpen, nil)
	prop.Status = domain.StatusUnderOffer
	store.addProperty(prop)
	svc := newTestBidService(store)

	_, err := svc.GetBidSnapshot(context.Background(), "tenant-1", "prop-1", domain.RoleBuyer, "buyer-1")
	assert.ErrorIs(t, err, domain.ErrPropertyNotFound)

	// Staff still see the closed property's bids.
	_, err = svc.GetBidSnapshot(context.Background(), "tenant-1", "prop-1", domain.RoleTenantAdmin, "admin-1")
	assert.NoError(t, err)
}
