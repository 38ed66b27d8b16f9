package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BuyerPropertyView is the buyer-safe field subset of a Property. The
// hidden minimum offer is absent from the type itself, so a new endpoint
// cannot forget to strip it.
type BuyerPropertyView struct {
	ID              string          `json:"id"`
	TenantID        string          `json:"tenant_id"`
	Title           string          `json:"title"`
	Address         string          `json:"address"`
	Eircode         string          `json:"eircode,omitempty"`
	Description     string          `json:"description"`
	PriceGuide      decimal.Decimal `json:"price_guide"`
	MinIncrement    int64           `json:"min_increment"`
	Status          PropertyStatus  `json:"status"`
	BiddingMode     BiddingMode     `json:"bidding_mode"`
	BiddingDeadline *time.Time      `json:"bidding_deadline,omitempty"`
	AssignedAgentID string          `json:"assigned_agent_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (p *Property) BuyerView() *BuyerPropertyView {
	return &BuyerPropertyView{
		ID:              p.ID,
		TenantID:        p.TenantID,
		Title:           p.Title,
		Address:         p.Address,
		Eircode:         p.Eircode,
		Description:     p.Description,
		PriceGuide:      p.PriceGuide,
		MinIncrement:    p.MinIncrement,
		Status:          p.Status,
		BiddingMode:     p.BiddingMode,
		BiddingDeadline: p.BiddingDeadline,
		AssignedAgentID: p.AssignedAgentID,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// ProjectProperty picks the serialization for the caller's role.
func ProjectProperty(p *Property, role Role) interface{} {
	if role == RoleBuyer {
		return p.BuyerView()
	}
	return p
}

func ProjectProperties(properties []*Property, role Role) interface{} {
	if role != RoleBuyer {
		return properties
	}
	views := make([]*BuyerPropertyView, 0, len(properties))
	for _, p := range properties {
		views = append(views, p.BuyerView())
	}
	return views
}

// BidHistoryEntry is one anonymized line of an OPEN-mode bid history.
type BidHistoryEntry struct {
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
	Bidder    string          `json:"bidder"`
}

// OpenBidSnapshot is the buyer view of an OPEN-mode property's bids.
type OpenBidSnapshot struct {
	OwnBids    []*Bid            `json:"own_bids"`
	HighestBid *decimal.Decimal  `json:"highest_bid"`
	BidHistory []BidHistoryEntry `json:"bid_history"`
}

// AnonymizeBidHistory folds over bids in chronological order, assigning
// "Bidder A", "Bidder B", ... on first sight of each buyer. The mapping
// is rebuilt per request so labels never leak identity across requests.
func AnonymizeBidHistory(bids []*Bid) []BidHistoryEntry {
	labels := make(map[string]string, len(bids))
	history := make([]BidHistoryEntry, 0, len(bids))
	for _, b := range bids {
		label, ok := labels[b.BuyerUserID]
		if !ok {
			label = "Bidder " + string(rune('A'+len(labels)))
			labels[b.BuyerUserID] = label
		}
		history = append(history, BidHistoryEntry{
			Amount:    b.Amount,
			CreatedAt: b.CreatedAt,
			Bidder:    label,
		})
	}
	return history
}
