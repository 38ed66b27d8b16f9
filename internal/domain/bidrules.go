package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ValidateBidSubmission decides whether a proposed amount is admissible
// against the property's rules and the current highest bid. Rules are
// evaluated in order and the first failure wins:
//
//  1. deadline: past-deadline submissions are BIDDING_CLOSED
//  2. floor: amounts under the hidden minimum offer are BELOW_MINIMUM_OFFER
//  3. strict increase, OPEN mode only: amounts not exceeding the current
//     highest bid are MUST_EXCEED_HIGHEST
//
// latestBid is nil for the first bid on a property, which skips rule 3.
// SEALED mode never compares against other bids, including the
// submitter's own earlier ones.
func ValidateBidSubmission(property *Property, latestBid *Bid, amount decimal.Decimal, now time.Time) error {
	if property.BiddingDeadline != nil && now.After(*property.BiddingDeadline) {
		return ErrBiddingClosed
	}

	floor := decimal.Zero
	if property.MinimumOffer != nil {
		floor = *property.MinimumOffer
	}
	if amount.LessThan(floor) {
		return ErrBelowMinimumOffer
	}

	if property.BiddingMode == BiddingOpen && latestBid != nil {
		if amount.LessThanOrEqual(latestBid.Amount) {
			return ErrMustExceedHighest
		}
	}

	return nil
}
