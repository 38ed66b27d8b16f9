package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// BidHashTimeFormat is the RFC3339 millisecond UTC form the hash input
// uses for the bid's creation time.
const BidHashTimeFormat = "2006-01-02T15:04:05.000Z"

// BuildBidHash derives the tamper-evident digest stored on every bid:
// sha256 over tenant, property, buyer, amount, creation time and the
// server-only secret, colon-joined. Anyone holding the secret can later
// verify a bid row was not altered; without it the digest is not
// derivable by a client.
func BuildBidHash(tenantID, propertyID, buyerUserID, amount string, createdAt time.Time, secret string) string {
	raw := strings.Join([]string{
		tenantID,
		propertyID,
		buyerUserID,
		amount,
		createdAt.UTC().Format(BidHashTimeFormat),
		secret,
	}, ":")
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// VerifyBidHash recomputes the digest for a bid and compares it against
// the stored value.
func VerifyBidHash(bid *Bid, secret string) bool {
	expected := BuildBidHash(bid.TenantID, bid.PropertyID, bid.BuyerUserID, bid.Amount.String(), bid.CreatedAt, secret)
	return expected == bid.BidHash
}
