package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/DavidCLumin/estate-agent-crm/internal/domain"
)

type BidRepository struct {
	db *sql.DB
}

func NewBidRepository(db *sql.DB) *BidRepository {
	return &BidRepository{db: db}
}

const bidColumns = `id, tenant_id, property_id, buyer_user_id, amount, bid_hash, created_at`

// Create is the only write on bids. Rows are never updated or deleted;
// the table is an append-only ledger.
func (r *BidRepository) Create(ctx context.Context, bid *domain.Bid) error {
	query := `
        INSERT INTO bids (` + bidColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		bid.ID, bid.TenantID, bid.PropertyID, bid.BuyerUserID,
		bid.Amount, bid.BidHash, bid.CreatedAt)
	return err
}

func (r *BidRepository) GetByID(ctx context.Context, tenantID, propertyID, bidID string) (*domain.Bid, error) {
	query := `
        SELECT ` + bidColumns + `
        FROM bids
        WHERE id = ? AND tenant_id = ? AND property_id = ?
    `
	bid, err := scanBid(conn(ctx, r.db).QueryRowContext(ctx, query, bidID, tenantID, propertyID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrBidNotFound
	}
	if err != nil {
		return nil, err
	}
	return bid, nil
}

func (r *BidRepository) Highest(ctx context.Context, tenantID, propertyID string) (*domain.Bid, error) {
	query := `
        SELECT ` + bidColumns + `
        FROM bids
        WHERE tenant_id = ? AND property_id = ?
        ORDER BY amount DESC, created_at ASC
        LIMIT 1
    `
	bid, err := scanBid(conn(ctx, r.db).QueryRowContext(ctx, query, tenantID, propertyID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return bid, nil
}

func (r *BidRepository) ListByProperty(ctx context.Context, tenantID, propertyID string) ([]*domain.Bid, error) {
	query := `
        SELECT ` + bidColumns + `
        FROM bids
        WHERE tenant_id = ? AND property_id = ?
        ORDER BY created_at ASC
    `
	return r.list(ctx, query, tenantID, propertyID)
}

func (r *BidRepository) ListByBuyer(ctx context.Context, tenantID, propertyID, buyerUserID string) ([]*domain.Bid, error) {
	query := `
        SELECT ` + bidColumns + `
        FROM bids
        WHERE tenant_id = ? AND property_id = ? AND buyer_user_id = ?
        ORDER BY created_at DESC
    `
	return r.list(ctx, query, tenantID, propertyID, buyerUserID)
}

func (r *BidRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.Bid, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []*domain.Bid
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, bid)
	}
	return bids, rows.Err()
}

func scanBid(row rowScanner) (*domain.Bid, error) {
	var bid domain.Bid
	err := row.Scan(&bid.ID, &bid.TenantID, &bid.PropertyID, &bid.BuyerUserID,
		&bid.Amount, &bid.BidHash, &bid.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &bid, nil
}
