package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/DavidCLumin/estate-agent-crm/internal/domain"

	"github.com/shopspring/decimal"
)

type PropertyRepository struct {
	db *sql.DB
}

func NewPropertyRepository(db *sql.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

const propertyColumns = `id, tenant_id, title, address, eircode, description,
        price_guide, minimum_offer, min_increment, status, bidding_mode,
        bidding_deadline, created_by_id, assigned_agent_id, created_at, updated_at, deleted_at`

func (r *PropertyRepository) Create(ctx context.Context, p *domain.Property) error {
	query := `
        INSERT INTO properties (` + propertyColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		p.ID, p.TenantID, p.Title, p.Address, nullString(p.Eircode), p.Description,
		p.PriceGuide, nullDecimal(p.MinimumOffer), p.MinIncrement, string(p.Status), string(p.BiddingMode),
		nullTime(p.BiddingDeadline), p.CreatedByID, nullString(p.AssignedAgentID),
		p.CreatedAt, p.UpdatedAt, nullTime(p.DeletedAt))
	return err
}

func (r *PropertyRepository) GetByID(ctx context.Context, tenantID, propertyID string) (*domain.Property, error) {
	query := `
        SELECT ` + propertyColumns + `
        FROM properties
        WHERE id = ? AND tenant_id = ? AND deleted_at IS NULL
    `
	return r.scanOne(conn(ctx, r.db).QueryRowContext(ctx, query, propertyID, tenantID))
}

func (r *PropertyRepository) GetForUpdate(ctx context.Context, tenantID, propertyID string) (*domain.Property, error) {
	query := `
        SELECT ` + propertyColumns + `
        FROM properties
        WHERE id = ? AND tenant_id = ? AND deleted_at IS NULL
        FOR UPDATE
    `
	return r.scanOne(conn(ctx, r.db).QueryRowContext(ctx, query, propertyID, tenantID))
}

func (r *PropertyRepository) List(ctx context.Context, tenantID string, liveOnly bool) ([]*domain.Property, error) {
	query := `
        SELECT ` + propertyColumns + `
        FROM properties
        WHERE tenant_id = ? AND deleted_at IS NULL
    `
	args := []interface{}{tenantID}
	if liveOnly {
		query += ` AND status = ?`
		args = append(args, string(domain.StatusLive))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var properties []*domain.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		properties = append(properties, p)
	}
	return properties, rows.Err()
}

func (r *PropertyRepository) Update(ctx context.Context, p *domain.Property) error {
	query := `
        UPDATE properties
        SET title = ?, address = ?, eircode = ?, description = ?, price_guide = ?,
            minimum_offer = ?, min_increment = ?, status = ?, bidding_mode = ?,
            bidding_deadline = ?, assigned_agent_id = ?, updated_at = ?
        WHERE id = ? AND tenant_id = ? AND deleted_at IS NULL
    `
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		p.Title, p.Address, nullString(p.Eircode), p.Description, p.PriceGuide,
		nullDecimal(p.MinimumOffer), p.MinIncrement, string(p.Status), string(p.BiddingMode),
		nullTime(p.BiddingDeadline), nullString(p.AssignedAgentID), p.UpdatedAt,
		p.ID, p.TenantID)
	return err
}

func (r *PropertyRepository) SoftDelete(ctx context.Context, tenantID, propertyID string, at time.Time) error {
	query := `
        UPDATE properties SET deleted_at = ?, updated_at = ?
        WHERE id = ? AND tenant_id = ? AND deleted_at IS NULL
    `
	_, err := conn(ctx, r.db).ExecContext(ctx, query, at, at, propertyID, tenantID)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *PropertyRepository) scanOne(row *sql.Row) (*domain.Property, error) {
	p, err := scanProperty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPropertyNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func scanProperty(row rowScanner) (*domain.Property, error) {
	var (
		p             domain.Property
		status, mode  string
		eircode       sql.NullString
		minimumOffer  decimal.NullDecimal
		deadline      sql.NullTime
		assignedAgent sql.NullString
		deletedAt     sql.NullTime
	)

	err := row.Scan(
		&p.ID, &p.TenantID, &p.Title, &p.Address, &eircode, &p.Description,
		&p.PriceGuide, &minimumOffer, &p.MinIncrement, &status, &mode,
		&deadline, &p.CreatedByID, &assignedAgent, &p.CreatedAt, &p.UpdatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	p.Status = domain.PropertyStatus(status)
	p.BiddingMode = domain.BiddingMode(mode)
	p.Eircode = eircode.String
	p.AssignedAgentID = assignedAgent.String
	if minimumOffer.Valid {
		v := minimumOffer.Decimal
		p.MinimumOffer = &v
	}
	if deadline.Valid {
		t := deadline.Time
		p.BiddingDeadline = &t
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		p.DeletedAt = &t
	}
	return &p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
