package mysql

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/DavidCLumin/estate-agent-crm/internal/domain"
)

type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Record(ctx context.Context, event *domain.AuditEvent) error {
	var metadata interface{}
	if event.Metadata != nil {
		raw, err := json.Marshal(event.Metadata)
		if err != nil {
			return err
		}
		metadata = string(raw)
	}

	query := `
        INSERT INTO audit_logs (id, tenant_id, user_id, action, entity, entity_id, metadata, ip_address, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		event.ID, nullString(event.TenantID), nullString(event.UserID),
		event.Action, event.Entity, nullString(event.EntityID),
		metadata, nullString(event.IPAddress), event.CreatedAt)
	return err
}

func (r *AuditRepository) ListRecent(ctx context.Context, tenantID string, limit int) ([]*domain.AuditEvent, error) {
	query := `
        SELECT id, tenant_id, user_id, action, entity, entity_id, metadata, ip_address, created_at
        FROM audit_logs
        WHERE tenant_id = ?
        ORDER BY created_at DESC
        LIMIT ?
    `
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.AuditEvent
	for rows.Next() {
		var (
			event        domain.AuditEvent
			tenant, user sql.NullString
			entityID, ip sql.NullString
			metadata     sql.NullString
		)
		err := rows.Scan(&event.ID, &tenant, &user, &event.Action, &event.Entity,
			&entityID, &metadata, &ip, &event.CreatedAt)
		if err != nil {
			return nil, err
		}
		event.TenantID = tenant.String
		event.UserID = user.String
		event.EntityID = entityID.String
		event.IPAddress = ip.String
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &event.Metadata); err != nil {
				return nil, err
			}
		}
		events = append(events, &event)
	}
	return events, rows.Err()
}
