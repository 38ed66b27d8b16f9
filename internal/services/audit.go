package services

import (
	"context"
	"time"

	"github.com/DavidCLumin/estate-agent-crm/internal/domain"
	"github.com/DavidCLumin/estate-agent-crm/pkg/logger"

	"github.com/google/uuid"
)

// recordAudit writes an audit event, logging instead of failing when the
// write does not succeed. Audit is best-effort everywhere: a failed
// audit insert must never roll back the operation that emitted it.
func recordAudit(ctx context.Context, audit domain.AuditRepository, log logger.Logger, event *domain.AuditEvent) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if err := audit.Record(ctx, event); err != nil {
		log.Warn("Failed to record audit event",
			"action", event.Action, "entity", event.Entity, "entity_id", event.EntityID, "error", err)
	}
}
