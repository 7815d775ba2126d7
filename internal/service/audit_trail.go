package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/noah-isme/guardforce-api/internal/models"
)

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type auditEntry struct {
	ActorID    string
	Action     string
	Resource   string
	ResourceID string
	Meta       models.RequestMeta
	Values     map[string]interface{}
}

// recordAudit persists entry and logs, never returns, a write failure.
func recordAudit(ctx context.Context, audit auditLogger, logger *zap.Logger, entry auditEntry) {
	if audit == nil {
		return
	}
	log := &models.AuditLog{
		Action:    entry.Action,
		Resource:  entry.Resource,
		IPAddress: entry.Meta.IP,
		UserAgent: entry.Meta.UserAgent,
	}
	if entry.ActorID != "" {
		actor := entry.ActorID
		log.UserID = &actor
	}
	if entry.ResourceID != "" {
		id := entry.ResourceID
		log.ResourceID = &id
	}
	if entry.Values != nil {
		if raw, err := json.Marshal(entry.Values); err == nil {
			log.NewValues = raw
		}
	}
	if err := audit.CreateAuditLog(ctx, log); err != nil {
		logger.Warn("failed to persist audit log", zap.String("action", entry.Action), zap.Error(err))
	}
}
