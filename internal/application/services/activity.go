package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/teamflow/core/internal/domain/entities"
	"github.com/teamflow/core/internal/infrastructure/logger"
	"github.com/teamflow/core/internal/ports"
)

// appendActivity records an entry in the organization activity log. Activity
// is best effort and never fails the primary write.
func appendActivity(ctx context.Context, repo ports.ActivityRepository, log *logger.Logger, orgID, actorID uuid.UUID, entityType string, entityID uuid.UUID, action string, detail map[string]any) {
	entry := &entities.ActivityLog{
		OrganizationID: orgID,
		ActorID:        actorID,
		EntityType:     entityType,
		EntityID:       entityID,
		Action:         action,
	}
	if detail != nil {
		if raw, err := json.Marshal(detail); err == nil {
			entry.Detail = raw
		}
	}
	if err := repo.Append(ctx, entry); err != nil {
		log.Warn("Failed to record activity", "error", err, "org_id", orgID, "action", action)
	}
}
