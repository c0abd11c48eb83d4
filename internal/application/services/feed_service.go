package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/teamflow/core/internal/domain/entities"
	"github.com/teamflow/core/internal/infrastructure/logger"
	"github.com/teamflow/core/internal/ports"
)

// FeedService serves the activity log and per-user notifications
type FeedService struct {
	activityRepo     ports.ActivityRepository
	notificationRepo ports.NotificationRepository
	orgRepo          ports.OrganizationRepository
	logger           *logger.Logger
}

// NewFeedService creates a new feed service
func NewFeedService(activityRepo ports.ActivityRepository, notificationRepo ports.NotificationRepository, orgRepo ports.OrganizationRepository, logger *logger.Logger) *FeedService {
	return &FeedService{
		activityRepo:     activityRepo,
		notificationRepo: notificationRepo,
		orgRepo:          orgRepo,
		logger:           logger,
	}
}

// ListActivity returns the organization's most recent activity entries
func (s *FeedService) ListActivity(ctx context.Context, actorID, orgID uuid.UUID, limit int) ([]*entities.ActivityLog, error) {
	if _, err := membershipFor(ctx, s.orgRepo, orgID, actorID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.activityRepo.ListByOrganization(ctx, orgID, limit)
}

// ListNotifications returns the actor's most recent notifications
func (s *FeedService) ListNotifications(ctx context.Context, actorID uuid.UUID, limit int) ([]*entities.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.notificationRepo.ListForUser(ctx, actorID, limit)
}

// MarkNotificationRead marks one of the actor's notifications as read. The
// write is scoped to the actor so nobody can acknowledge another user's
// notifications.
func (s *FeedService) MarkNotificationRead(ctx context.Context, actorID, id uuid.UUID) error {
	return s.notificationRepo.MarkRead(ctx, id, actorID)
}

// MarkAllNotificationsRead marks every unread notification of the actor
func (s *FeedService) MarkAllNotificationsRead(ctx context.Context, actorID uuid.UUID) error {
	return s.notificationRepo.MarkAllRead(ctx, actorID)
}
