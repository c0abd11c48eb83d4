package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/teamflow/core/internal/application/services"
	"github.com/teamflow/core/internal/infrastructure/logger"
	"github.com/teamflow/core/internal/ports"
)

// FeedHandler handles activity and notification requests
type FeedHandler struct {
	feedService *services.FeedService
	logger      *logger.Logger
}

// NewFeedHandler creates a new feed handler
func NewFeedHandler(feedService *services.FeedService, logger *logger.Logger) *FeedHandler {
	return &FeedHandler{
		feedService: feedService,
		logger:      logger,
	}
}

// ListActivity lists an organization's recent activity
func (h *FeedHandler) ListActivity(c echo.Context) error {
	orgID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	entries, err := h.feedService.ListActivity(c.Request().Context(), getUserIDFromContext(c), orgID, queryLimit(c, 50))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, entries)
}

// ListNotifications lists the actor's notifications
func (h *FeedHandler) ListNotifications(c echo.Context) error {
	items, err := h.feedService.ListNotifications(c.Request().Context(), getUserIDFromContext(c), queryLimit(c, 50))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, items)
}

// MarkNotificationRead marks one notification as read
func (h *FeedHandler) MarkNotificationRead(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	actorID := getUserIDFromContext(c)
	if err := h.feedService.MarkNotificationRead(c.Request().Context(), actorID, id); err != nil {
		h.logger.Error("Mark notification read failed", "error", err, "notification_id", id)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Notification read"})
}

// MarkAllNotificationsRead marks all of the actor's notifications as read
func (h *FeedHandler) MarkAllNotificationsRead(c echo.Context) error {
	actorID := getUserIDFromContext(c)
	if err := h.feedService.MarkAllNotificationsRead(c.Request().Context(), actorID); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "All notifications read"})
}
