package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/teamflow/core/internal/infrastructure/logger"
	"github.com/teamflow/core/internal/infrastructure/realtime"
)

// tables a stream subscription may watch
var streamTables = map[string]bool{
	"organizations": true,
	"memberships":   true,
	"projects":      true,
	"tasks":         true,
	"time_logs":     true,
	"comments":      true,
	"activity_logs": true,
	"notifications": true,
}

// StreamHandler serves the change feed over server-sent events
type StreamHandler struct {
	feed   *realtime.Feed
	logger *logger.Logger
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(feed *realtime.Feed, logger *logger.Logger) *StreamHandler {
	return &StreamHandler{
		feed:   feed,
		logger: logger,
	}
}

// Stream pushes change events as SSE. Each event is an invalidation hint in
// "table:scope" form; clients refetch rather than patch from it. Query
// params: repeated "table" selects tables, "scope" narrows to one entity
// scope (organization, task or user ID depending on the table).
func (h *StreamHandler) Stream(c echo.Context) error {
	tables := c.QueryParams()["table"]
	if len(tables) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "At least one table parameter is required")
	}
	for _, table := range tables {
		if !streamTables[table] {
			return echo.NewHTTPError(http.StatusBadRequest, "Unknown table: "+table)
		}
	}
	scope := c.QueryParam("scope")

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	// One merged channel across all requested tables.
	merged := make(chan realtime.Event, 16)
	cancels := make([]func(), 0, len(tables))
	for _, table := range tables {
		events, cancel := h.feed.Subscribe(table, scope)
		cancels = append(cancels, cancel)
		go func() {
			for ev := range events {
				select {
				case merged <- ev:
				default:
				}
			}
		}()
	}
	defer func() {
		for _, cancel := range cancels {
			cancel()
		}
	}()

	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-merged:
			if _, err := fmt.Fprintf(res, "event: change\ndata: %s\n\n", ev.String()); err != nil {
				return nil
			}
			res.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(res, ": keepalive\n\n"); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
