package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/teamflow/core/internal/application/services"
	"github.com/teamflow/core/internal/infrastructure/logger"
	"github.com/teamflow/core/internal/ports"
)

// TimeLogHandler handles time tracking requests
type TimeLogHandler struct {
	timeLogService *services.TimeLogService
	logger         *logger.Logger
}

// NewTimeLogHandler creates a new time log handler
func NewTimeLogHandler(timeLogService *services.TimeLogService, logger *logger.Logger) *TimeLogHandler {
	return &TimeLogHandler{
		timeLogService: timeLogService,
		logger:         logger,
	}
}

// CreateTimeLog records time against a task
func (h *TimeLogHandler) CreateTimeLog(c echo.Context) error {
	var req ports.CreateTimeLogRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	actorID := getUserIDFromContext(c)
	log, err := h.timeLogService.CreateTimeLog(c.Request().Context(), actorID, req)
	if err != nil {
		h.logger.Error("Create time log failed", "error", err, "task_id", req.TaskID)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, log)
}

// UpdateTimeLog adjusts a time log
func (h *TimeLogHandler) UpdateTimeLog(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	var req ports.UpdateTimeLogRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	actorID := getUserIDFromContext(c)
	log, err := h.timeLogService.UpdateTimeLog(c.Request().Context(), actorID, id, req)
	if err != nil {
		h.logger.Error("Update time log failed", "error", err, "time_log_id", id)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, log)
}

// DeleteTimeLog removes a time log
func (h *TimeLogHandler) DeleteTimeLog(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	actorID := getUserIDFromContext(c)
	if err := h.timeLogService.DeleteTimeLog(c.Request().Context(), actorID, id); err != nil {
		h.logger.Error("Delete time log failed", "error", err, "time_log_id", id)
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// ListTaskTimeLogs lists a task's time logs
func (h *TimeLogHandler) ListTaskTimeLogs(c echo.Context) error {
	taskID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	logs, err := h.timeLogService.ListTaskTimeLogs(c.Request().Context(), getUserIDFromContext(c), taskID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, logs)
}

// StopOpenTimeLog closes the actor's open timer
func (h *TimeLogHandler) StopOpenTimeLog(c echo.Context) error {
	actorID := getUserIDFromContext(c)

	log, err := h.timeLogService.StopOpenTimeLog(c.Request().Context(), actorID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, log)
}
