package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/teamflow/core/internal/application/services"
	"github.com/teamflow/core/internal/domain/entities"
	"github.com/teamflow/core/internal/infrastructure/logger"
	"github.com/teamflow/core/internal/ports"
)

// TaskHandler handles task, field and comment requests
type TaskHandler struct {
	taskService    *services.TaskService
	commentService *services.CommentService
	logger         *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService *services.TaskService, commentService *services.CommentService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService:    taskService,
		commentService: commentService,
		logger:         logger,
	}
}

// CreateTask handles task creation
func (h *TaskHandler) CreateTask(c echo.Context) error {
	var req ports.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	actorID := getUserIDFromContext(c)
	task, err := h.taskService.CreateTask(c.Request().Context(), actorID, req)
	if err != nil {
		h.logger.Error("Create task failed", "error", err, "actor_id", actorID)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, task)
}

// GetTask handles getting a task by ID
func (h *TaskHandler) GetTask(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	task, err := h.taskService.GetTask(c.Request().Context(), getUserIDFromContext(c), id)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, task)
}

// UpdateTask handles partial task updates
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	var req ports.UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	actorID := getUserIDFromContext(c)
	task, err := h.taskService.UpdateTask(c.Request().Context(), actorID, id, req)
	if err != nil {
		h.logger.Error("Update task failed", "error", err, "task_id", id)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, task)
}

// UpdateTaskStatus transitions a task's status
func (h *TaskHandler) UpdateTaskStatus(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		Status string `json:"status" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	actorID := getUserIDFromContext(c)
	task, err := h.taskService.UpdateTaskStatus(c.Request().Context(), actorID, id, req.Status)
	if err != nil {
		h.logger.Error("Update task status failed", "error", err, "task_id", id)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, task)
}

// DeleteTask handles task deletion
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	actorID := getUserIDFromContext(c)
	if err := h.taskService.DeleteTask(c.Request().Context(), actorID, id); err != nil {
		h.logger.Error("Delete task failed", "error", err, "task_id", id)
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// ListTasks lists an organization's tasks with optional filters
func (h *TaskHandler) ListTasks(c echo.Context) error {
	orgID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	filter := ports.TaskFilter{Limit: queryLimit(c, 100)}

	if status := c.QueryParam("status"); status != "" {
		filter.Status = &status
	}
	if priority := c.QueryParam("priority"); priority != "" {
		p := entities.Priority(priority)
		if !p.IsValid() {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid priority parameter")
		}
		filter.Priority = &p
	}
	if tag := c.QueryParam("tag"); tag != "" {
		filter.Tag = &tag
	}
	if search := c.QueryParam("search"); search != "" {
		filter.Search = &search
	}
	if dueBefore := c.QueryParam("due_before"); dueBefore != "" {
		t, err := time.Parse(time.RFC3339, dueBefore)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid due_before parameter")
		}
		filter.DueBefore = &t
	}
	if offsetStr := c.QueryParam("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid offset parameter")
		}
		filter.Offset = offset
	}

	tasks, err := h.taskService.ListTasks(c.Request().Context(), getUserIDFromContext(c), orgID, filter)
	if err != nil {
		return httpError(err)
	}

	response := ports.PaginatedResponse[*entities.Task]{
		Data:  tasks,
		Total: len(tasks),
		Limit: filter.Limit,
	}

	return c.JSON(http.StatusOK, response)
}

// ListProjectTasks lists a project's tasks in board order
func (h *TaskHandler) ListProjectTasks(c echo.Context) error {
	projectID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	tasks, err := h.taskService.ListProjectTasks(c.Request().Context(), getUserIDFromContext(c), projectID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, tasks)
}

// MoveTask relocates a task on a project board
func (h *TaskHandler) MoveTask(c echo.Context) error {
	var req ports.MoveTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	actorID := getUserIDFromContext(c)
	if err := h.taskService.MoveTask(c.Request().Context(), actorID, req); err != nil {
		h.logger.Error("Move task failed", "error", err, "task_id", req.TaskID)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Task moved"})
}

// ListFields lists an organization's custom field definitions
func (h *TaskHandler) ListFields(c echo.Context) error {
	orgID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	fields, err := h.taskService.ListFields(c.Request().Context(), getUserIDFromContext(c), orgID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, fields)
}

// CreateField defines a custom field
func (h *TaskHandler) CreateField(c echo.Context) error {
	orgID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	var req ports.CreateFieldRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	actorID := getUserIDFromContext(c)
	field, err := h.taskService.CreateField(c.Request().Context(), actorID, orgID, req)
	if err != nil {
		h.logger.Error("Create field failed", "error", err, "org_id", orgID)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, field)
}

// SetFieldValue upserts a custom field value on a task
func (h *TaskHandler) SetFieldValue(c echo.Context) error {
	var req ports.SetFieldValueRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	actorID := getUserIDFromContext(c)
	if err := h.taskService.SetFieldValue(c.Request().Context(), actorID, req); err != nil {
		h.logger.Error("Set field value failed", "error", err, "task_id", req.TaskID)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Field value set"})
}

// ListTaskComments lists a task's comments
func (h *TaskHandler) ListTaskComments(c echo.Context) error {
	taskID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	comments, err := h.commentService.ListTaskComments(c.Request().Context(), getUserIDFromContext(c), taskID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, comments)
}

// CreateComment adds a comment to a task
func (h *TaskHandler) CreateComment(c echo.Context) error {
	var req ports.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	actorID := getUserIDFromContext(c)
	comment, err := h.commentService.CreateComment(c.Request().Context(), actorID, req)
	if err != nil {
		h.logger.Error("Create comment failed", "error", err, "task_id", req.TaskID)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, comment)
}

// UpdateComment edits a comment
func (h *TaskHandler) UpdateComment(c echo.Context) error {
	id, err := pathUUID(c, "commentId")
	if err != nil {
		return err
	}

	var req UpdateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	actorID := getUserIDFromContext(c)
	comment, err := h.commentService.UpdateComment(c.Request().Context(), actorID, id, req.Content)
	if err != nil {
		h.logger.Error("Update comment failed", "error", err, "comment_id", id)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, comment)
}

// DeleteComment removes a comment
func (h *TaskHandler) DeleteComment(c echo.Context) error {
	id, err := pathUUID(c, "commentId")
	if err != nil {
		return err
	}

	actorID := getUserIDFromContext(c)
	if err := h.commentService.DeleteComment(c.Request().Context(), actorID, id); err != nil {
		h.logger.Error("Delete comment failed", "error", err, "comment_id", id)
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}
