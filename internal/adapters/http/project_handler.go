package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/teamflow/core/internal/application/services"
	"github.com/teamflow/core/internal/infrastructure/logger"
	"github.com/teamflow/core/internal/ports"
)

// ProjectHandler handles project and section requests
type ProjectHandler struct {
	projectService *services.ProjectService
	logger         *logger.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projectService *services.ProjectService, logger *logger.Logger) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		logger:         logger,
	}
}

// CreateProject handles project creation
func (h *ProjectHandler) CreateProject(c echo.Context) error {
	var req ports.CreateProjectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	actorID := getUserIDFromContext(c)
	project, err := h.projectService.CreateProject(c.Request().Context(), actorID, req)
	if err != nil {
		h.logger.Error("Create project failed", "error", err, "actor_id", actorID)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, project)
}

// GetProject handles getting a project by ID
func (h *ProjectHandler) GetProject(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	project, err := h.projectService.GetProject(c.Request().Context(), getUserIDFromContext(c), id)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, project)
}

// UpdateProject handles project updates
func (h *ProjectHandler) UpdateProject(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	var req ports.UpdateProjectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	actorID := getUserIDFromContext(c)
	project, err := h.projectService.UpdateProject(c.Request().Context(), actorID, id, req)
	if err != nil {
		h.logger.Error("Update project failed", "error", err, "project_id", id)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, project)
}

// DeleteProject handles project deletion
func (h *ProjectHandler) DeleteProject(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	actorID := getUserIDFromContext(c)
	if err := h.projectService.DeleteProject(c.Request().Context(), actorID, id); err != nil {
		h.logger.Error("Delete project failed", "error", err, "project_id", id)
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// ListProjects lists an organization's projects
func (h *ProjectHandler) ListProjects(c echo.Context) error {
	orgID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	projects, err := h.projectService.ListProjects(c.Request().Context(), getUserIDFromContext(c), orgID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, projects)
}

// ListProjectsWithProgress lists projects with task completion counts
func (h *ProjectHandler) ListProjectsWithProgress(c echo.Context) error {
	orgID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	limit := queryLimit(c, 50)
	projects, err := h.projectService.ListProjectsWithProgress(c.Request().Context(), getUserIDFromContext(c), orgID, limit)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, projects)
}

// ListSections lists a project's sections
func (h *ProjectHandler) ListSections(c echo.Context) error {
	projectID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	sections, err := h.projectService.ListSections(c.Request().Context(), getUserIDFromContext(c), projectID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, sections)
}

// CreateSection adds a section to a project
func (h *ProjectHandler) CreateSection(c echo.Context) error {
	projectID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	var req ports.CreateSectionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	actorID := getUserIDFromContext(c)
	section, err := h.projectService.CreateSection(c.Request().Context(), actorID, projectID, req)
	if err != nil {
		h.logger.Error("Create section failed", "error", err, "project_id", projectID)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, section)
}

// DeleteSection removes a section
func (h *ProjectHandler) DeleteSection(c echo.Context) error {
	sectionID, err := pathUUID(c, "sectionId")
	if err != nil {
		return err
	}

	actorID := getUserIDFromContext(c)
	if err := h.projectService.DeleteSection(c.Request().Context(), actorID, sectionID); err != nil {
		h.logger.Error("Delete section failed", "error", err, "section_id", sectionID)
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}
