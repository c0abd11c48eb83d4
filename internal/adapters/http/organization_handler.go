package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/teamflow/core/internal/application/services"
	"github.com/teamflow/core/internal/infrastructure/logger"
	"github.com/teamflow/core/internal/ports"
)

// OrganizationHandler handles organization and member requests
type OrganizationHandler struct {
	orgService *services.OrganizationService
	logger     *logger.Logger
}

// NewOrganizationHandler creates a new organization handler
func NewOrganizationHandler(orgService *services.OrganizationService, logger *logger.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		orgService: orgService,
		logger:     logger,
	}
}

// CreateOrganization handles organization creation
func (h *OrganizationHandler) CreateOrganization(c echo.Context) error {
	var req ports.CreateOrganizationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	actorID := getUserIDFromContext(c)
	org, err := h.orgService.CreateOrganization(c.Request().Context(), actorID, req)
	if err != nil {
		h.logger.Error("Create organization failed", "error", err, "actor_id", actorID)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, org)
}

// GetOrganization handles getting an organization by ID
func (h *OrganizationHandler) GetOrganization(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	org, err := h.orgService.GetOrganization(c.Request().Context(), getUserIDFromContext(c), id)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, org)
}

// UpdateOrganization handles organization updates
func (h *OrganizationHandler) UpdateOrganization(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	var req ports.UpdateOrganizationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	actorID := getUserIDFromContext(c)
	org, err := h.orgService.UpdateOrganization(c.Request().Context(), actorID, id, req)
	if err != nil {
		h.logger.Error("Update organization failed", "error", err, "org_id", id)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, org)
}

// DeleteOrganization handles organization deletion
func (h *OrganizationHandler) DeleteOrganization(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	actorID := getUserIDFromContext(c)
	if err := h.orgService.DeleteOrganization(c.Request().Context(), actorID, id); err != nil {
		h.logger.Error("Delete organization failed", "error", err, "org_id", id)
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// ListOrganizations lists the actor's organizations
func (h *OrganizationHandler) ListOrganizations(c echo.Context) error {
	orgs, err := h.orgService.ListOrganizations(c.Request().Context(), getUserIDFromContext(c))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, orgs)
}

// ListMembers lists an organization's members
func (h *OrganizationHandler) ListMembers(c echo.Context) error {
	orgID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	members, err := h.orgService.ListMembers(c.Request().Context(), getUserIDFromContext(c), orgID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, members)
}

// AddMember adds a user to an organization
func (h *OrganizationHandler) AddMember(c echo.Context) error {
	orgID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	var req ports.AddMemberRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	actorID := getUserIDFromContext(c)
	member, err := h.orgService.AddMember(c.Request().Context(), actorID, orgID, req)
	if err != nil {
		h.logger.Error("Add member failed", "error", err, "org_id", orgID)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, member)
}

// ChangeMemberRole changes a member's role
func (h *OrganizationHandler) ChangeMemberRole(c echo.Context) error {
	orgID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	userID, err := pathUUID(c, "userId")
	if err != nil {
		return err
	}

	var req ChangeRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	actorID := getUserIDFromContext(c)
	if err := h.orgService.ChangeMemberRole(c.Request().Context(), actorID, orgID, userID, req.Role); err != nil {
		h.logger.Error("Change member role failed", "error", err, "org_id", orgID, "user_id", userID)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Role updated"})
}

// RemoveMember removes a user from an organization
func (h *OrganizationHandler) RemoveMember(c echo.Context) error {
	orgID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	userID, err := pathUUID(c, "userId")
	if err != nil {
		return err
	}

	actorID := getUserIDFromContext(c)
	if err := h.orgService.RemoveMember(c.Request().Context(), actorID, orgID, userID); err != nil {
		h.logger.Error("Remove member failed", "error", err, "org_id", orgID, "user_id", userID)
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}
