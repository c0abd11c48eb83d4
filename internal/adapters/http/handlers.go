package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/teamflow/core/internal/application/services"
	"github.com/teamflow/core/internal/domain/entities"
	"github.com/teamflow/core/internal/infrastructure/logger"
	"github.com/teamflow/core/internal/ports"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	authService *services.AuthService
	logger      *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// SignUp handles account creation
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req ports.SignUpRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	response, err := h.authService.SignUp(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("Sign-up failed", "error", err, "email", req.Email)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, response)
}

// SignIn handles user sign-in
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req ports.SignInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	response, err := h.authService.SignIn(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("Sign-in failed", "error", err, "email", req.Email)
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	return c.JSON(http.StatusOK, response)
}

// RefreshToken handles token refresh
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	var req RefreshTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	response, err := h.authService.RefreshToken(c.Request().Context(), req.RefreshToken)
	if err != nil {
		h.logger.Error("Token refresh failed", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid refresh token")
	}

	return c.JSON(http.StatusOK, response)
}

// SignOut revokes the actor's refresh tokens
func (h *AuthHandler) SignOut(c echo.Context) error {
	userID := getUserIDFromContext(c)

	if err := h.authService.SignOut(c.Request().Context(), userID); err != nil {
		h.logger.Error("Sign-out failed", "error", err, "user_id", userID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Sign-out failed")
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Signed out"})
}

// Utility functions and helper types

// httpError maps domain errors onto HTTP status codes. Anything outside the
// known error families is a 500.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, entities.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, entities.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, entities.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, entities.ErrValidation):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
}

func getUserIDFromContext(c echo.Context) uuid.UUID {
	user := c.Get("user")
	if user == nil {
		return uuid.Nil
	}

	if userStr, ok := user.(string); ok {
		userID, _ := uuid.Parse(userStr)
		return userID
	}

	return uuid.Nil
}

func pathUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return id, nil
}

func queryLimit(c echo.Context, fallback int) int {
	limitStr := c.QueryParam("limit")
	if limitStr == "" {
		return fallback
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		return fallback
	}
	return limit
}

// Request/Response types
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type ChangeRoleRequest struct {
	Role entities.Role `json:"role" validate:"required"`
}

type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,max=5000"`
}
