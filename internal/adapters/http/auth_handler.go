package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/kanban/internal/infrastructure/logger"
	"github.com/taskmaster/kanban/internal/ports"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	authService ports.AuthService
	logger      *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService ports.AuthService, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// SignUp handles account creation
// @Summary Create an account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.SignUpRequest true "Sign up form"
// @Success 201 {object} ports.AuthResponse
// @Failure 400 {object} ports.ErrorResponse
// @Failure 409 {object} ports.ErrorResponse
// @Router /auth/signup [post]
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
		h.logger.Warnw("Sign up failed", "error", err, "email", req.Email)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, response)
}

// SignIn handles user sign in
// @Summary Sign in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.SignInRequest true "Credentials"
// @Success 200 {object} ports.AuthResponse
// @Failure 401 {object} ports.ErrorResponse
// @Router /auth/signin [post]
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
		h.logger.Warnw("Sign in failed", "error", err, "email", req.Email)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, response)
}

// Refresh handles token refresh
// @Summary Refresh tokens
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.RefreshRequest true "Refresh token"
// @Success 200 {object} ports.AuthResponse
// @Failure 401 {object} ports.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req ports.RefreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	response, err := h.authService.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		h.logger.Warnw("Token refresh failed", "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, response)
}

// SignOut revokes the caller's tokens and closes their live streams
// @Summary Sign out
// @Tags auth
// @Produce json
// @Success 200 {object} ports.MessageResponse
// @Security BearerAuth
// @Router /auth/signout [post]
func (h *AuthHandler) SignOut(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	if err := h.authService.SignOut(c.Request().Context(), userID); err != nil {
		h.logger.Errorw("Sign out failed", "error", err, "user_id", userID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Sign out failed")
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Signed out successfully"})
}
