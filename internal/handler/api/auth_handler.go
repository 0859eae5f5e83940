package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"furnistore/internal/middleware"
	"furnistore/internal/models"
	"furnistore/internal/service"
)

// AuthHandler serves registration, login and the signed-in account.
type AuthHandler struct {
	auth   *service.AuthService
	logger *zap.Logger
}

func NewAuthHandler(auth *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// Register handles POST /api/register and /api/auth/register.
func (h *AuthHandler) Register(c echo.Context) error {
	var req models.RegisterRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	sess, err := h.auth.Register(c.Request().Context(), req)
	if err != nil {
		return serviceError(c, h.logger, err, "Registration failed")
	}
	return successResponse(c, http.StatusCreated, "Registration successful", sess)
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	sess, err := h.auth.Login(c.Request().Context(), req)
	if err != nil {
		return serviceError(c, h.logger, err, "Login failed")
	}
	return successResponse(c, http.StatusOK, "Login successful", sess)
}

// Me handles GET /api/user and /api/auth/me.
func (h *AuthHandler) Me(c echo.Context) error {
	return successResponse(c, http.StatusOK, "", middleware.CurrentUser(c))
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.auth.Logout(c.Request().Context(), middleware.CurrentClaims(c)); err != nil {
		return serviceError(c, h.logger, err, "Logout failed")
	}
	return successResponse(c, http.StatusOK, "Logged out successfully", nil)
}

// UpdateProfile handles PUT /api/user/profile.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	var req models.UpdateProfileRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	user, err := h.auth.UpdateProfile(c.Request().Context(), middleware.CurrentUser(c), req)
	if err != nil {
		return serviceError(c, h.logger, err, "Failed to update profile")
	}
	return successResponse(c, http.StatusOK, "Profile updated successfully", user)
}

// ChangePassword handles PUT /api/user/password.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req models.ChangePasswordRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	if err := h.auth.ChangePassword(c.Request().Context(), middleware.CurrentUser(c), req); err != nil {
		return serviceError(c, h.logger, err, "Failed to change password")
	}
	return successResponse(c, http.StatusOK, "Password changed successfully", nil)
}
