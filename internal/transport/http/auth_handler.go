package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ibedc/change-management-backend/internal/service"
	"github.com/ibedc/change-management-backend/internal/util"
)

// RegisterAuthRoutes mounts the authentication and password-reset endpoints.
func RegisterAuthRoutes(e *echo.Echo, auth *service.AuthService) {
	h := &authHandler{auth: auth}

	e.POST("/api/register", h.register)
	e.POST("/api/login", h.login)
	e.POST("/api/forgot-password", h.forgotPassword)
	e.POST("/api/verify-code", h.verifyCode)
	e.POST("/api/reset-password", h.resetPassword)

	e.GET("/api/me", h.me, RequireAuth(auth))
}

type authHandler struct {
	auth *service.AuthService
}

// register godoc
// @Summary Register a new account
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "signup fields"
// @Success 201 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/register [post]
func (h *authHandler) register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	_, err := h.auth.Register(c.Request().Context(), req.Email, req.FullName, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			return c.JSON(http.StatusBadRequest, util.Message("User already exists"))
		}
		return serverError(c, err)
	}
	return c.JSON(http.StatusCreated, util.Message("User registered successfully"))
}

// login godoc
// @Summary Authenticate and issue a token
// @Accept json
// @Produce json
// @Param body body LoginRequest true "login fields"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/login [post]
func (h *authHandler) login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	result, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountNotFound):
			return c.JSON(http.StatusNotFound, util.Message("User not found"))
		case errors.Is(err, service.ErrInvalidCredentials):
			return c.JSON(http.StatusBadRequest, util.Message("Invalid credentials"))
		}
		return serverError(c, err)
	}
	account := result.Account
	return c.JSON(http.StatusOK, LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      toAuthUser(account.ID.String(), account.Email, account.FullName, account.CreatedAt),
	})
}

// forgotPassword godoc
// @Summary Request a password-reset code
// @Accept json
// @Produce json
// @Param body body ForgotPasswordRequest true "account email"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/forgot-password [post]
func (h *authHandler) forgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	err := h.auth.RequestPasswordReset(c.Request().Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			return c.JSON(http.StatusBadRequest, util.Message("Invalid email format"))
		case errors.Is(err, service.ErrAccountNotFound):
			return c.JSON(http.StatusNotFound, util.Message("User not found"))
		}
		return serverError(c, err)
	}
	return c.JSON(http.StatusOK, util.Message("Verification code sent"))
}

// verifyCode godoc
// @Summary Verify a password-reset code
// @Accept json
// @Produce json
// @Param body body VerifyCodeRequest true "email and code"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/verify-code [post]
func (h *authHandler) verifyCode(c echo.Context) error {
	var req VerifyCodeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	err := h.auth.VerifyResetCode(c.Request().Context(), req.Email, req.Code)
	if err != nil {
		if errors.Is(err, service.ErrResetCodeInvalid) {
			return c.JSON(http.StatusBadRequest, util.Message("Invalid or expired verification code"))
		}
		return serverError(c, err)
	}
	return c.JSON(http.StatusOK, util.Message("Code verified, proceed with password reset"))
}

// resetPassword godoc
// @Summary Complete a password reset
// @Accept json
// @Produce json
// @Param body body ResetPasswordRequest true "email, code and new password"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/reset-password [post]
func (h *authHandler) resetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	err := h.auth.ConfirmPasswordReset(c.Request().Context(), req.Email, req.Code, req.Password, req.ConfirmPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPasswordMismatch):
			return c.JSON(http.StatusUnauthorized, util.Message("Passwords do not match"))
		case errors.Is(err, service.ErrResetCodeInvalid):
			return c.JSON(http.StatusBadRequest, util.Message("Invalid or expired verification code"))
		}
		return serverError(c, err)
	}
	return c.JSON(http.StatusOK, util.Message("Password has been reset"))
}

// me godoc
// @Summary Current authenticated account
// @Produce json
// @Security BearerAuth
// @Success 200 {object} AuthUser
// @Failure 401 {object} ErrorResponse
// @Router /api/me [get]
func (h *authHandler) me(c echo.Context) error {
	account, ok := CurrentUser(c)
	if !ok || account == nil {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	return c.JSON(http.StatusOK, toAuthUser(account.ID.String(), account.Email, account.FullName, account.CreatedAt))
}

// serverError hides infrastructure failures (store, mail) behind a generic
// response; the request logger records the underlying error.
func serverError(c echo.Context, err error) error {
	c.Logger().Errorf("auth: %v", err)
	return c.JSON(http.StatusInternalServerError, util.Error("Server error, please try again later."))
}
