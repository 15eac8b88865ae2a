// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/unsocial/internal/middleware"
	"codeberg.org/oliverandrich/unsocial/internal/services/accounts"
)

type signupRequest struct {
	FullName        string `json:"fullName" validate:"required,min=6,max=64"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6,max=64"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// Signup registers a new account and dispatches the verification mail.
func (h *Handlers) Signup(c echo.Context) error {
	var req signupRequest
	if err := h.bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	user, err := h.accounts.Signup(c.Request().Context(), accounts.SignupParams{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return respondError(c, err)
	}

	return respond(c, http.StatusOK, "Account created! Check your email.", user)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates the credentials and sets the session cookie.
func (h *Handlers) Login(c echo.Context) error {
	var req loginRequest
	if err := h.bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	user, token, err := h.accounts.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	c.SetCookie(h.sessionCookie(token, h.authCfg.SessionTTL))
	return respond(c, http.StatusOK, "Logged in successfully.", user)
}

// Logout clears the session cookie.
func (h *Handlers) Logout(c echo.Context) error {
	c.SetCookie(h.sessionCookie("", -time.Hour))
	return respond(c, http.StatusOK, "Logged out successfully.", nil)
}

// Me returns the authenticated user's own record.
func (h *Handlers) Me(c echo.Context) error {
	user, err := h.accounts.Me(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "You are logged in.", user)
}

// Verify redeems the emailed verification token.
func (h *Handlers) Verify(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return respond(c, http.StatusBadRequest, "INVALID_TOKEN", nil)
	}

	user, err := h.accounts.Verify(c.Request().Context(), token)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "PROFILE_VERIFIED", user)
}

// ChangePasswordRequest mails the change-password link to the logged-in user.
func (h *Handlers) ChangePasswordRequest(c echo.Context) error {
	if err := h.accounts.RequestChangePassword(c.Request().Context(), middleware.UserID(c)); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Check your email.", nil)
}

type changePasswordRequest struct {
	OldPassword        string `json:"oldPassword" validate:"required"`
	NewPassword        string `json:"newPassword" validate:"required,min=6,max=64"`
	ConfirmNewPassword string `json:"confirmNewPassword" validate:"required,eqfield=NewPassword"`
}

// ChangePassword replaces the password of a logged-in user. It requires both
// the emailed token and the current password.
func (h *Handlers) ChangePassword(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return respond(c, http.StatusUnauthorized, "UNAUTHORIZED", nil)
	}
	if err := h.accounts.VerifyResetToken(token); err != nil {
		return respondError(c, err)
	}

	var req changePasswordRequest
	if err := h.bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	user, err := h.accounts.ChangePassword(c.Request().Context(), middleware.UserID(c), req.OldPassword, req.NewPassword)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Password has been updated.", user)
}

type resetPasswordRequestRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest mails the reset link to the account with the given
// email.
func (h *Handlers) ResetPasswordRequest(c echo.Context) error {
	var req resetPasswordRequestRequest
	if err := h.bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	if err := h.accounts.RequestReset(c.Request().Context(), req.Email); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Check your email.", nil)
}

type resetPasswordRequest struct {
	Password        string `json:"password" validate:"required,min=6,max=64"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// ResetPassword redeems the emailed reset token and overwrites the password.
func (h *Handlers) ResetPassword(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return respond(c, http.StatusBadRequest, "INVALID_TOKEN", nil)
	}

	var req resetPasswordRequest
	if err := h.bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	user, err := h.accounts.ResetPassword(c.Request().Context(), token, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Password has been updated.", user)
}

// sessionCookie builds the auth cookie. A non-positive ttl expires it.
func (h *Handlers) sessionCookie(token string, ttl time.Duration) *http.Cookie {
	cookie := &http.Cookie{
		Name:     h.authCfg.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(ttl),
	}
	if ttl <= 0 {
		cookie.MaxAge = -1
	}
	return cookie
}
