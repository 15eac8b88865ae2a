// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/unsocial/internal/services/accounts"
	"codeberg.org/oliverandrich/unsocial/internal/services/credentials"
	"codeberg.org/oliverandrich/unsocial/internal/services/follows"
	"codeberg.org/oliverandrich/unsocial/internal/services/profiles"
	"codeberg.org/oliverandrich/unsocial/internal/validation"
)

// respondError translates service errors into the response envelope. Errors
// without an explicit mapping become an opaque 500.
func respondError(c echo.Context, err error) error {
	var verr *validation.Error

	switch {
	case errors.As(err, &verr):
		return respond(c, http.StatusBadRequest, "VALIDATION_ERROR", verr.Fields)
	case errors.Is(err, credentials.ErrInvalidToken):
		return respond(c, http.StatusBadRequest, "INVALID_TOKEN", nil)
	case errors.Is(err, accounts.ErrNotVerified):
		return respond(c, http.StatusForbidden, "NOT_VERIFIED", nil)
	case errors.Is(err, accounts.ErrNotFound),
		errors.Is(err, follows.ErrNotFound),
		errors.Is(err, profiles.ErrNotFound):
		return respond(c, http.StatusNotFound, "USER_NOT_FOUND", nil)
	case errors.Is(err, follows.ErrAlreadyFollowing):
		return respond(c, http.StatusBadRequest, "ALREADY_FOLLOWING", nil)
	case errors.Is(err, follows.ErrNotFollowing):
		return respond(c, http.StatusBadRequest, "NOT_FOLLOWING", nil)
	default:
		slog.Error("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
		return respond(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", nil)
	}
}
