// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/unsocial/internal/middleware"
	"codeberg.org/oliverandrich/unsocial/internal/services/follows"
)

// Users lists the user directory. Unlike the follower listings the pagination
// parameters are parsed strictly.
func (h *Handlers) Users(c echo.Context) error {
	page, err := queryInt(c, "page", follows.DefaultPage)
	if err != nil {
		return respond(c, http.StatusBadRequest, "INVALID_QUERIES", nil)
	}
	limit, err := queryInt(c, "limit", follows.DefaultLimit)
	if err != nil {
		return respond(c, http.StatusBadRequest, "INVALID_QUERIES", nil)
	}

	result, err := h.profiles.Directory(c.Request().Context(), middleware.UserID(c), page, limit, c.QueryParam("search"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Users list", map[string]any{
		"users":      result.Users,
		"usersCount": result.Total,
	})
}
