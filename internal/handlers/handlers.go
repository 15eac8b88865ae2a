// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/unsocial/internal/config"
	"codeberg.org/oliverandrich/unsocial/internal/services/accounts"
	"codeberg.org/oliverandrich/unsocial/internal/services/follows"
	"codeberg.org/oliverandrich/unsocial/internal/services/profiles"
	"codeberg.org/oliverandrich/unsocial/internal/validation"
)

// Handlers contains all HTTP handlers.
type Handlers struct {
	accounts  *accounts.Service
	follows   *follows.Service
	profiles  *profiles.Service
	validator *validation.Validator
	authCfg   *config.AuthConfig
}

// New creates a new Handlers instance.
func New(accountsSvc *accounts.Service, followsSvc *follows.Service, profilesSvc *profiles.Service, authCfg *config.AuthConfig) *Handlers {
	return &Handlers{
		accounts:  accountsSvc,
		follows:   followsSvc,
		profiles:  profilesSvc,
		validator: validation.New(),
		authCfg:   authCfg,
	}
}

// Health reports liveness and the server time.
func (h *Handlers) Health(c echo.Context) error {
	return respond(c, http.StatusOK, "server up and running", map[string]any{
		"time": time.Now(),
	})
}
