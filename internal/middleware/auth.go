// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/unsocial/internal/services/credentials"
)

const userIDKey = "userID"

type unauthorizedBody struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// RequireAuth authenticates the session cookie and puts the user id into the
// request context. Missing or invalid tokens yield 401.
func RequireAuth(creds *credentials.Service, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				return c.JSON(http.StatusUnauthorized, unauthorizedBody{Message: "UNAUTHORIZED"})
			}

			claims, err := creds.ParseToken(cookie.Value, credentials.PurposeSession)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, unauthorizedBody{Message: "UNAUTHORIZED"})
			}

			c.Set(userIDKey, claims.Subject)
			return next(c)
		}
	}
}

// UserID returns the authenticated user id set by RequireAuth.
func UserID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}
