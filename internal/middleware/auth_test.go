// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"codeberg.org/oliverandrich/unsocial/internal/middleware"
	"codeberg.org/oliverandrich/unsocial/internal/services/credentials"
)

func newAuthApp(t *testing.T, creds *credentials.Service) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.GET("/protected", func(c echo.Context) error {
		return c.String(http.StatusOK, middleware.UserID(c))
	}, middleware.RequireAuth(creds, "token"))
	return e
}

func TestRequireAuth(t *testing.T) {
	creds := credentials.New("test-secret", bcrypt.MinCost)
	e := newAuthApp(t, creds)

	token, err := creds.IssueToken(credentials.Claims{
		Email:            "jane@example.com",
		Purpose:          credentials.PurposeSession,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", rec.Body.String())
}

func TestRequireAuth_MissingCookie(t *testing.T) {
	creds := credentials.New("test-secret", bcrypt.MinCost)
	e := newAuthApp(t, creds)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_GarbageToken(t *testing.T) {
	creds := credentials.New("test-secret", bcrypt.MinCost)
	e := newAuthApp(t, creds)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "garbage"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_LinkTokenRejected(t *testing.T) {
	creds := credentials.New("test-secret", bcrypt.MinCost)
	e := newAuthApp(t, creds)

	token, err := creds.IssueToken(credentials.Claims{
		Email:   "jane@example.com",
		Purpose: credentials.PurposeVerify,
	}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
