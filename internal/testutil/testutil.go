// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"io"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"

	"codeberg.org/oliverandrich/unsocial/internal/database"
	"codeberg.org/oliverandrich/unsocial/internal/models"
	"codeberg.org/oliverandrich/unsocial/internal/repository"
)

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	repo := repository.New(db)
	return db, repo
}

// NewTestUser creates a verified test user in the database. The stored
// password is an opaque string, not a real hash.
func NewTestUser(t *testing.T, repo *repository.Repository, fullName, email string) *models.User {
	t.Helper()
	ctx := context.Background()

	user := &models.User{
		ID:       uuid.NewString(),
		FullName: fullName,
		Email:    email,
		Password: "not-a-real-hash",
	}
	require.NoError(t, repo.CreateUser(ctx, user))

	user, err := repo.MarkVerified(ctx, email)
	require.NoError(t, err)
	return user
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// SentMail records one delivery made through the FakeMailer.
type SentMail struct {
	Kind     string // verification, change-password, reset
	To       string
	FullName string
	Token    string
}

// FakeMailer implements the accounts mailer contract and records deliveries
// instead of talking SMTP.
type FakeMailer struct {
	Sent []SentMail
	Err  error // when set, every send fails with it
}

func (m *FakeMailer) SendVerification(_ context.Context, toEmail, fullName, token string) error {
	return m.record("verification", toEmail, fullName, token)
}

func (m *FakeMailer) SendChangePassword(_ context.Context, toEmail, fullName, token string) error {
	return m.record("change-password", toEmail, fullName, token)
}

func (m *FakeMailer) SendPasswordReset(_ context.Context, toEmail, fullName, token string) error {
	return m.record("reset", toEmail, fullName, token)
}

func (m *FakeMailer) record(kind, toEmail, fullName, token string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, SentMail{Kind: kind, To: toEmail, FullName: fullName, Token: token})
	return nil
}

// FakeStore implements the profiles object store contract in memory.
type FakeStore struct {
	Objects   map[string]string // key -> content type
	Removed   []string
	UploadErr error
}

func NewFakeStore() *FakeStore {
	return &FakeStore{Objects: make(map[string]string)}
}

func (s *FakeStore) Upload(_ context.Context, key, contentType, path string) (string, error) {
	if s.UploadErr != nil {
		return "", s.UploadErr
	}
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	s.Objects[key] = contentType
	return "https://store.test/" + key, nil
}

func (s *FakeStore) Remove(_ context.Context, key string) error {
	delete(s.Objects, key)
	s.Removed = append(s.Removed, key)
	return nil
}
