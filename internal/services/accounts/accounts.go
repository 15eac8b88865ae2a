// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package accounts implements the account workflow: signup, verification,
// login and the password change/reset flows.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"codeberg.org/oliverandrich/unsocial/internal/config"
	"codeberg.org/oliverandrich/unsocial/internal/models"
	"codeberg.org/oliverandrich/unsocial/internal/repository"
	"codeberg.org/oliverandrich/unsocial/internal/services/credentials"
	"codeberg.org/oliverandrich/unsocial/internal/validation"
)

var (
	ErrNotFound    = errors.New("user not found")
	ErrNotVerified = errors.New("account not verified")
)

// Mailer delivers the account-workflow mails. The SMTP implementation lives
// in services/email; tests substitute a fake.
type Mailer interface {
	SendVerification(ctx context.Context, toEmail, fullName, token string) error
	SendChangePassword(ctx context.Context, toEmail, fullName, token string) error
	SendPasswordReset(ctx context.Context, toEmail, fullName, token string) error
}

type Service struct {
	repo   *repository.Repository
	creds  *credentials.Service
	mailer Mailer
	cfg    *config.AuthConfig
}

func NewService(repo *repository.Repository, creds *credentials.Service, mailer Mailer, cfg *config.AuthConfig) *Service {
	return &Service{repo: repo, creds: creds, mailer: mailer, cfg: cfg}
}

// SignupParams holds the parameters for user registration. Shape rules
// (lengths, email format, password confirmation) are enforced by the request
// schema before this is called.
type SignupParams struct {
	FullName string
	Email    string
	Password string
}

// Signup registers a new, unverified account. The verification mail is sent
// before the user record is persisted; a dispatch failure aborts the signup.
func (s *Service) Signup(ctx context.Context, params SignupParams) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))

	taken, err := s.repo.EmailTaken(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if taken {
		return nil, validation.NewError("email", "Email is already registered.")
	}

	token, err := s.creds.IssueToken(credentials.Claims{
		Email:    email,
		FullName: params.FullName,
		Purpose:  credentials.PurposeVerify,
	}, s.cfg.LinkTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue verification token: %w", err)
	}

	if err := s.mailer.SendVerification(ctx, email, params.FullName, token); err != nil {
		return nil, fmt.Errorf("failed to send verification email: %w", err)
	}

	passwordHash, err := s.creds.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:       uuid.NewString(),
		FullName: params.FullName,
		Email:    email,
		Password: passwordHash,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("signup_success", "user_id", user.ID, "email", email)
	return user, nil
}

// Verify redeems a verification token and flags the account as verified.
// Verifying an already-verified account succeeds harmlessly.
func (s *Service) Verify(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.creds.ParseToken(token, credentials.PurposeVerify)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.MarkVerified(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to verify user: %w", err)
	}

	slog.Info("verify_success", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// Login authenticates the credentials and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Constant-time: always perform a bcrypt comparison to
			// prevent timing attacks
			s.creds.CompareDummy(password)
			slog.Warn("login_failed", "email", email, "reason", "user_not_found")
			return nil, "", validation.NewError("email", "No account found with this email.")
		}
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}

	if !s.creds.CheckPassword(password, user.Password) {
		slog.Warn("login_failed", "email", email, "reason", "invalid_password")
		return nil, "", validation.NewError("password", "Password didn't match!")
	}

	if !user.Verified {
		slog.Warn("login_failed", "email", email, "reason", "not_verified")
		return nil, "", ErrNotVerified
	}

	token, err := s.creds.IssueToken(credentials.Claims{
		Email:            user.Email,
		Purpose:          credentials.PurposeSession,
		RegisteredClaims: jwt.RegisteredClaims{Subject: user.ID},
	}, s.cfg.SessionTTL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue session token: %w", err)
	}

	slog.Info("login_success", "user_id", user.ID, "email", email)
	return user, token, nil
}

// Me returns the current user.
func (s *Service) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ChangePassword replaces the password of a logged-in user after checking the
// current one.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.creds.CheckPassword(oldPassword, user.Password) {
		return nil, validation.NewError("oldPassword", "Password didn't match!")
	}

	passwordHash, err := s.creds.HashPassword(newPassword)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}

	user.Password = passwordHash
	slog.Info("password_changed", "user_id", userID)
	return user, nil
}

// RequestChangePassword mails a change-password link to a logged-in user.
func (s *Service) RequestChangePassword(ctx context.Context, userID string) error {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	token, err := s.creds.IssueToken(credentials.Claims{
		Email:            user.Email,
		Purpose:          credentials.PurposeReset,
		RegisteredClaims: jwt.RegisteredClaims{Subject: user.ID},
	}, s.cfg.LinkTTL)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}

	return s.mailer.SendChangePassword(ctx, user.Email, user.FullName, token)
}

// RequestReset mails a reset-password link to the account with the given
// email.
func (s *Service) RequestReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return validation.NewError("email", "No account found with this email.")
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	token, err := s.creds.IssueToken(credentials.Claims{
		Email:            user.Email,
		Purpose:          credentials.PurposeReset,
		RegisteredClaims: jwt.RegisteredClaims{Subject: user.ID},
	}, s.cfg.LinkTTL)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}

	return s.mailer.SendPasswordReset(ctx, user.Email, user.FullName, token)
}

// ResetPassword redeems a reset token and overwrites the password for the
// email it carries. No re-entry of the old password is required.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) (*models.User, error) {
	claims, err := s.creds.ParseToken(token, credentials.PurposeReset)
	if err != nil {
		return nil, err
	}

	passwordHash, err := s.creds.HashPassword(newPassword)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdatePasswordByEmail(ctx, claims.Email, passwordHash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("password_reset", "email", claims.Email)
	return s.repo.GetUserByEmail(ctx, claims.Email)
}

// VerifyResetToken checks a change/reset token without consuming it. Used by
// the change-password endpoint, which requires both a valid emailed token and
// the current password.
func (s *Service) VerifyResetToken(token string) error {
	_, err := s.creds.ParseToken(token, credentials.PurposeReset)
	return err
}
