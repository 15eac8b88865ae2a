// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/unsocial/internal/models"
)

// CreateUser inserts a new user.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, full_name, email, password, verified, about,
			profile_picture, cover_picture, follower_count, following_count,
			created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.FullName, user.Email, user.Password, user.Verified,
		user.About, user.ProfilePicture, user.CoverPicture,
		user.FollowerCount, user.FollowingCount, user.CreatedAt, user.UpdatedAt)
	return err
}

// GetUserByID retrieves a user by id.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email. The email column carries the
// NOCASE collation, so the lookup is case-insensitive.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE email = ?`, email)
	if err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// EmailTaken reports whether a user with the given email already exists.
func (r *Repository) EmailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE email = ?`, email)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkVerified flags the account with the given email as verified and returns
// the updated user.
func (r *Repository) MarkVerified(ctx context.Context, email string) (*models.User, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET verified = 1, updated_at = ? WHERE email = ?`,
		time.Now().UTC(), email)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrNotFound
	}
	return r.GetUserByEmail(ctx, email)
}

// UpdatePassword replaces the stored password hash for a user id.
func (r *Repository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET password = ?, updated_at = ? WHERE id = ?`,
		passwordHash, time.Now().UTC(), id)
	return err
}

// UpdatePasswordByEmail replaces the stored password hash for an email.
func (r *Repository) UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password = ?, updated_at = ? WHERE email = ?`,
		passwordHash, time.Now().UTC(), email)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateProfile persists the mutable profile fields of a user.
func (r *Repository) UpdateProfile(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET full_name = ?, about = ?, profile_picture = ?,
			cover_picture = ?, updated_at = ?
		 WHERE id = ?`,
		user.FullName, user.About, user.ProfilePicture, user.CoverPicture,
		user.UpdatedAt, user.ID)
	return err
}

// CountDirectory counts verified users other than the requester whose name
// matches the search term.
func (r *Repository) CountDirectory(ctx context.Context, requesterID, search string) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM users
		 WHERE verified = 1 AND id <> ?
		   AND (? = '' OR instr(lower(full_name), lower(?)) > 0)`,
		requesterID, search, search)
	return count, err
}

// ListDirectory returns one page of the user directory, each entry annotated
// with whether the requester already follows that user.
func (r *Repository) ListDirectory(ctx context.Context, requesterID, search string, limit, offset int) ([]models.DirectoryUser, error) {
	users := []models.DirectoryUser{}
	err := r.db.SelectContext(ctx, &users,
		`SELECT u.id, u.full_name, u.profile_picture, u.cover_picture,
			u.follower_count, u.following_count,
			EXISTS (
				SELECT 1 FROM follows
				WHERE follower_id = u.id AND following_id = ?
			) AS followed
		 FROM users u
		 WHERE u.verified = 1 AND u.id <> ?
		   AND (? = '' OR instr(lower(u.full_name), lower(?)) > 0)
		 ORDER BY u.created_at ASC, u.rowid ASC
		 LIMIT ? OFFSET ?`,
		requesterID, requesterID, search, search, limit, offset)
	if err != nil {
		return nil, err
	}
	return users, nil
}
