// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/unsocial/internal/models"
)

// userColumns selects the joined user record into the "user" prefix of
// models.FollowEntry.
const userColumns = `
	u.id AS "user.id", u.full_name AS "user.full_name",
	u.email AS "user.email", u.password AS "user.password",
	u.verified AS "user.verified", u.about AS "user.about",
	u.profile_picture AS "user.profile_picture",
	u.cover_picture AS "user.cover_picture",
	u.follower_count AS "user.follower_count",
	u.following_count AS "user.following_count",
	u.created_at AS "user.created_at", u.updated_at AS "user.updated_at"`

// GetFollow retrieves the edge "actor follows target", if present.
func (r *Repository) GetFollow(ctx context.Context, targetID, actorID string) (*models.Follow, error) {
	var follow models.Follow
	err := r.db.GetContext(ctx, &follow,
		`SELECT * FROM follows WHERE follower_id = ? AND following_id = ?`,
		targetID, actorID)
	if err != nil {
		return nil, wrapError(err)
	}
	return &follow, nil
}

// CreateFollow inserts the edge "actor follows target" and bumps both
// denormalized counters in a single transaction.
func (r *Repository) CreateFollow(ctx context.Context, targetID, actorID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO follows (follower_id, following_id, created_at) VALUES (?, ?, ?)`,
		targetID, actorID, time.Now().UTC()); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET follower_count = follower_count + 1 WHERE id = ?`,
		targetID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET following_count = following_count + 1 WHERE id = ?`,
		actorID); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteFollow removes the edge "actor follows target" and lowers both
// counters in a single transaction.
func (r *Repository) DeleteFollow(ctx context.Context, targetID, actorID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = ? AND following_id = ?`,
		targetID, actorID)
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
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET follower_count = follower_count - 1 WHERE id = ?`,
		targetID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET following_count = following_count - 1 WHERE id = ?`,
		actorID); err != nil {
		return err
	}

	return tx.Commit()
}

// CountFollowers counts the followers of a profile, optionally filtered by a
// case-insensitive name search.
func (r *Repository) CountFollowers(ctx context.Context, profileID, search string) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM follows f
		 JOIN users u ON u.id = f.following_id
		 WHERE f.follower_id = ?
		   AND (? = '' OR instr(lower(u.full_name), lower(?)) > 0)`,
		profileID, search, search)
	return count, err
}

// ListFollowers returns one page of the users following the given profile,
// ordered by when they followed. Each entry is annotated with whether the
// requester follows that user; the myself flag is filled in afterwards.
func (r *Repository) ListFollowers(ctx context.Context, profileID, requesterID, search string, limit, offset int) ([]models.FollowEntry, error) {
	entries := []models.FollowEntry{}
	err := r.db.SelectContext(ctx, &entries,
		`SELECT f.follower_id, f.following_id, f.created_at,
			EXISTS (
				SELECT 1 FROM follows
				WHERE follower_id = u.id AND following_id = ?
			) AS followed,`+userColumns+`
		 FROM follows f
		 JOIN users u ON u.id = f.following_id
		 WHERE f.follower_id = ?
		   AND (? = '' OR instr(lower(u.full_name), lower(?)) > 0)
		 ORDER BY f.created_at ASC, f.rowid ASC
		 LIMIT ? OFFSET ?`,
		requesterID, profileID, search, search, limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Myself = entries[i].User.ID == requesterID
	}
	return entries, nil
}

// CountFollowings counts the users the given profile follows, optionally
// filtered by a case-insensitive name search.
func (r *Repository) CountFollowings(ctx context.Context, profileID, search string) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM follows f
		 JOIN users u ON u.id = f.follower_id
		 WHERE f.following_id = ?
		   AND (? = '' OR instr(lower(u.full_name), lower(?)) > 0)`,
		profileID, search, search)
	return count, err
}

// ListFollowings returns one page of the users the given profile follows,
// with the same annotations and ordering contract as ListFollowers.
func (r *Repository) ListFollowings(ctx context.Context, profileID, requesterID, search string, limit, offset int) ([]models.FollowEntry, error) {
	entries := []models.FollowEntry{}
	err := r.db.SelectContext(ctx, &entries,
		`SELECT f.follower_id, f.following_id, f.created_at,
			EXISTS (
				SELECT 1 FROM follows
				WHERE follower_id = u.id AND following_id = ?
			) AS followed,`+userColumns+`
		 FROM follows f
		 JOIN users u ON u.id = f.follower_id
		 WHERE f.following_id = ?
		   AND (? = '' OR instr(lower(u.full_name), lower(?)) > 0)
		 ORDER BY f.created_at ASC, f.rowid ASC
		 LIMIT ? OFFSET ?`,
		requesterID, profileID, search, search, limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Myself = entries[i].User.ID == requesterID
	}
	return entries, nil
}
