// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package follows manages the follow graph: directed edges plus the
// denormalized follower/following counters on both endpoints.
package follows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"codeberg.org/oliverandrich/unsocial/internal/models"
	"codeberg.org/oliverandrich/unsocial/internal/repository"
)

var (
	ErrNotFound         = errors.New("user not found")
	ErrSelfFollow       = errors.New("cannot follow yourself")
	ErrAlreadyFollowing = errors.New("already following")
	ErrNotFollowing     = errors.New("not following")
)

const (
	DefaultPage  = 1
	DefaultLimit = 50
)

type Service struct {
	repo *repository.Repository
}

func NewService(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

// ListParams is the pagination and filter contract shared by the follower and
// following listings. Pages are 1-indexed.
type ListParams struct {
	Page   int
	Limit  int
	Search string
}

func (p ListParams) normalized() ListParams {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	return p
}

func (p ListParams) offset() int {
	return p.Limit * (p.Page - 1)
}

// Page is one page of a follower or following listing plus the filtered
// total.
type Page struct {
	Entries []models.FollowEntry
	Total   int64
}

// Follow makes the actor follow the target and returns the target's updated
// record. Edge insert and both counter bumps happen in one transaction.
func (s *Service) Follow(ctx context.Context, actorID, targetID string) (*models.User, error) {
	if actorID == targetID {
		return nil, ErrSelfFollow
	}

	if _, err := s.repo.GetUserByID(ctx, targetID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if _, err := s.repo.GetFollow(ctx, targetID, actorID); err == nil {
		return nil, ErrAlreadyFollowing
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check follow: %w", err)
	}

	if err := s.repo.CreateFollow(ctx, targetID, actorID); err != nil {
		return nil, fmt.Errorf("failed to create follow: %w", err)
	}

	slog.Info("follow_created", "actor_id", actorID, "target_id", targetID)
	return s.repo.GetUserByID(ctx, targetID)
}

// Unfollow is the mirror of Follow.
func (s *Service) Unfollow(ctx context.Context, actorID, targetID string) (*models.User, error) {
	if actorID == targetID {
		return nil, ErrSelfFollow
	}

	if _, err := s.repo.GetUserByID(ctx, targetID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	// The delete reports a missing edge itself, so no separate existence
	// check: a concurrent unfollow still maps to ErrNotFollowing.
	if err := s.repo.DeleteFollow(ctx, targetID, actorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFollowing
		}
		return nil, fmt.Errorf("failed to delete follow: %w", err)
	}

	slog.Info("follow_removed", "actor_id", actorID, "target_id", targetID)
	return s.repo.GetUserByID(ctx, targetID)
}

// Followers lists who follows the given profile, ordered by when they
// followed, annotated with the requester's own relationship to each entry.
func (s *Service) Followers(ctx context.Context, profileID, requesterID string, params ListParams) (*Page, error) {
	params = params.normalized()

	if _, err := s.repo.GetUserByID(ctx, profileID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	total, err := s.repo.CountFollowers(ctx, profileID, params.Search)
	if err != nil {
		return nil, fmt.Errorf("failed to count followers: %w", err)
	}

	entries, err := s.repo.ListFollowers(ctx, profileID, requesterID, params.Search, params.Limit, params.offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list followers: %w", err)
	}

	return &Page{Entries: entries, Total: total}, nil
}

// Followings lists who the given profile follows; same contract as Followers.
func (s *Service) Followings(ctx context.Context, profileID, requesterID string, params ListParams) (*Page, error) {
	params = params.normalized()

	if _, err := s.repo.GetUserByID(ctx, profileID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	total, err := s.repo.CountFollowings(ctx, profileID, params.Search)
	if err != nil {
		return nil, fmt.Errorf("failed to count followings: %w", err)
	}

	entries, err := s.repo.ListFollowings(ctx, profileID, requesterID, params.Search, params.Limit, params.offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list followings: %w", err)
	}

	return &Page{Entries: entries, Total: total}, nil
}
