// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package profiles shapes user records into public views and handles profile
// updates including picture uploads.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"codeberg.org/oliverandrich/unsocial/internal/models"
	"codeberg.org/oliverandrich/unsocial/internal/repository"
)

var ErrNotFound = errors.New("user not found")

// Object-store folders for the two picture slots. An upload for a user always
// reuses the same key, so a newer picture overwrites the old object.
const (
	folderProfilePictures = "PROFILE_PICTURES"
	folderCoverPictures   = "COVER_PICTURES"
)

// ObjectStore stores uploaded images. The S3 implementation lives in
// services/storage; tests substitute a fake.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType, path string) (string, error)
	Remove(ctx context.Context, key string) error
}

type Service struct {
	repo  *repository.Repository
	store ObjectStore
}

func NewService(repo *repository.Repository, store ObjectStore) *Service {
	return &Service{repo: repo, store: store}
}

// Get returns the profile at targetID annotated with the requester's
// relationship to it.
func (s *Service) Get(ctx context.Context, targetID, requesterID string) (*models.Profile, error) {
	user, err := s.repo.GetUserByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	followed := false
	if _, err := s.repo.GetFollow(ctx, targetID, requesterID); err == nil {
		followed = true
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check follow: %w", err)
	}

	return &models.Profile{
		User:     *user,
		Myself:   targetID == requesterID,
		Followed: followed,
	}, nil
}

// ImageUpload references an image already spooled to a temporary file by the
// HTTP layer. Update removes the temporary file on every exit path.
type ImageUpload struct {
	TempPath    string
	ContentType string
}

// UpdateParams carries the optional profile mutations. A nil pointer leaves
// the field untouched; an empty About clears it.
type UpdateParams struct { //nolint:govet // fieldalignment: readability over optimization
	FullName             *string
	About                *string
	RemoveProfilePicture bool
	RemoveCoverPicture   bool
	ProfilePicture       *ImageUpload
	CoverPicture         *ImageUpload
}

// Update applies the profile mutations for the requesting user. Picture
// removal hits the object store before the field is cleared; a fresh upload
// supersedes removal for its slot.
func (s *Service) Update(ctx context.Context, requesterID string, params UpdateParams) (*models.User, error) {
	defer func() {
		for _, upload := range []*ImageUpload{params.ProfilePicture, params.CoverPicture} {
			if upload != nil {
				if err := os.Remove(upload.TempPath); err != nil && !os.IsNotExist(err) {
					slog.Warn("failed to remove temp upload", "path", upload.TempPath, "error", err)
				}
			}
		}
	}()

	user, err := s.repo.GetUserByID(ctx, requesterID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if params.FullName != nil {
		user.FullName = *params.FullName
	}
	if params.About != nil {
		if *params.About == "" {
			user.About = nil
		} else {
			user.About = params.About
		}
	}

	if err := s.applyPicture(ctx, user.ID, &user.ProfilePicture, params.RemoveProfilePicture, params.ProfilePicture, folderProfilePictures); err != nil {
		return nil, err
	}
	if err := s.applyPicture(ctx, user.ID, &user.CoverPicture, params.RemoveCoverPicture, params.CoverPicture, folderCoverPictures); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	slog.Info("profile_updated", "user_id", user.ID)
	return user, nil
}

func (s *Service) applyPicture(ctx context.Context, userID string, slot **string, remove bool, upload *ImageUpload, folder string) error {
	if remove && *slot != nil {
		if err := s.store.Remove(ctx, keyFromURL(**slot)); err != nil {
			return fmt.Errorf("failed to remove picture: %w", err)
		}
		*slot = nil
	}

	if upload != nil && !remove {
		key := folder + "/" + userID + "." + extension(upload.ContentType)
		pictureURL, err := s.store.Upload(ctx, key, upload.ContentType, upload.TempPath)
		if err != nil {
			return fmt.Errorf("failed to upload picture: %w", err)
		}
		*slot = &pictureURL
	}

	return nil
}

// DirectoryPage is one page of the user directory plus the filtered total.
type DirectoryPage struct {
	Users []models.DirectoryUser
	Total int64
}

// Directory lists verified users other than the requester, filtered by a
// case-insensitive name search, each annotated with whether the requester
// follows them.
func (s *Service) Directory(ctx context.Context, requesterID string, page, limit int, search string) (*DirectoryPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}

	total, err := s.repo.CountDirectory(ctx, requesterID, search)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	users, err := s.repo.ListDirectory(ctx, requesterID, search, limit, limit*(page-1))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return &DirectoryPage{Users: users, Total: total}, nil
}

// keyFromURL recovers the object key from a stored picture URL. Both
// virtual-host and path-style URLs keep "FOLDER/key" as the trailing path
// segments.
func keyFromURL(pictureURL string) string {
	u, err := url.Parse(pictureURL)
	if err != nil {
		return pictureURL
	}
	path := strings.TrimPrefix(u.Path, "/")
	if i := strings.Index(path, folderProfilePictures+"/"); i >= 0 {
		return path[i:]
	}
	if i := strings.Index(path, folderCoverPictures+"/"); i >= 0 {
		return path[i:]
	}
	return path
}

func extension(contentType string) string {
	if i := strings.Index(contentType, "/"); i >= 0 {
		return contentType[i+1:]
	}
	return contentType
}
