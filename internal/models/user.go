// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"time"
)

// User is the identity record. The password hash is never serialized.
type User struct { //nolint:govet // fieldalignment: readability over optimization
	ID             string    `db:"id" json:"id"`
	FullName       string    `db:"full_name" json:"fullName"`
	Email          string    `db:"email" json:"email"`
	Password       string    `db:"password" json:"-"`
	Verified       bool      `db:"verified" json:"verified"`
	About          *string   `db:"about" json:"about"`
	ProfilePicture *string   `db:"profile_picture" json:"profilePicture"`
	CoverPicture   *string   `db:"cover_picture" json:"coverPicture"`
	FollowerCount  int64     `db:"follower_count" json:"followerCount"`
	FollowingCount int64     `db:"following_count" json:"followingCount"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// Profile is a user decorated with the relationship flags for the requesting
// user.
type Profile struct {
	User
	Myself   bool `json:"myself"`
	Followed bool `json:"followed"`
}

// DirectoryUser is the trimmed view returned by the user directory listing.
type DirectoryUser struct { //nolint:govet // fieldalignment: readability over optimization
	ID             string  `db:"id" json:"id"`
	FullName       string  `db:"full_name" json:"fullName"`
	ProfilePicture *string `db:"profile_picture" json:"profilePicture"`
	CoverPicture   *string `db:"cover_picture" json:"coverPicture"`
	FollowerCount  int64   `db:"follower_count" json:"followerCount"`
	FollowingCount int64   `db:"following_count" json:"followingCount"`
	Followed       bool    `db:"followed" json:"followed"`
}
