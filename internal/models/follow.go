// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// Follow is a directed edge in the follow graph. The naming preserves the
// client contract: FollowerID is the profile being followed and FollowingID is
// the user who follows it.
type Follow struct {
	FollowerID  string    `db:"follower_id" json:"followerId"`
	FollowingID string    `db:"following_id" json:"followingId"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// FollowEntry is one row of a followers or followings listing: the edge, the
// joined user record and the relationship flags for the requesting user.
type FollowEntry struct {
	Follow
	Myself   bool `json:"myself"`
	Followed bool `db:"followed" json:"followed"`
	User     User `db:"user" json:"user"`
}
