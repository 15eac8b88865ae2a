// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/unsocial/internal/middleware"
	"codeberg.org/oliverandrich/unsocial/internal/services/follows"
	"codeberg.org/oliverandrich/unsocial/internal/services/profiles"
)

// Profile returns the profile at :id with the requester's relationship flags.
func (h *Handlers) Profile(c echo.Context) error {
	profile, err := h.profiles.Get(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Profile fetched!", profile)
}

type updateProfileRequest struct {
	FullName *string `json:"fullName" validate:"omitempty,min=6,max=64"`
	About    *string `json:"about" validate:"omitempty,max=1000"`
}

// UpdateProfile applies the multipart profile mutations: text fields, picture
// removal flags and fresh picture uploads.
func (h *Handlers) UpdateProfile(c echo.Context) error {
	params := profiles.UpdateParams{
		RemoveProfilePicture: formBool(c, "removeProfilePicture"),
		RemoveCoverPicture:   formBool(c, "removeCoverPicture"),
	}

	var req updateProfileRequest
	if v := c.FormValue("fullName"); v != "" {
		req.FullName = &v
	}
	if _, ok := c.Request().Form["about"]; ok {
		v := c.FormValue("about")
		req.About = &v
	}
	if err := h.validator.Check(&req); err != nil {
		return respondError(c, err)
	}
	params.FullName = req.FullName
	params.About = req.About

	var err error
	if params.ProfilePicture, err = spoolUpload(c, "profilePicture"); err != nil {
		return respondError(c, err)
	}
	if params.CoverPicture, err = spoolUpload(c, "coverPicture"); err != nil {
		discardUpload(params.ProfilePicture)
		return respondError(c, err)
	}

	user, err := h.profiles.Update(c.Request().Context(), middleware.UserID(c), params)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Profile updated!", user)
}

// Followers lists who follows the profile at :id.
func (h *Handlers) Followers(c echo.Context) error {
	page, err := h.follows.Followers(c.Request().Context(), c.Param("id"), middleware.UserID(c), listParams(c))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Fetched followers", map[string]any{
		"followers":      page.Entries,
		"totalFollowers": page.Total,
	})
}

// Followings lists who the profile at :id follows.
func (h *Handlers) Followings(c echo.Context) error {
	page, err := h.follows.Followings(c.Request().Context(), c.Param("id"), middleware.UserID(c), listParams(c))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Fetched followings", map[string]any{
		"followings":      page.Entries,
		"totalFollowings": page.Total,
	})
}

// FollowProfile makes the requester follow the profile at :id.
func (h *Handlers) FollowProfile(c echo.Context) error {
	user, err := h.follows.Follow(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, follows.ErrSelfFollow) {
			return respond(c, http.StatusBadRequest, "FOLLOWING_MYSELF", nil)
		}
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, fmt.Sprintf("You have just followed %s", user.FullName), user)
}

// UnfollowProfile removes the requester's follow of the profile at :id.
func (h *Handlers) UnfollowProfile(c echo.Context) error {
	user, err := h.follows.Unfollow(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, follows.ErrSelfFollow) {
			return respond(c, http.StatusBadRequest, "UNFOLLOWING_MYSELF", nil)
		}
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, fmt.Sprintf("You have just unfollowed %s", user.FullName), user)
}

func listParams(c echo.Context) follows.ListParams {
	return follows.ListParams{
		Page:   queryIntLenient(c, "page", follows.DefaultPage),
		Limit:  queryIntLenient(c, "limit", follows.DefaultLimit),
		Search: c.QueryParam("search"),
	}
}
