// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"codeberg.org/oliverandrich/unsocial/internal/config"
	"codeberg.org/oliverandrich/unsocial/internal/handlers"
	appmw "codeberg.org/oliverandrich/unsocial/internal/middleware"
	"codeberg.org/oliverandrich/unsocial/internal/models"
	"codeberg.org/oliverandrich/unsocial/internal/repository"
	"codeberg.org/oliverandrich/unsocial/internal/services/accounts"
	"codeberg.org/oliverandrich/unsocial/internal/services/credentials"
	"codeberg.org/oliverandrich/unsocial/internal/services/follows"
	"codeberg.org/oliverandrich/unsocial/internal/services/profiles"
	"codeberg.org/oliverandrich/unsocial/internal/testutil"
)

type testApp struct {
	e        *echo.Echo
	repo     *repository.Repository
	accounts *accounts.Service
	mailer   *testutil.FakeMailer
	store    *testutil.FakeStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	_, repo := testutil.NewTestDB(t)
	creds := credentials.New("test-secret", bcrypt.MinCost)
	mailer := &testutil.FakeMailer{}
	authCfg := &config.AuthConfig{
		CookieName: "token",
		SessionTTL: time.Hour,
		LinkTTL:    time.Hour,
	}

	store := testutil.NewFakeStore()
	accountsSvc := accounts.NewService(repo, creds, mailer, authCfg)
	followsSvc := follows.NewService(repo)
	profilesSvc := profiles.NewService(repo, store)
	h := handlers.New(accountsSvc, followsSvc, profilesSvc, authCfg)

	e := echo.New()
	requireAuth := appmw.RequireAuth(creds, authCfg.CookieName)

	e.GET("/", h.Health)
	e.POST("/auth/signup", h.Signup)
	e.POST("/auth/login", h.Login)
	e.PUT("/auth/verify", h.Verify)
	e.POST("/auth/reset-password", h.ResetPasswordRequest)
	e.PUT("/auth/reset-password", h.ResetPassword)
	e.GET("/auth/me", h.Me, requireAuth)
	e.GET("/auth/logout", h.Logout, requireAuth)
	e.GET("/auth/change-password", h.ChangePasswordRequest, requireAuth)
	e.PUT("/auth/change-password", h.ChangePassword, requireAuth)
	e.PUT("/profile", h.UpdateProfile, requireAuth)
	e.GET("/profile/:id", h.Profile, requireAuth)
	e.GET("/profile/:id/followers", h.Followers, requireAuth)
	e.GET("/profile/:id/followings", h.Followings, requireAuth)
	e.PUT("/profile/:id/follow", h.FollowProfile, requireAuth)
	e.PUT("/profile/:id/unfollow", h.UnfollowProfile, requireAuth)
	e.GET("/users", h.Users, requireAuth)

	return &testApp{e: e, repo: repo, accounts: accountsSvc, mailer: mailer, store: store}
}

func (a *testApp) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

type response struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) response {
	t.Helper()
	var res response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

// login signs up and verifies a user, then logs in and returns the user plus
// the session cookie.
func (a *testApp) login(t *testing.T, fullName, email, password string) (*models.User, *http.Cookie) {
	t.Helper()
	ctx := context.Background()

	_, err := a.accounts.Signup(ctx, accounts.SignupParams{
		FullName: fullName,
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)

	token := a.mailer.Sent[len(a.mailer.Sent)-1].Token
	_, err = a.accounts.Verify(ctx, token)
	require.NoError(t, err)

	rec := a.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "token" {
			user, err := a.repo.GetUserByEmail(ctx, email)
			require.NoError(t, err)
			return user, cookie
		}
	}
	t.Fatal("login did not set the session cookie")
	return nil, nil
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "server up and running", decode(t, rec).Message)
}

func TestSignupEndpoint(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/auth/signup", map[string]string{
		"fullName":        "Jane Doe",
		"email":           "jane@example.com",
		"password":        "secret123",
		"confirmPassword": "secret123",
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	res := decode(t, rec)
	assert.Equal(t, "Account created! Check your email.", res.Message)
	assert.Contains(t, string(res.Data), `"jane@example.com"`)
	assert.NotContains(t, string(res.Data), "password")
}

func TestSignupEndpoint_PasswordMismatch(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/auth/signup", map[string]string{
		"fullName":        "Jane Doe",
		"email":           "jane@example.com",
		"password":        "secret123",
		"confirmPassword": "different",
	}, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	res := decode(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", res.Message)
	assert.Contains(t, string(res.Data), "confirmPassword")
}

func TestLoginEndpoint_NotVerified(t *testing.T) {
	app := newTestApp(t)

	_, err := app.accounts.Signup(context.Background(), accounts.SignupParams{
		FullName: "Jane Doe",
		Email:    "jane@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	rec := app.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    "jane@example.com",
		"password": "secret123",
	}, nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "NOT_VERIFIED", decode(t, rec).Message)
}

func TestMe(t *testing.T) {
	app := newTestApp(t)
	user, cookie := app.login(t, "Jane Doe", "jane@example.com", "secret123")

	rec := app.do(t, http.MethodGet, "/auth/me", nil, cookie)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(decode(t, rec).Data), user.ID)
}

func TestMe_Unauthorized(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/auth/me", nil, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decode(t, rec).Message)
}

func TestLogout_ClearsCookie(t *testing.T) {
	app := newTestApp(t)
	_, cookie := app.login(t, "Jane Doe", "jane@example.com", "secret123")

	rec := app.do(t, http.MethodGet, "/auth/logout", nil, cookie)

	require.Equal(t, http.StatusOK, rec.Code)
	for _, cleared := range rec.Result().Cookies() {
		if cleared.Name == "token" {
			assert.Empty(t, cleared.Value)
			assert.True(t, cleared.Expires.Before(time.Now()))
			return
		}
	}
	t.Fatal("logout did not clear the session cookie")
}

func TestVerifyEndpoint_MissingToken(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPut, "/auth/verify", nil, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_TOKEN", decode(t, rec).Message)
}

func TestVerifyEndpoint(t *testing.T) {
	app := newTestApp(t)

	_, err := app.accounts.Signup(context.Background(), accounts.SignupParams{
		FullName: "Jane Doe",
		Email:    "jane@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	token := app.mailer.Sent[0].Token

	rec := app.do(t, http.MethodPut, "/auth/verify?token="+token, nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PROFILE_VERIFIED", decode(t, rec).Message)
}

func TestProfileEndpoint(t *testing.T) {
	app := newTestApp(t)
	user, cookie := app.login(t, "Jane Doe", "jane@example.com", "secret123")

	rec := app.do(t, http.MethodGet, "/profile/"+user.ID, nil, cookie)

	require.Equal(t, http.StatusOK, rec.Code)
	res := decode(t, rec)
	assert.Equal(t, "Profile fetched!", res.Message)
	assert.Contains(t, string(res.Data), `"myself":true`)
}

func TestProfileEndpoint_NotFound(t *testing.T) {
	app := newTestApp(t)
	_, cookie := app.login(t, "Jane Doe", "jane@example.com", "secret123")

	rec := app.do(t, http.MethodGet, "/profile/no-such-user", nil, cookie)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "USER_NOT_FOUND", decode(t, rec).Message)
}

func TestFollowEndpoint(t *testing.T) {
	app := newTestApp(t)
	_, cookie := app.login(t, "Jane Doe", "jane@example.com", "secret123")
	target := testutil.NewTestUser(t, app.repo, "John Smith", "john@example.com")

	rec := app.do(t, http.MethodPut, "/profile/"+target.ID+"/follow", nil, cookie)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "You have just followed John Smith", decode(t, rec).Message)

	rec = app.do(t, http.MethodPut, "/profile/"+target.ID+"/follow", nil, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ALREADY_FOLLOWING", decode(t, rec).Message)
}

func TestFollowEndpoint_Self(t *testing.T) {
	app := newTestApp(t)
	user, cookie := app.login(t, "Jane Doe", "jane@example.com", "secret123")

	rec := app.do(t, http.MethodPut, "/profile/"+user.ID+"/follow", nil, cookie)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "FOLLOWING_MYSELF", decode(t, rec).Message)
}

func TestUnfollowEndpoint(t *testing.T) {
	app := newTestApp(t)
	_, cookie := app.login(t, "Jane Doe", "jane@example.com", "secret123")
	target := testutil.NewTestUser(t, app.repo, "John Smith", "john@example.com")

	rec := app.do(t, http.MethodPut, "/profile/"+target.ID+"/unfollow", nil, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "NOT_FOLLOWING", decode(t, rec).Message)

	app.do(t, http.MethodPut, "/profile/"+target.ID+"/follow", nil, cookie)

	rec = app.do(t, http.MethodPut, "/profile/"+target.ID+"/unfollow", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "You have just unfollowed John Smith", decode(t, rec).Message)
}

func TestFollowersEndpoint(t *testing.T) {
	app := newTestApp(t)
	user, cookie := app.login(t, "Jane Doe", "jane@example.com", "secret123")
	target := testutil.NewTestUser(t, app.repo, "John Smith", "john@example.com")

	app.do(t, http.MethodPut, "/profile/"+target.ID+"/follow", nil, cookie)

	rec := app.do(t, http.MethodGet, "/profile/"+target.ID+"/followers", nil, cookie)

	require.Equal(t, http.StatusOK, rec.Code)
	res := decode(t, rec)
	assert.Equal(t, "Fetched followers", res.Message)
	assert.Contains(t, string(res.Data), `"totalFollowers":1`)
	assert.Contains(t, string(res.Data), user.ID)
}

func TestUsersEndpoint(t *testing.T) {
	app := newTestApp(t)
	_, cookie := app.login(t, "Jane Doe", "jane@example.com", "secret123")
	testutil.NewTestUser(t, app.repo, "John Smith", "john@example.com")

	rec := app.do(t, http.MethodGet, "/users", nil, cookie)

	require.Equal(t, http.StatusOK, rec.Code)
	res := decode(t, rec)
	assert.Equal(t, "Users list", res.Message)
	assert.Contains(t, string(res.Data), `"usersCount":1`)
}

func TestUsersEndpoint_InvalidQueries(t *testing.T) {
	app := newTestApp(t)
	_, cookie := app.login(t, "Jane Doe", "jane@example.com", "secret123")

	rec := app.do(t, http.MethodGet, "/users?page=abc", nil, cookie)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_QUERIES", decode(t, rec).Message)
}

type imagePart struct {
	field       string
	contentType string
	size        int
}

// doMultipart sends a multipart PUT /profile with the given form fields and
// synthetic image parts.
func (a *testApp) doMultipart(t *testing.T, fields map[string]string, images []imagePart, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}
	for _, img := range images {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name=%q; filename=%q`, img.field, img.field+".img"))
		header.Set("Content-Type", img.contentType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(bytes.Repeat([]byte{0xff}, img.size))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPut, "/profile", &buf)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func TestUpdateProfileEndpoint(t *testing.T) {
	app := newTestApp(t)
	user, cookie := app.login(t, "Jane Doe", "jane@example.com", "secret123")

	rec := app.doMultipart(t, map[string]string{
		"fullName": "Jane Q. Doe",
		"about":    "Hello there.",
	}, []imagePart{
		{field: "profilePicture", contentType: "image/png", size: 128},
	}, cookie)

	require.Equal(t, http.StatusOK, rec.Code)
	res := decode(t, rec)
	assert.Equal(t, "Profile updated!", res.Message)
	assert.Contains(t, string(res.Data), `"fullName":"Jane Q. Doe"`)
	assert.Contains(t, string(res.Data), "https://store.test/PROFILE_PICTURES/"+user.ID+".png")
	assert.Equal(t, "image/png", app.store.Objects["PROFILE_PICTURES/"+user.ID+".png"])
}

func TestUpdateProfileEndpoint_OversizePicture(t *testing.T) {
	app := newTestApp(t)
	_, cookie := app.login(t, "Jane Doe", "jane@example.com", "secret123")

	rec := app.doMultipart(t, nil, []imagePart{
		{field: "profilePicture", contentType: "image/png", size: 1<<20 + 1},
	}, cookie)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	res := decode(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", res.Message)
	assert.Contains(t, string(res.Data), "Maximum file size can be 1MB.")
	assert.Empty(t, app.store.Objects)
}

func TestUpdateProfileEndpoint_DisallowedFileType(t *testing.T) {
	app := newTestApp(t)
	_, cookie := app.login(t, "Jane Doe", "jane@example.com", "secret123")

	rec := app.doMultipart(t, nil, []imagePart{
		{field: "coverPicture", contentType: "image/gif", size: 128},
	}, cookie)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	res := decode(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", res.Message)
	assert.Contains(t, string(res.Data), "File type must be png or jpeg.")
	assert.Empty(t, app.store.Objects)
}

func TestChangePasswordFlow(t *testing.T) {
	app := newTestApp(t)
	_, cookie := app.login(t, "Jane Doe", "jane@example.com", "secret123")

	rec := app.do(t, http.MethodGet, "/auth/change-password", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Check your email.", decode(t, rec).Message)

	sent := app.mailer.Sent[len(app.mailer.Sent)-1]
	require.Equal(t, "change-password", sent.Kind)

	rec = app.do(t, http.MethodPut, "/auth/change-password?token="+sent.Token, map[string]string{
		"oldPassword":        "secret123",
		"newPassword":        "newsecret",
		"confirmNewPassword": "newsecret",
	}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Password has been updated.", decode(t, rec).Message)

	rec = app.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    "jane@example.com",
		"password": "newsecret",
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChangePasswordEndpoint_MissingToken(t *testing.T) {
	app := newTestApp(t)
	_, cookie := app.login(t, "Jane Doe", "jane@example.com", "secret123")

	rec := app.do(t, http.MethodPut, "/auth/change-password", map[string]string{
		"oldPassword":        "secret123",
		"newPassword":        "newsecret",
		"confirmNewPassword": "newsecret",
	}, cookie)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decode(t, rec).Message)
}

func TestChangePasswordEndpoint_InvalidToken(t *testing.T) {
	app := newTestApp(t)
	_, cookie := app.login(t, "Jane Doe", "jane@example.com", "secret123")

	rec := app.do(t, http.MethodPut, "/auth/change-password?token=garbage", map[string]string{
		"oldPassword":        "secret123",
		"newPassword":        "newsecret",
		"confirmNewPassword": "newsecret",
	}, cookie)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_TOKEN", decode(t, rec).Message)
}

func TestFollowersEndpoint_LenientPagination(t *testing.T) {
	app := newTestApp(t)
	user, cookie := app.login(t, "Jane Doe", "jane@example.com", "secret123")

	rec := app.do(t, http.MethodGet, "/profile/"+user.ID+"/followers?page=abc&limit=xyz", nil, cookie)

	assert.Equal(t, http.StatusOK, rec.Code)
}
