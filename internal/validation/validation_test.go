// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/oliverandrich/unsocial/internal/validation"
)

type testRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

func TestCheck_Valid(t *testing.T) {
	v := validation.New()

	err := v.Check(&testRequest{
		Email:           "jane@example.com",
		Password:        "secret123",
		ConfirmPassword: "secret123",
	})

	assert.Nil(t, err)
}

func TestCheck_ReportsJSONFieldNames(t *testing.T) {
	v := validation.New()

	err := v.Check(&testRequest{
		Email:           "not-an-email",
		Password:        "short",
		ConfirmPassword: "different",
	})

	require.NotNil(t, err)
	assert.Contains(t, err.Fields, "email")
	assert.Contains(t, err.Fields, "password")
	assert.Contains(t, err.Fields, "confirmPassword")
	assert.Equal(t, []string{"Passwords didn't match!"}, err.Fields["confirmPassword"])
}

func TestCheck_RequiredMessage(t *testing.T) {
	v := validation.New()

	err := v.Check(&testRequest{})

	require.NotNil(t, err)
	assert.Equal(t, []string{"This field is required."}, err.Fields["email"])
}

func TestNewError(t *testing.T) {
	err := validation.NewError("email", "Email is already registered.")

	assert.Equal(t, []string{"Email is already registered."}, err.Fields["email"])
	assert.Equal(t, "email: Email is already registered.", err.Error())
}
