// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package validation wraps go-playground/validator behind typed, per-request
// schemas that report a structured field-error map.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a field name to its validation messages.
type FieldErrors map[string][]string

// Error carries field-attributed validation failures across layers. Handlers
// render it as a VALIDATION_ERROR envelope.
type Error struct {
	Fields FieldErrors
}

func (e *Error) Error() string {
	for field, messages := range e.Fields {
		if len(messages) > 0 {
			return field + ": " + messages[0]
		}
	}
	return "validation failed"
}

// NewError builds a single-field validation error.
func NewError(field, message string) *Error {
	return &Error{Fields: FieldErrors{field: {message}}}
}

// Validator validates request structs via their validate tags.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields under their json names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: v}
}

// Check validates a request struct and returns nil or a field-error map.
func (v *Validator) Check(s any) *Error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewError("root", "Invalid request.")
	}

	fields := FieldErrors{}
	for _, fe := range verrs {
		fields[fe.Field()] = append(fields[fe.Field()], message(fe))
	}
	return &Error{Fields: fields}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Must be a valid email address."
	case "min":
		return fmt.Sprintf("Must be at least %s characters long.", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters long.", fe.Param())
	case "eqfield":
		return "Passwords didn't match!"
	default:
		return "Invalid value."
	}
}
