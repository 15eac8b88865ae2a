// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/unsocial/internal/services/profiles"
	"codeberg.org/oliverandrich/unsocial/internal/validation"
)

// envelope is the uniform response body: a human-readable (or symbolic)
// message plus an optional payload.
type envelope struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func respond(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, envelope{Message: message, Data: data})
}

// bindAndValidate decodes the request body into dst and runs the request
// schema over it. Malformed bodies surface as a root-level validation error.
func (h *Handlers) bindAndValidate(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return validation.NewError("body", "Invalid request body.")
	}
	if err := h.validator.Check(dst); err != nil {
		return err
	}
	return nil
}

// queryInt parses an optional integer query parameter. The strict variant
// rejects unparsable values, the lenient one falls back to the default.
func queryInt(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func queryIntLenient(c echo.Context, name string, def int) int {
	v, err := queryInt(c, name, def)
	if err != nil {
		return def
	}
	return v
}

func formBool(c echo.Context, name string) bool {
	v, err := strconv.ParseBool(c.FormValue(name))
	return err == nil && v
}

const maxPictureSize = 1 << 20 // 1MB per image

var allowedPictureTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
}

// spoolUpload writes the named multipart file to a temporary file and returns
// a reference to it. A missing file is not an error; the caller owns the
// temporary file afterwards.
func spoolUpload(c echo.Context, name string) (*profiles.ImageUpload, error) {
	header, err := c.FormFile(name)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}

	if header.Size > maxPictureSize {
		return nil, validation.NewError(name, "Maximum file size can be 1MB.")
	}
	contentType := header.Header.Get("Content-Type")
	if !allowedPictureTypes[contentType] {
		return nil, validation.NewError(name, "File type must be png or jpeg.")
	}

	src, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "unsocial-upload-*")
	if err != nil {
		return nil, err
	}
	if err := copyAndClose(tmp, src); err != nil {
		os.Remove(tmp.Name())
		return nil, err
	}

	return &profiles.ImageUpload{TempPath: tmp.Name(), ContentType: contentType}, nil
}

func copyAndClose(dst *os.File, src multipart.File) error {
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

func discardUpload(upload *profiles.ImageUpload) {
	if upload != nil {
		os.Remove(upload.TempPath)
	}
}
