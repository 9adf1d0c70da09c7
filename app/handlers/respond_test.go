package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/klioshop/klio/app/helpers"
	"github.com/klioshop/klio/app/models"
	"github.com/klioshop/klio/app/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unrolled/render"
)

func TestWriteError(t *testing.T) {
	rd := render.New(render.Options{Directory: t.TempDir()})

	tests := []struct {
		name   string
		err    error
		status int
		body   map[string]interface{}
	}{
		{
			name:   "field errors",
			err:    fmt.Errorf("save: %w", models.FieldErrors{"email": "Enter a valid email address."}),
			status: http.StatusBadRequest,
			body:   map[string]interface{}{"email": "Enter a valid email address."},
		},
		{
			name:   "detail error",
			err:    services.ErrOrderNotFound,
			status: http.StatusNotFound,
			body:   map[string]interface{}{"detail": services.ErrOrderNotFound.Detail},
		},
		{
			name:   "registration error",
			err:    &services.RegistrationError{Message: "Account is already active.", Code: http.StatusBadRequest},
			status: http.StatusBadRequest,
			body:   map[string]interface{}{"detail": "Account is already active."},
		},
		{
			name:   "bad json",
			err:    fmt.Errorf("%w: unexpected EOF", helpers.ErrInvalidJSON),
			status: http.StatusBadRequest,
			body:   map[string]interface{}{"detail": "JSON parse error."},
		},
		{
			name:   "anything else",
			err:    errors.New("connection reset"),
			status: http.StatusInternalServerError,
			body:   map[string]interface{}{"detail": "Internal server error."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(rd, w, httptest.NewRequest(http.MethodGet, "/api/v1/x", nil), tt.err)

			assert.Equal(t, tt.status, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.body, body)
		})
	}
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func TestDecodeAndValidate(t *testing.T) {
	rd := render.New(render.Options{Directory: t.TempDir()})
	v := helpers.NewValidator()

	t.Run("valid", func(t *testing.T) {
		var in loginInput
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.ru","password":"x"}`))
		assert.True(t, DecodeAndValidate(rd, v, w, r, &in))
		assert.Equal(t, "a@b.ru", in.Email)
	})

	t.Run("missing field", func(t *testing.T) {
		var in loginInput
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.ru"}`))
		assert.False(t, DecodeAndValidate(rd, v, w, r, &in))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "password")
	})

	t.Run("broken body", func(t *testing.T) {
		var in loginInput
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":`))
		assert.False(t, DecodeAndValidate(rd, v, w, r, &in))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "JSON parse error.")
	})
}
