package handlers

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/klioshop/klio/app/helpers"
	"github.com/klioshop/klio/app/models"
	"github.com/klioshop/klio/app/repositories"
	"github.com/klioshop/klio/app/services"
	"github.com/unrolled/render"
	"go.uber.org/zap"
)

// WriteError maps a service error onto the response. Field errors become a
// 400 keyed by field, detail errors carry their own status and anything
// else is a logged 500.
func WriteError(rd *render.Render, w http.ResponseWriter, r *http.Request, err error) {
	var fieldErrs models.FieldErrors
	var detailErr *services.DetailError
	var regErr *services.RegistrationError

	switch {
	case errors.As(err, &fieldErrs):
		_ = rd.JSON(w, http.StatusBadRequest, fieldErrs)
	case errors.As(err, &detailErr):
		_ = rd.JSON(w, detailErr.Status, map[string]interface{}{"detail": detailErr.Detail})
	case errors.As(err, &regErr):
		_ = rd.JSON(w, regErr.Code, map[string]interface{}{"detail": regErr.Message})
	case errors.Is(err, helpers.ErrInvalidJSON):
		_ = rd.JSON(w, http.StatusBadRequest, map[string]interface{}{"detail": "JSON parse error."})
	default:
		zap.L().Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		_ = rd.JSON(w, http.StatusInternalServerError, map[string]interface{}{"detail": "Internal server error."})
	}
}

// DecodeAndValidate reads the JSON body into dst and validates it. It writes
// the 400 itself and reports false when the request cannot go on.
func DecodeAndValidate(rd *render.Render, v *validator.Validate, w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := helpers.DecodeJSON(r, dst); err != nil {
		WriteError(rd, w, r, err)
		return false
	}
	if v == nil {
		return true
	}
	if errs := helpers.ValidateStruct(v, dst); errs != nil {
		_ = rd.JSON(w, http.StatusBadRequest, errs)
		return false
	}
	return true
}

// ownerOf identifies whose basket and orders a request works with.
func ownerOf(r *http.Request) repositories.Owner {
	ctx := r.Context()
	userID, _ := ctx.Value(helpers.ContextKeyUserID).(string)
	sessionKey, _ := ctx.Value(helpers.ContextKeySessionKey).(string)
	return repositories.Owner{UserID: userID, SessionKey: sessionKey}
}

func userIDOf(r *http.Request) string {
	userID, _ := r.Context().Value(helpers.ContextKeyUserID).(string)
	return userID
}

func detail(msg string) map[string]interface{} {
	return map[string]interface{}{"detail": msg}
}
