package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/klioshop/klio/app/middlewares"
	"github.com/klioshop/klio/app/services"
	"github.com/klioshop/klio/app/utils/sessions"
	"github.com/unrolled/render"
	"go.uber.org/zap"
)

type AuthHandler struct {
	render       *render.Render
	auth         *services.AuthService
	baskets      *services.BasketService
	sessionStore sessions.SessionStore
	validator    *validator.Validate
}

func NewAuthHandler(r *render.Render, auth *services.AuthService, baskets *services.BasketService, sessionStore sessions.SessionStore, validator *validator.Validate) *AuthHandler {
	return &AuthHandler{
		render:       r,
		auth:         auth,
		baskets:      baskets,
		sessionStore: sessionStore,
		validator:    validator,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if !DecodeAndValidate(h.render, h.validator, w, r, &in) {
		return
	}
	user, err := h.auth.Register(r.Context(), in)
	if err != nil {
		WriteError(h.render, w, r, err)
		return
	}
	h.render.JSON(w, http.StatusOK, map[string]interface{}{
		"detail": "The account is registered. Check your email to activate it.",
		"id":     user.ID,
	})
}

func (h *AuthHandler) Activate(w http.ResponseWriter, r *http.Request) {
	if _, err := h.auth.Activate(r.Context(), mux.Vars(r)["activation_key"]); err != nil {
		WriteError(h.render, w, r, err)
		return
	}
	h.render.JSON(w, http.StatusOK, detail("The account is successfully activated! Now you can log in."))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates and stores the user in the session. The anonymous
// basket of the session moves to the user when the user has none.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if !DecodeAndValidate(h.render, nil, w, r, &in) {
		return
	}
	ctx := r.Context()
	user, err := h.auth.Authenticate(ctx, in.Email, in.Password)
	if err != nil {
		WriteError(h.render, w, r, err)
		return
	}

	if sessionKey := ownerOf(r).SessionKey; sessionKey != "" {
		if err := h.baskets.Adopt(ctx, sessionKey, user.ID); err != nil {
			zap.L().Error("AuthHandler.Login: failed to adopt anonymous basket", zap.String("user_id", user.ID), zap.Error(err))
		}
	}
	if err := h.sessionStore.SetUserID(w, r, user.ID); err != nil {
		WriteError(h.render, w, r, err)
		return
	}
	zap.L().Info("AuthHandler.Login: user logged in", zap.String("user_id", user.ID))
	h.render.JSON(w, http.StatusOK, user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessionStore.ClearUserID(w, r); err != nil {
		WriteError(h.render, w, r, err)
		return
	}
	h.render.JSON(w, http.StatusOK, detail("Successfully logged out."))
}

type resetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var in resetRequest
	if !DecodeAndValidate(h.render, h.validator, w, r, &in) {
		return
	}
	if err := h.auth.RequestPasswordReset(r.Context(), in.Email); err != nil {
		WriteError(h.render, w, r, err)
		return
	}
	h.render.JSON(w, http.StatusOK, detail("Password reset email has been sent."))
}

func (h *AuthHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	var in services.ResetInput
	if !DecodeAndValidate(h.render, nil, w, r, &in) {
		return
	}
	vars := mux.Vars(r)
	if err := h.auth.ResetPassword(r.Context(), vars["user_id"], vars["reset_key"], in); err != nil {
		WriteError(h.render, w, r, err)
		return
	}
	h.render.JSON(w, http.StatusOK, detail("The password is successfully reset! Now you can log in."))
}

func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	h.render.JSON(w, http.StatusOK, middlewares.CurrentUser(r))
}

func (h *AuthHandler) UpdateCurrentUser(w http.ResponseWriter, r *http.Request) {
	var in services.ProfileUpdate
	if !DecodeAndValidate(h.render, h.validator, w, r, &in) {
		return
	}
	user, err := h.auth.UpdateProfile(r.Context(), userIDOf(r), in)
	if err != nil {
		WriteError(h.render, w, r, err)
		return
	}
	h.render.JSON(w, http.StatusOK, user)
}
