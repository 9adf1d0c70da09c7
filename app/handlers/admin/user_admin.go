package admin

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/klioshop/klio/app/handlers"
	"github.com/klioshop/klio/app/helpers"
	"github.com/klioshop/klio/app/middlewares"
	"github.com/klioshop/klio/app/models"
	"github.com/klioshop/klio/app/services"
	"go.uber.org/zap"
)

// staffUserView exposes the flags the public user JSON hides.
type staffUserView struct {
	*models.User
	IsStaff bool `json:"is_staff"`
}

type userFlagsRequest struct {
	IsActive *bool `json:"is_active"`
	IsStaff  *bool `json:"is_staff"`
}

func (h *AdminHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context(), r.URL.Query().Get("staff") == "1")
	if err != nil {
		handlers.WriteError(h.render, w, r, err)
		return
	}
	views := make([]staffUserView, 0, len(users))
	for i := range users {
		views = append(views, staffUserView{User: &users[i], IsStaff: users[i].IsStaff})
	}
	h.render.JSON(w, http.StatusOK, views)
}

func (h *AdminHandler) findUser(w http.ResponseWriter, r *http.Request) *models.User {
	user, err := h.users.FindByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		handlers.WriteError(h.render, w, r, err)
		return nil
	}
	if user == nil {
		handlers.WriteError(h.render, w, r, services.ErrNotFound)
		return nil
	}
	return user
}

func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	if user := h.findUser(w, r); user != nil {
		h.render.JSON(w, http.StatusOK, staffUserView{User: user, IsStaff: user.IsStaff})
	}
}

// UpdateUser toggles activity and staff access. Staff can not revoke their
// own access.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	user := h.findUser(w, r)
	if user == nil {
		return
	}

	var req userFlagsRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		handlers.WriteError(h.render, w, r, err)
		return
	}
	if current := middlewares.CurrentUser(r); current != nil && current.ID == user.ID {
		if (req.IsStaff != nil && !*req.IsStaff) || (req.IsActive != nil && !*req.IsActive) {
			handlers.WriteError(h.render, w, r, models.FieldErrors{"is_staff": "You can not revoke your own access."})
			return
		}
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.IsStaff != nil {
		user.IsStaff = *req.IsStaff
	}

	if err := h.users.Update(r.Context(), user); err != nil {
		handlers.WriteError(h.render, w, r, err)
		return
	}
	zap.L().Info("AdminHandler.UpdateUser: flags changed",
		zap.String("user_id", user.ID), zap.Bool("is_active", user.IsActive), zap.Bool("is_staff", user.IsStaff))
	h.render.JSON(w, http.StatusOK, staffUserView{User: user, IsStaff: user.IsStaff})
}
