package middlewares

import (
	"net/http"

	"github.com/unrolled/render"
	"go.uber.org/zap"
)

// AdminOnly lets staff users through. Anonymous requests get 401, other
// users 403.
func AdminOnly(rd *render.Render) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r)
			if user == nil {
				_ = rd.JSON(w, http.StatusUnauthorized, map[string]interface{}{
					"detail": "Authentication credentials were not provided.",
				})
				return
			}
			if !user.IsStaff {
				zap.L().Warn("AdminOnly: non-staff user tried the back office",
					zap.String("user_id", user.ID), zap.String("path", r.URL.Path))
				_ = rd.JSON(w, http.StatusForbidden, map[string]interface{}{
					"detail": "You do not have permission to perform this action.",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
