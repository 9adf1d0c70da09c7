package middlewares

import (
	"context"
	"net/http"
	"time"

	"github.com/klioshop/klio/app/helpers"
	"github.com/klioshop/klio/app/models"
	"github.com/klioshop/klio/app/repositories"
	"github.com/klioshop/klio/app/utils/sessions"
	"github.com/rs/cors"
	"github.com/unrolled/render"
	"go.uber.org/zap"
)

// SessionMiddleware puts the session user and the anonymous basket key
// into the request context. A user id that no longer resolves to an active
// user is treated as anonymous.
func SessionMiddleware(store sessions.SessionStore, users repositories.UserRepositoryImpl) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := store.GetUserID(r)
			key, err := store.EnsureSessionKey(w, r)
			if err != nil {
				zap.L().Warn("SessionMiddleware: could not issue session key", zap.Error(err))
			}

			// r carries the session registry only after the store was read
			ctx := context.WithValue(r.Context(), helpers.ContextKeySessionKey, key)

			if userID != "" {
				user, err := users.FindByID(ctx, userID)
				if err != nil {
					zap.L().Error("SessionMiddleware: failed to load session user", zap.String("user_id", userID), zap.Error(err))
				}
				if user != nil && user.IsActive {
					ctx = context.WithValue(ctx, helpers.ContextKeyUserID, user.ID)
					ctx = context.WithValue(ctx, helpers.ContextKeyUser, user)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CurrentUser returns the authenticated user or nil.
func CurrentUser(r *http.Request) *models.User {
	user, _ := r.Context().Value(helpers.ContextKeyUser).(*models.User)
	return user
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(rd *render.Render) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if CurrentUser(r) == nil {
				_ = rd.JSON(w, http.StatusUnauthorized, map[string]interface{}{
					"detail": "Authentication credentials were not provided.",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CORS allows the configured storefront origins with credentials so the
// session cookie travels with API calls.
func CORS(origins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-CSRF-Token", "X-Requested-With"},
		AllowCredentials: true,
	})
	return c.Handler
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		zap.L().Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)),
		)
	})
}
