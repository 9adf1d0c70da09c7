package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/klioshop/klio/app/helpers"
	"github.com/klioshop/klio/app/models"
	"github.com/klioshop/klio/app/models/migrations"
	"github.com/klioshop/klio/app/repositories"
	"github.com/klioshop/klio/app/utils/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestUsers(t *testing.T) (*gorm.DB, repositories.UserRepositoryImpl) {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migrations.AutoMigrate(db))
	return db, repositories.NewUserRepository(db)
}

// lastCookieRequest builds the follow-up request a browser would send: when
// a response sets the same cookie twice, the last one wins.
func lastCookieRequest(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	latest := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		latest[c.Name] = c
	}
	for _, c := range latest {
		req.AddCookie(c)
	}
	return req
}

func sessionKeyOf(r *http.Request) string {
	key, _ := r.Context().Value(helpers.ContextKeySessionKey).(string)
	return key
}

func TestSessionMiddleware_LoginKeepsBasketKey(t *testing.T) {
	db, users := newTestUsers(t)
	user := &models.User{Email: "anna@klio.test", Username: "anna@klio.test", Password: "x", IsActive: true}
	require.NoError(t, db.Create(user).Error)

	store := sessions.NewCookieSessionStore(false, securecookie.GenerateRandomKey(32), securecookie.GenerateRandomKey(32))
	mw := SessionMiddleware(store, users)

	var issued string
	login := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		issued = sessionKeyOf(r)
		assert.Nil(t, CurrentUser(r))
		require.NoError(t, store.SetUserID(w, r, user.ID))
	}))
	rec := httptest.NewRecorder()
	login.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil))
	require.NotEmpty(t, issued)

	var seenKey string
	var seenUser *models.User
	next := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenKey = sessionKeyOf(r)
		seenUser = CurrentUser(r)
	}))
	next.ServeHTTP(httptest.NewRecorder(), lastCookieRequest(rec))

	assert.Equal(t, issued, seenKey)
	require.NotNil(t, seenUser)
	assert.Equal(t, user.ID, seenUser.ID)
}

func TestSessionMiddleware_InactiveUserIsAnonymous(t *testing.T) {
	db, users := newTestUsers(t)
	user := &models.User{Email: "off@klio.test", Username: "off@klio.test", Password: "x"}
	require.NoError(t, db.Create(user).Error)

	store := sessions.NewCookieSessionStore(false, securecookie.GenerateRandomKey(32), securecookie.GenerateRandomKey(32))
	rec := httptest.NewRecorder()
	require.NoError(t, store.SetUserID(rec, httptest.NewRequest(http.MethodGet, "/", nil), user.ID))

	var seen *models.User
	var key string
	SessionMiddleware(store, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CurrentUser(r)
		key = sessionKeyOf(r)
	})).ServeHTTP(httptest.NewRecorder(), lastCookieRequest(rec))

	assert.Nil(t, seen)
	assert.NotEmpty(t, key)
}
