package sessions

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/securecookie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore() *CookieSessionStore {
	return NewCookieSessionStore(false, securecookie.GenerateRandomKey(32), securecookie.GenerateRandomKey(32))
}

func roundTrip(t *testing.T, rec *httptest.ResponseRecorder) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestCookieSessionStore_UserID(t *testing.T) {
	store := newStore()

	rec := httptest.NewRecorder()
	require.NoError(t, store.SetUserID(rec, httptest.NewRequest(http.MethodGet, "/", nil), "user-1"))

	req := roundTrip(t, rec)
	assert.Equal(t, "user-1", store.GetUserID(req))

	rec = httptest.NewRecorder()
	require.NoError(t, store.ClearUserID(rec, req))
	assert.Empty(t, store.GetUserID(roundTrip(t, rec)))
}

func TestCookieSessionStore_EnsureSessionKeyIsStable(t *testing.T) {
	store := newStore()

	rec := httptest.NewRecorder()
	key, err := store.EnsureSessionKey(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.NotEmpty(t, key)

	req := roundTrip(t, rec)
	again, err := store.EnsureSessionKey(httptest.NewRecorder(), req)
	require.NoError(t, err)
	assert.Equal(t, key, again)
	assert.Equal(t, key, store.GetSessionKey(req))
}

func TestCookieSessionStore_ForeignCookieIsIgnored(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, newStore().SetUserID(rec, httptest.NewRequest(http.MethodGet, "/", nil), "user-1"))

	assert.Empty(t, newStore().GetUserID(roundTrip(t, rec)))
}
