package sessions

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	sessionCookieName = "klio-session"

	userIDSessionKey    = "userID"
	basketKeySessionKey = "basketKey"
)

type SessionStore interface {
	GetUserID(r *http.Request) string
	SetUserID(w http.ResponseWriter, r *http.Request, userID string) error
	ClearUserID(w http.ResponseWriter, r *http.Request) error

	// GetSessionKey returns the anonymous basket key, empty when none was
	// issued yet.
	GetSessionKey(r *http.Request) string
	// EnsureSessionKey returns the anonymous basket key, issuing one first
	// when needed.
	EnsureSessionKey(w http.ResponseWriter, r *http.Request) (string, error)
	ClearSessionKey(w http.ResponseWriter, r *http.Request) error

	ClearSession(w http.ResponseWriter, r *http.Request) error
}

type CookieSessionStore struct {
	store *sessions.CookieStore
}

func NewCookieSessionStore(secure bool, keyPairs ...[]byte) *CookieSessionStore {
	store := sessions.NewCookieStore(keyPairs...)

	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(30 * 24 * time.Hour / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &CookieSessionStore{store: store}
}

// getSession never fails: a cookie that no longer decodes yields a fresh
// session.
func (c *CookieSessionStore) getSession(r *http.Request) *sessions.Session {
	session, err := c.store.Get(r, sessionCookieName)
	if err != nil {
		zap.L().Debug("CookieSessionStore: discarding undecodable session", zap.Error(err))
	}
	return session
}

func (c *CookieSessionStore) getString(r *http.Request, key string) string {
	value, ok := c.getSession(r).Values[key].(string)
	if !ok {
		return ""
	}
	return value
}

func (c *CookieSessionStore) set(w http.ResponseWriter, r *http.Request, key string, value interface{}) error {
	session := c.getSession(r)
	if value == nil {
		delete(session.Values, key)
	} else {
		session.Values[key] = value
	}
	return session.Save(r, w)
}

func (c *CookieSessionStore) GetUserID(r *http.Request) string {
	return c.getString(r, userIDSessionKey)
}

func (c *CookieSessionStore) SetUserID(w http.ResponseWriter, r *http.Request, userID string) error {
	return c.set(w, r, userIDSessionKey, userID)
}

func (c *CookieSessionStore) ClearUserID(w http.ResponseWriter, r *http.Request) error {
	return c.set(w, r, userIDSessionKey, nil)
}

func (c *CookieSessionStore) GetSessionKey(r *http.Request) string {
	return c.getString(r, basketKeySessionKey)
}

func (c *CookieSessionStore) EnsureSessionKey(w http.ResponseWriter, r *http.Request) (string, error) {
	if key := c.GetSessionKey(r); key != "" {
		return key, nil
	}
	key := uuid.NewString()
	if err := c.set(w, r, basketKeySessionKey, key); err != nil {
		return "", err
	}
	return key, nil
}

func (c *CookieSessionStore) ClearSessionKey(w http.ResponseWriter, r *http.Request) error {
	return c.set(w, r, basketKeySessionKey, nil)
}

func (c *CookieSessionStore) ClearSession(w http.ResponseWriter, r *http.Request) error {
	session := c.getSession(r)
	session.Values = make(map[interface{}]interface{})
	session.Options.MaxAge = -1
	return session.Save(r, w)
}
