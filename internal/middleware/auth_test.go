package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicquest/backend/internal/auth"
)

type fakeSessions struct {
	sessions map[string]*auth.Session
}

func (f *fakeSessions) Create(ctx context.Context, userID int64, username string) (string, error) {
	return "", nil
}

func (f *fakeSessions) Get(ctx context.Context, sid string) (*auth.Session, error) {
	return f.sessions[sid], nil
}

func (f *fakeSessions) Delete(ctx context.Context, sid string) error {
	return nil
}

func TestRequireAuth(t *testing.T) {
	sessions := &fakeSessions{sessions: map[string]*auth.Session{
		"good-sid": {UserID: 7, Username: "alice"},
	}}

	var seen *auth.Session
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.FromContext(r.Context())
	})
	protected := RequireAuth(sessions)(next)

	t.Run("no cookie", func(t *testing.T) {
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("unknown session id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: "forged"})
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("valid session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: "good-sid"})
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		require.NotNil(t, seen)
		assert.Equal(t, int64(7), seen.UserID)
		assert.Equal(t, "alice", seen.Username)
	})
}
