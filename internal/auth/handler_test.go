package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/civicquest/backend/internal/models"
	"github.com/civicquest/backend/internal/store"
)

// --- fakes ---

type fakeUserStore struct {
	byName map[string]*models.User
	nextID int64

	createErr error
	getErr    error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byName: map[string]*models.User{}}
}

func (f *fakeUserStore) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.byName[username]; ok {
		return nil, store.ErrUsernameTaken
	}
	f.nextID++
	u := &models.User{ID: f.nextID, Username: username, PasswordHash: passwordHash}
	f.byName[username] = u
	return u, nil
}

func (f *fakeUserStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byName[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	for _, u := range f.byName {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

type fakeSessionStore struct {
	sessions map[string]*Session
	nextSID  int
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[string]*Session{}}
}

func (f *fakeSessionStore) Create(ctx context.Context, userID int64, username string) (string, error) {
	f.nextSID++
	sid := fmt.Sprintf("sid-%d", f.nextSID)
	f.sessions[sid] = &Session{UserID: userID, Username: username}
	return sid, nil
}

func (f *fakeSessionStore) Get(ctx context.Context, sid string) (*Session, error) {
	return f.sessions[sid], nil
}

func (f *fakeSessionStore) Delete(ctx context.Context, sid string) error {
	delete(f.sessions, sid)
	return nil
}

// --- helpers ---

func newTestHandler() (*Handler, *fakeUserStore, *fakeSessionStore) {
	users := newFakeUserStore()
	sessions := newFakeSessionStore()
	return NewHandler(users, sessions, zap.NewNop()), users, sessions
}

func doJSON(t *testing.T, fn http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	fn(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func sessionCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	return nil
}

// --- tests ---

func TestSignupCreatesUserAndLogsIn(t *testing.T) {
	h, users, sessions := newTestHandler()

	rr := doJSON(t, h.Signup, `{"username":"alice","password":"pw123"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	body := decodeBody(t, rr)
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, float64(0), body["high_score"])
	assert.NotContains(t, body, "password_hash")

	cookie := sessionCookie(rr)
	require.NotNil(t, cookie, "signup must set a session cookie")
	sess := sessions.sessions[cookie.Value]
	require.NotNil(t, sess)
	assert.Equal(t, "alice", sess.Username)

	// The stored hash must not be the plaintext and must verify.
	u := users.byName["alice"]
	require.NotNil(t, u)
	assert.NotEqual(t, "pw123", u.PasswordHash)
	assert.True(t, CheckPassword("pw123", u.PasswordHash))
}

func TestSignupMissingFields(t *testing.T) {
	h, users, _ := newTestHandler()

	for _, body := range []string{
		`{"username":"alice"}`,
		`{"password":"pw123"}`,
		`{"username":"","password":"pw123"}`,
		`{}`,
	} {
		rr := doJSON(t, h.Signup, body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, "body: %s", body)
	}
	assert.Empty(t, users.byName, "no user row may be created on validation failure")
}

func TestSignupDuplicateUsername(t *testing.T) {
	h, _, _ := newTestHandler()

	rr := doJSON(t, h.Signup, `{"username":"alice","password":"pw123"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doJSON(t, h.Signup, `{"username":"alice","password":"other"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, decodeBody(t, rr), "error")
}

func TestLoginAfterSignup(t *testing.T) {
	h, _, _ := newTestHandler()

	doJSON(t, h.Signup, `{"username":"alice","password":"pw123"}`)

	rr := doJSON(t, h.Login, `{"username":"alice","password":"pw123"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "alice", body["username"])
	assert.NotNil(t, sessionCookie(rr))
}

func TestLoginCollapsesFailureModes(t *testing.T) {
	h, _, _ := newTestHandler()
	doJSON(t, h.Signup, `{"username":"alice","password":"pw123"}`)

	wrongPw := doJSON(t, h.Login, `{"username":"alice","password":"wrongpw"}`)
	noUser := doJSON(t, h.Login, `{"username":"nobody","password":"pw123"}`)

	assert.Equal(t, http.StatusUnauthorized, wrongPw.Code)
	assert.Equal(t, http.StatusUnauthorized, noUser.Code)
	// Same body for both, so usernames cannot be enumerated.
	assert.Equal(t, wrongPw.Body.String(), noUser.Body.String())
}

func TestLoginMissingFields(t *testing.T) {
	h, _, _ := newTestHandler()
	rr := doJSON(t, h.Login, `{"username":"alice"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLogoutAlwaysSucceeds(t *testing.T) {
	h, _, sessions := newTestHandler()

	// Anonymous logout.
	rr := doJSON(t, h.Logout, ``)
	assert.Equal(t, http.StatusOK, rr.Code)

	// Authenticated logout destroys the binding and clears the cookie.
	signup := doJSON(t, h.Signup, `{"username":"alice","password":"pw123"}`)
	sid := sessionCookie(signup).Value

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: sid})
	rr = httptest.NewRecorder()
	h.Logout(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, sessions.sessions, sid)
	cleared := sessionCookie(rr)
	require.NotNil(t, cleared)
	assert.Less(t, cleared.MaxAge, 0)
}

func TestMe(t *testing.T) {
	h, users, _ := newTestHandler()
	doJSON(t, h.Signup, `{"username":"alice","password":"pw123"}`)

	// No identity in context.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	h.Me(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// Bound identity resolves to the current row.
	ctx := WithSession(req.Context(), &Session{UserID: 1, Username: "alice"})
	rr = httptest.NewRecorder()
	h.Me(rr, req.WithContext(ctx))
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, float64(1), body["id"])

	// Row gone means not authenticated, not a 404.
	delete(users.byName, "alice")
	rr = httptest.NewRecorder()
	h.Me(rr, req.WithContext(ctx))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
