package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/civicquest/backend/internal/models"
	"github.com/civicquest/backend/internal/store"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	users    UserStore
	sessions SessionStore
	log      *zap.Logger
}

func NewHandler(users UserStore, sessions SessionStore, log *zap.Logger) *Handler {
	return &Handler{users: users, sessions: sessions, log: log}
}

// Signup creates a new user and logs it in. This is the only path that
// creates a user row.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		http.Error(w, `{"error":"Username and password are required"}`, http.StatusBadRequest)
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		h.log.Error("hash password", zap.Error(err))
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	user, err := h.users.CreateUser(r.Context(), req.Username, hash)
	if errors.Is(err, store.ErrUsernameTaken) {
		http.Error(w, `{"error":"Username already taken"}`, http.StatusConflict)
		return
	}
	if err != nil {
		h.log.Error("create user", zap.Error(err))
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	if err := h.startSession(w, r, user); err != nil {
		h.log.Error("create session", zap.Error(err))
		http.Error(w, `{"error":"session creation failed"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login authenticates a user and creates a session. Unknown usernames and
// wrong passwords return the same response so usernames cannot be enumerated.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		http.Error(w, `{"error":"Username and password are required"}`, http.StatusBadRequest)
		return
	}

	user, err := h.users.GetUserByUsername(r.Context(), req.Username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.log.Error("get user", zap.Error(err))
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if user == nil || !CheckPassword(req.Password, user.PasswordHash) {
		http.Error(w, `{"error":"Invalid username or password"}`, http.StatusUnauthorized)
		return
	}

	if err := h.startSession(w, r, user); err != nil {
		h.log.Error("create session", zap.Error(err))
		http.Error(w, `{"error":"session creation failed"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Logout destroys the current session. It always succeeds, authenticated
// or not.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if err := h.sessions.Delete(r.Context(), cookie.Value); err != nil {
			h.log.Warn("delete session", zap.Error(err))
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// Me returns the currently authenticated user's row.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	sess := FromContext(r.Context())
	if sess == nil {
		http.Error(w, `{"error":"Not authenticated"}`, http.StatusUnauthorized)
		return
	}

	user, err := h.users.GetUserByID(r.Context(), sess.UserID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, `{"error":"Not authenticated"}`, http.StatusUnauthorized)
		return
	}
	if err != nil {
		h.log.Error("get user by id", zap.Error(err))
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// startSession binds a session to the user and sets the cookie.
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, user *models.User) error {
	sid, err := h.sessions.Create(r.Context(), user.ID, user.Username)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionTTL / time.Second),
	})
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
