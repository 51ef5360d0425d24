package game

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/civicquest/backend/internal/auth"
	"github.com/civicquest/backend/internal/models"
	"github.com/civicquest/backend/internal/store"
)

// LeaderboardSize caps how many users the leaderboard returns.
const LeaderboardSize = 10

// ScoreStore defines the interface for high-score persistence.
type ScoreStore interface {
	// SaveHighScore applies score only if strictly greater than the stored
	// high score, returning the resulting value and whether it changed.
	SaveHighScore(ctx context.Context, userID int64, score int) (int, bool, error)
	TopUsers(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

// Handler holds the game score HTTP handlers.
type Handler struct {
	scores ScoreStore
	log    *zap.Logger
}

func NewHandler(scores ScoreStore, log *zap.Logger) *Handler {
	return &Handler{scores: scores, log: log}
}

// SaveScore updates the caller's high score if the submitted score beats it.
// A lower or equal score leaves the stored value untouched.
func (h *Handler) SaveScore(w http.ResponseWriter, r *http.Request) {
	sess := auth.FromContext(r.Context())
	if sess == nil {
		http.Error(w, `{"error":"Please log in to save your score"}`, http.StatusUnauthorized)
		return
	}

	var req models.ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.Score == nil {
		http.Error(w, `{"error":"Score is required"}`, http.StatusBadRequest)
		return
	}

	high, updated, err := h.scores.SaveHighScore(r.Context(), sess.UserID, *req.Score)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, `{"error":"Not authenticated"}`, http.StatusUnauthorized)
		return
	}
	if err != nil {
		h.log.Error("save high score", zap.Error(err))
		http.Error(w, `{"error":"Failed to update score"}`, http.StatusInternalServerError)
		return
	}

	msg := "Score not higher than existing high score."
	if updated {
		msg = "New high score saved!"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":    msg,
		"high_score": high,
	})
}

// Leaderboard returns the top users by high score.
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.scores.TopUsers(r.Context(), LeaderboardSize)
	if err != nil {
		h.log.Error("leaderboard", zap.Error(err))
		http.Error(w, `{"error":"Failed to fetch leaderboard"}`, http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
