package issues

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civicquest/backend/internal/auth"
	"github.com/civicquest/backend/internal/models"
)

const maxPhotoSize = 10 << 20 // 10 MiB

// IssueStore defines the interface for issue persistence.
type IssueStore interface {
	InsertIssue(ctx context.Context, issue *models.Issue) (*models.Issue, error)
	ListIssues(ctx context.Context) ([]models.Issue, error)
}

// PhotoStore defines the interface for photo object storage.
type PhotoStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, string, error)
}

// Handler holds issue HTTP handlers.
type Handler struct {
	issues IssueStore
	photos PhotoStore
	log    *zap.Logger

	// now is a seam for tests.
	now func() time.Time
}

func NewHandler(issues IssueStore, photos PhotoStore, log *zap.Logger) *Handler {
	return &Handler{issues: issues, photos: photos, log: log, now: time.Now}
}

// List returns all issues, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.issues.ListIssues(r.Context())
	if err != nil {
		h.log.Error("list issues", zap.Error(err))
		http.Error(w, `{"error":"Failed to fetch issues"}`, http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []models.Issue{}
	}
	writeJSON(w, http.StatusOK, list)
}

// Report submits a new issue for the authenticated user. The reward points in
// the response are informational; the client submits its score separately.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	sess := auth.FromContext(r.Context())
	if sess == nil {
		http.Error(w, `{"error":"Please log in to report an issue"}`, http.StatusUnauthorized)
		return
	}

	issueType := r.FormValue("type")
	location := r.FormValue("location")
	description := r.FormValue("description")
	if issueType == "" || location == "" || description == "" {
		http.Error(w, `{"error":"Missing required fields"}`, http.StatusBadRequest)
		return
	}

	photoURL := r.FormValue("photoUrl")
	if photoURL == "" {
		photoURL = models.NoPhoto
	}

	issue := &models.Issue{
		Type:        issueType,
		Location:    location,
		Description: description,
		Status:      models.StatusReported,
		PhotoURL:    photoURL,
		CreatedAt:   h.now().Unix(),
		UserID:      sess.UserID,
		Username:    sess.Username,
	}
	if _, err := h.issues.InsertIssue(r.Context(), issue); err != nil {
		h.log.Error("insert issue", zap.Error(err))
		http.Error(w, `{"error":"Failed to report issue"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Issue reported successfully!",
		"points":  10,
	})
}

// UploadPhoto stores a photo for a later report and returns its URL.
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	sess := auth.FromContext(r.Context())
	if sess == nil {
		http.Error(w, `{"error":"Not authenticated"}`, http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		http.Error(w, `{"error":"invalid multipart body"}`, http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		http.Error(w, `{"error":"photo file is required"}`, http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxPhotoSize))
	if err != nil {
		http.Error(w, `{"error":"failed to read photo"}`, http.StatusBadRequest)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := fmt.Sprintf("%d/%s%s", sess.UserID, uuid.New().String(), path.Ext(header.Filename))
	if err := h.photos.Upload(r.Context(), key, data, contentType); err != nil {
		h.log.Error("upload photo", zap.Error(err))
		http.Error(w, `{"error":"Failed to store photo"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"photoUrl": "/api/photos/" + key,
	})
}

// ServePhoto streams a stored photo.
func (h *Handler) ServePhoto(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	data, contentType, err := h.photos.Download(r.Context(), key)
	if err != nil {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
