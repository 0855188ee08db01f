package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/johnrirwin/autolot/internal/images"
	"github.com/johnrirwin/autolot/internal/logging"
	"github.com/johnrirwin/autolot/internal/metrics"
	"github.com/johnrirwin/autolot/internal/models"
)

// PhotoAPI moderates sell-request photos before the request is submitted
type PhotoAPI struct {
	imageSvc *images.Service
	metrics  *metrics.Metrics
	logger   *logging.Logger
}

// NewPhotoAPI creates a new photo upload handler.
func NewPhotoAPI(imageSvc *images.Service, m *metrics.Metrics, logger *logging.Logger) *PhotoAPI {
	return &PhotoAPI{
		imageSvc: imageSvc,
		metrics:  m,
		logger:   logger,
	}
}

// RegisterRoutes registers photo routes.
func (api *PhotoAPI) RegisterRoutes(mux *http.ServeMux, corsMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/sell/photos", corsMiddleware(api.handleUpload))
}

// handleUpload handles POST /api/sell/photos with a multipart "image" field.
// Approved photos come back with an uploadId to reference from the sell request.
func (api *PhotoAPI) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	maxSize := int64(images.MaxPhotoBytes + 1024*1024)
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		api.reject(w, http.StatusBadRequest, "Invalid upload payload")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		api.reject(w, http.StatusBadRequest, "Image file is required")
		return
	}
	defer file.Close()

	if header.Size > images.MaxPhotoBytes {
		api.reject(w, http.StatusBadRequest, "Image must be less than 2MB")
		return
	}

	imageData, err := io.ReadAll(io.LimitReader(file, images.MaxPhotoBytes+1))
	if err != nil {
		api.reject(w, http.StatusInternalServerError, "Failed to read image")
		return
	}
	contentType, err := images.CheckPhoto(imageData)
	switch {
	case errors.Is(err, images.ErrPhotoTooLarge):
		api.reject(w, http.StatusBadRequest, "Image must be less than 2MB")
		return
	case errors.Is(err, images.ErrEmptyPhoto):
		api.reject(w, http.StatusBadRequest, "Image file is required")
		return
	case err != nil:
		api.reject(w, http.StatusBadRequest, "Only JPEG, PNG and WebP images are allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	result, err := api.imageSvc.ModerateUpload(ctx, contentType, imageData)
	if err != nil {
		api.logger.Error("Photo moderation failed", logging.WithField("error", err.Error()))
		api.reject(w, http.StatusInternalServerError, "Unable to verify right now")
		return
	}

	api.metrics.Photo(string(result.Status))
	if result.Status != models.ImageModerationApproved {
		api.logger.Info("Sell photo not approved", logging.WithFields(map[string]interface{}{
			"status": string(result.Status),
			"reason": result.Reason,
		}))
	}

	writeJSON(w, http.StatusOK, result)
}

func (api *PhotoAPI) reject(w http.ResponseWriter, status int, reason string) {
	writeJSON(w, status, models.PhotoUploadResult{
		Status: models.ImageModerationPendingReview,
		Reason: reason,
	})
}
