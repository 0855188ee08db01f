// Package images holds approved sell-request photos until the request that uses them is submitted.
package images

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/johnrirwin/autolot/internal/models"
)

var (
	// ErrPendingUploadNotFound is returned when a pending upload token is missing/expired.
	ErrPendingUploadNotFound = errors.New("approved upload not found")
	// ErrUploadNotApproved is returned when a token does not refer to an approved photo.
	ErrUploadNotApproved = errors.New("upload is not approved")
)

const defaultPendingTTL = 30 * time.Minute

// Moderator defines the moderation abstraction used by image flows.
type Moderator interface {
	ModerateImageBytes(ctx context.Context, imageBytes []byte) (*models.ModerationDecision, error)
}

// PendingUpload is an approved photo waiting to be attached to a sell request.
type PendingUpload struct {
	ID          string                    `json:"id"`
	ContentType string                    `json:"contentType"`
	ImageBytes  []byte                    `json:"imageBytes"`
	Decision    models.ModerationDecision `json:"decision"`
	ExpiresAt   time.Time                 `json:"expiresAt"`
}

// PendingStore tracks approved uploads until they are claimed or expire.
type PendingStore interface {
	Put(upload PendingUpload) string
	Get(uploadID string) (*PendingUpload, bool)
	// Take returns the upload and removes it in one step, so only one caller gets it
	Take(uploadID string) (*PendingUpload, bool)
}

// Service orchestrates moderation and pending-token handling for uploads.
type Service struct {
	moderator Moderator
	pending   PendingStore
	timeout   time.Duration
}

// NewService creates a new image pipeline service.
func NewService(moderator Moderator, pending PendingStore, timeout time.Duration) *Service {
	return &Service{
		moderator: moderator,
		pending:   pending,
		timeout:   timeout,
	}
}

// ModerateUpload runs synchronous moderation and, if approved, stores a pending token.
// Moderation failures are reported as PENDING_REVIEW with no token rather than as errors.
func (s *Service) ModerateUpload(ctx context.Context, contentType string, imageBytes []byte) (*models.PhotoUploadResult, error) {
	if len(imageBytes) == 0 {
		return nil, fmt.Errorf("image bytes are required")
	}

	decision := s.moderate(ctx, imageBytes)
	if decision.Status != models.ImageModerationApproved {
		return &models.PhotoUploadResult{Status: decision.Status, Reason: decision.Reason}, nil
	}
	if s.pending == nil {
		return unverified(), nil
	}

	uploadID := s.pending.Put(PendingUpload{
		ContentType: contentType,
		ImageBytes:  imageBytes,
		Decision:    *decision,
	})
	if strings.TrimSpace(uploadID) == "" {
		return unverified(), nil
	}

	result := &models.PhotoUploadResult{
		Status:   decision.Status,
		Reason:   decision.Reason,
		UploadID: uploadID,
	}
	if upload, ok := s.pending.Get(uploadID); ok {
		expires := upload.ExpiresAt
		result.ExpiresAt = &expires
	}
	return result, nil
}

// Claim resolves every upload id and removes them from the pending store.
// Nothing is removed unless all ids resolve to approved uploads. A token
// taken by a concurrent claim fails this one with ErrPendingUploadNotFound.
func (s *Service) Claim(uploadIDs []string) ([]PendingUpload, error) {
	if len(uploadIDs) == 0 {
		return nil, nil
	}
	if s.pending == nil {
		return nil, fmt.Errorf("%w: %s", ErrPendingUploadNotFound, uploadIDs[0])
	}

	ids := make([]string, 0, len(uploadIDs))
	seen := make(map[string]bool, len(uploadIDs))
	for _, id := range uploadIDs {
		id = strings.TrimSpace(id)
		if seen[id] {
			continue
		}
		seen[id] = true

		upload, ok := s.pending.Get(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrPendingUploadNotFound, id)
		}
		if upload.Decision.Status != models.ImageModerationApproved {
			return nil, fmt.Errorf("%w: %s", ErrUploadNotApproved, id)
		}
		ids = append(ids, id)
	}

	claimed := make([]PendingUpload, 0, len(ids))
	for _, id := range ids {
		upload, ok := s.pending.Take(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrPendingUploadNotFound, id)
		}
		claimed = append(claimed, *upload)
	}
	return claimed, nil
}

func (s *Service) moderate(ctx context.Context, imageBytes []byte) *models.ModerationDecision {
	timeout := s.timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	moderationCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	decision, err := s.moderator.ModerateImageBytes(moderationCtx, imageBytes)
	if err != nil || decision == nil {
		return &models.ModerationDecision{
			Status: models.ImageModerationPendingReview,
			Reason: "Unable to verify right now",
		}
	}

	return decision
}

func unverified() *models.PhotoUploadResult {
	return &models.PhotoUploadResult{
		Status: models.ImageModerationPendingReview,
		Reason: "Unable to verify right now",
	}
}
