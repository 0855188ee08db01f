// Package moderation screens customer photo uploads before they are accepted.
package moderation

import (
	"context"

	"github.com/johnrirwin/autolot/internal/models"
)

// DefaultRejectConfidence is the label confidence at which a photo is rejected
const DefaultRejectConfidence = 70

// Detector is the low-level provider abstraction that fetches moderation labels.
type Detector interface {
	DetectModerationLabels(ctx context.Context, imageBytes []byte) ([]models.ModerationLabel, error)
}

// Service evaluates moderation labels into APPROVED/REJECTED decisions.
type Service struct {
	detector         Detector
	rejectConfidence float64
	ignored          map[string]bool
}

// NewService creates a moderation service using the configured detector.
// Labels named in ignore (or whose parent is) never cause a rejection.
func NewService(detector Detector, rejectConfidence float64, ignore ...string) *Service {
	if rejectConfidence <= 0 {
		rejectConfidence = DefaultRejectConfidence
	}
	ignored := make(map[string]bool, len(ignore))
	for _, name := range ignore {
		ignored[name] = true
	}
	return &Service{
		detector:         detector,
		rejectConfidence: rejectConfidence,
		ignored:          ignored,
	}
}

// RejectConfidence returns the configured rejection threshold
func (s *Service) RejectConfidence() float64 {
	return s.rejectConfidence
}

// ModerateImageBytes moderates image bytes and returns an APPROVED/REJECTED decision.
func (s *Service) ModerateImageBytes(ctx context.Context, imageBytes []byte) (*models.ModerationDecision, error) {
	labels, err := s.detector.DetectModerationLabels(ctx, imageBytes)
	if err != nil {
		return nil, err
	}

	decision := &models.ModerationDecision{
		Status: models.ImageModerationApproved,
		Reason: "Approved",
		Labels: labels,
	}

	maxConfidence := 0.0
	var worst string
	for _, label := range labels {
		if s.ignored[label.Name] || (label.ParentName != "" && s.ignored[label.ParentName]) {
			continue
		}
		if label.Confidence > maxConfidence {
			maxConfidence = label.Confidence
			worst = label.Name
		}
	}
	decision.MaxConfidence = maxConfidence

	if maxConfidence >= s.rejectConfidence {
		decision.Status = models.ImageModerationRejected
		decision.Reason = "Photo not allowed: " + worst
	}

	return decision, nil
}
