package moderation

import (
	"context"
	"sync"

	"github.com/johnrirwin/autolot/internal/models"
)

// NoopDetector reports no labels. Used when moderation is disabled so every
// photo is approved.
type NoopDetector struct{}

// DetectModerationLabels always returns an empty label set
func (NoopDetector) DetectModerationLabels(ctx context.Context, imageBytes []byte) ([]models.ModerationLabel, error) {
	return nil, nil
}

// MockModerator returns a fixed decision and counts calls. For tests.
type MockModerator struct {
	Decision *models.ModerationDecision
	Err      error

	mu    sync.Mutex
	calls int
}

// ModerateImageBytes returns the configured decision/error.
func (m *MockModerator) ModerateImageBytes(ctx context.Context, imageBytes []byte) (*models.ModerationDecision, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if m.Decision != nil {
		d := *m.Decision
		return &d, nil
	}
	return &models.ModerationDecision{
		Status: models.ImageModerationApproved,
		Reason: "Approved",
	}, nil
}

// Calls returns how many images were moderated
func (m *MockModerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
