package moderation

import (
	"context"
	"errors"
	"testing"

	"github.com/johnrirwin/autolot/internal/models"
)

type fakeDetector struct {
	labels []models.ModerationLabel
	err    error
}

func (f *fakeDetector) DetectModerationLabels(ctx context.Context, imageBytes []byte) ([]models.ModerationLabel, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.labels, nil
}

func TestServiceModerateImageBytes(t *testing.T) {
	tests := []struct {
		name       string
		labels     []models.ModerationLabel
		err        error
		threshold  float64
		wantStatus models.ImageModerationStatus
		wantMax    float64
	}{
		{
			name:       "approved when no labels",
			labels:     nil,
			threshold:  70,
			wantStatus: models.ImageModerationApproved,
			wantMax:    0,
		},
		{
			name: "approved when labels below threshold",
			labels: []models.ModerationLabel{
				{Name: "Suggestive", Confidence: 42.1},
			},
			threshold:  70,
			wantStatus: models.ImageModerationApproved,
			wantMax:    42.1,
		},
		{
			name: "rejected when any label meets threshold",
			labels: []models.ModerationLabel{
				{Name: "Explicit Nudity", Confidence: 82.3},
				{Name: "Violence", Confidence: 50.0},
			},
			threshold:  70,
			wantStatus: models.ImageModerationRejected,
			wantMax:    82.3,
		},
		{
			name: "rejected exactly at threshold",
			labels: []models.ModerationLabel{
				{Name: "Graphic Violence", ParentName: "Violence", Confidence: 70},
			},
			threshold:  70,
			wantStatus: models.ImageModerationRejected,
			wantMax:    70,
		},
		{
			name: "zero threshold falls back to default",
			labels: []models.ModerationLabel{
				{Name: "Suggestive", Confidence: 69.9},
			},
			threshold:  0,
			wantStatus: models.ImageModerationApproved,
			wantMax:    69.9,
		},
		{
			name:      "returns detector errors",
			err:       errors.New("boom"),
			threshold: 70,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&fakeDetector{
				labels: tt.labels,
				err:    tt.err,
			}, tt.threshold)

			decision, err := svc.ModerateImageBytes(context.Background(), []byte("jpeg-bytes"))
			if tt.err != nil {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if decision.Status != tt.wantStatus {
				t.Fatalf("status=%s want=%s", decision.Status, tt.wantStatus)
			}
			if decision.MaxConfidence != tt.wantMax {
				t.Fatalf("max=%v want=%v", decision.MaxConfidence, tt.wantMax)
			}
		})
	}
}

func TestServiceIgnoredLabels(t *testing.T) {
	svc := NewService(&fakeDetector{
		labels: []models.ModerationLabel{
			{Name: "Tobacco", ParentName: "Drugs & Tobacco", Confidence: 95},
			{Name: "Smoking", ParentName: "Tobacco", Confidence: 91},
			{Name: "Rude Gestures", Confidence: 40},
		},
	}, 70, "Tobacco")

	decision, err := svc.ModerateImageBytes(context.Background(), []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Status != models.ImageModerationApproved {
		t.Fatalf("status=%s want=%s", decision.Status, models.ImageModerationApproved)
	}
	if decision.MaxConfidence != 40 {
		t.Fatalf("max=%v want=40", decision.MaxConfidence)
	}
	if len(decision.Labels) != 3 {
		t.Fatalf("labels=%d want=3, ignored labels are still reported", len(decision.Labels))
	}
}

func TestServiceRejectionReasonNamesLabel(t *testing.T) {
	svc := NewService(&fakeDetector{
		labels: []models.ModerationLabel{{Name: "Explicit Nudity", Confidence: 99}},
	}, 70)

	decision, err := svc.ModerateImageBytes(context.Background(), []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Reason != "Photo not allowed: Explicit Nudity" {
		t.Fatalf("reason=%q", decision.Reason)
	}
}

func TestNoopDetectorApprovesEverything(t *testing.T) {
	svc := NewService(NoopDetector{}, 70)

	decision, err := svc.ModerateImageBytes(context.Background(), []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Status != models.ImageModerationApproved {
		t.Fatalf("status=%s want=%s", decision.Status, models.ImageModerationApproved)
	}
}

func TestMockModeratorCountsCalls(t *testing.T) {
	m := &MockModerator{Decision: &models.ModerationDecision{Status: models.ImageModerationRejected}}

	for i := 0; i < 3; i++ {
		d, err := m.ModerateImageBytes(context.Background(), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		d.Status = models.ImageModerationApproved
	}
	if m.Calls() != 3 {
		t.Fatalf("calls=%d want=3", m.Calls())
	}
	if m.Decision.Status != models.ImageModerationRejected {
		t.Fatal("returned decisions must not alias the configured one")
	}
}
