package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	rekognitiontypes "github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/johnrirwin/autolot/internal/models"
)

// Labels below this confidence are not worth returning
const defaultMinLabelConfidence = 50

// rekognitionAPI is the slice of the Rekognition client the detector calls
type rekognitionAPI interface {
	DetectModerationLabels(ctx context.Context, params *rekognition.DetectModerationLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectModerationLabelsOutput, error)
}

// AWSDetector sends photo bytes inline to Rekognition
type AWSDetector struct {
	api           rekognitionAPI
	minConfidence float32
}

// NewAWSDetector uses the ambient AWS credential chain. An empty region
// leaves the SDK to resolve it from the environment or profile.
func NewAWSDetector(ctx context.Context, region string) (*AWSDetector, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region = strings.TrimSpace(region); region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if cfg.Region == "" {
		return nil, errors.New("no AWS region configured")
	}

	return newAWSDetector(rekognition.NewFromConfig(cfg), defaultMinLabelConfidence), nil
}

func newAWSDetector(api rekognitionAPI, minConfidence float32) *AWSDetector {
	return &AWSDetector{api: api, minConfidence: minConfidence}
}

func (d *AWSDetector) DetectModerationLabels(ctx context.Context, imageBytes []byte) ([]models.ModerationLabel, error) {
	if len(imageBytes) == 0 {
		return nil, errors.New("image bytes are required")
	}

	output, err := d.api.DetectModerationLabels(ctx, &rekognition.DetectModerationLabelsInput{
		Image:         &rekognitiontypes.Image{Bytes: imageBytes},
		MinConfidence: aws.Float32(d.minConfidence),
	})
	if err != nil {
		return nil, fmt.Errorf("rekognition detect moderation labels: %w", err)
	}
	return toModerationLabels(output.ModerationLabels), nil
}

func toModerationLabels(in []rekognitiontypes.ModerationLabel) []models.ModerationLabel {
	labels := make([]models.ModerationLabel, 0, len(in))
	for _, label := range in {
		labels = append(labels, models.ModerationLabel{
			Name:       aws.ToString(label.Name),
			ParentName: aws.ToString(label.ParentName),
			Confidence: float64(aws.ToFloat32(label.Confidence)),
		})
	}
	return labels
}
