// Command photo-check runs sell-request photos through the same moderation
// used by POST /api/sell/photos and prints the verdict for each file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/johnrirwin/autolot/internal/images"
	"github.com/johnrirwin/autolot/internal/models"
	"github.com/johnrirwin/autolot/internal/moderation"
)

func main() {
	region := flag.String("region", os.Getenv("AWS_REGION"), "AWS region for Rekognition")
	timeout := flag.Duration("timeout", 5*time.Second, "Timeout per photo")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: photo-check [-region r] photo.jpg [photo.png ...]")
		os.Exit(2)
	}

	detector, err := moderation.NewAWSDetector(context.Background(), *region)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize rekognition detector: %v\n", err)
		os.Exit(1)
	}

	rejectConfidence := 70.0
	if raw := os.Getenv("MODERATION_REJECT_CONFIDENCE"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed > 0 {
			rejectConfidence = parsed
		}
	}
	moderator := moderation.NewService(detector, rejectConfidence)

	failed := 0
	for _, path := range flag.Args() {
		if err := check(moderator, path, *timeout); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func check(moderator *moderation.Service, path string, timeout time.Duration) error {
	imageBytes, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	contentType, err := images.CheckPhoto(imageBytes)
	if err != nil {
		return fmt.Errorf("%w (%s, %d bytes)", err, contentType, len(imageBytes))
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	decision, err := moderator.ModerateImageBytes(ctx, imageBytes)
	if err != nil {
		return fmt.Errorf("rekognition call failed: %w", err)
	}
	printDecision(path, decision)
	return nil
}

func printDecision(path string, decision *models.ModerationDecision) {
	fmt.Printf("%s\n", path)
	fmt.Printf("  Status: %s\n", decision.Status)
	if decision.Reason != "" {
		fmt.Printf("  Reason: %s\n", decision.Reason)
	}
	fmt.Printf("  MaxConfidence: %.2f\n", decision.MaxConfidence)
	for _, label := range decision.Labels {
		if label.ParentName != "" {
			fmt.Printf("  - %s (%s): %.2f\n", label.Name, label.ParentName, label.Confidence)
		} else {
			fmt.Printf("  - %s: %.2f\n", label.Name, label.Confidence)
		}
	}
}
