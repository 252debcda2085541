// Package detector provides the product and hand detection adapters used by
// the kiosk session loop.
package detector

import (
	"context"
	"errors"

	"gocv.io/x/gocv"
)

// ErrServiceUnavailable is returned when a detection service script cannot be found.
var ErrServiceUnavailable = errors.New("detection service unavailable")

// HandDetector finds hands in a frame.
type HandDetector interface {
	// Detect analyzes a video frame and returns detected hand landmarks.
	// Returns an empty slice if no hands are detected.
	Detect(ctx context.Context, frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// ObjectDetector finds catalog products in a frame.
type ObjectDetector interface {
	// Detect returns every detection whose confidence is at least minConfidence,
	// in the order the model reported them.
	Detect(ctx context.Context, frame *gocv.Mat, minConfidence float64) ([]Detection, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for the detection services.
type Config struct {
	// ScriptsDir is searched first for the python service scripts.
	ScriptsDir string

	// MaxHands is the maximum number of hands to detect.
	MaxHands int

	// MinConfidence is the minimum hand detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum hand tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// ModelPath is the product detection weights file passed to the object service.
	ModelPath string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		ModelPath:       "best.pt",
	}
}
