package detector

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"gocv.io/x/gocv"
)

// MediaPipeDetector implements HandDetector using a Python MediaPipe subprocess.
type MediaPipeDetector struct {
	svc *service
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is started lazily on first detection.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	svc, err := newService("mediapipe_service.py", config.ScriptsDir,
		"--max-hands", strconv.Itoa(config.MaxHands),
		"--min-detection-confidence", strconv.FormatFloat(config.MinConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(config.MinTrackingConf, 'f', -1, 64),
	)
	if err != nil {
		return nil, err
	}
	return &MediaPipeDetector{svc: svc}, nil
}

// Detect analyzes a frame and returns detected hand landmarks.
func (d *MediaPipeDetector) Detect(ctx context.Context, frame *gocv.Mat) ([]HandLandmarks, error) {
	line, err := d.svc.call(ctx, nil, frame)
	if err != nil {
		return nil, err
	}

	return parseHands(line)
}

// parseHands decodes a service reply. Hands without exactly NumLandmarks
// points are dropped: zero-filled landmarks would read as a closed fist.
func parseHands(line []byte) ([]HandLandmarks, error) {
	var response struct {
		Hands []jsonHand `json:"hands"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	result := make([]HandLandmarks, 0, len(response.Hands))
	for _, h := range response.Hands {
		if len(h.Points) != NumLandmarks {
			continue
		}
		result = append(result, h.toHandLandmarks())
	}
	return result, nil
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	return d.svc.Close()
}

// jsonHand represents the JSON structure from the Python service.
type jsonHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"`
	Score      float64   `json:"score"`
}

func (h jsonHand) toHandLandmarks() HandLandmarks {
	lm := HandLandmarks{
		Handedness: h.Handedness,
		Score:      h.Score,
	}

	copy(lm.Points[:], h.Points)

	return lm
}
