package detector

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"gocv.io/x/gocv"
)

// YOLODetector implements ObjectDetector using a Python ultralytics subprocess.
// Each request carries the confidence threshold as a 4-byte big-endian float32
// ahead of the frame.
type YOLODetector struct {
	svc *service
}

// NewYOLODetector creates a product detector backed by yolo_service.py.
func NewYOLODetector(config Config) (*YOLODetector, error) {
	svc, err := newService("yolo_service.py", config.ScriptsDir, "--model", config.ModelPath)
	if err != nil {
		return nil, err
	}
	return &YOLODetector{svc: svc}, nil
}

// Detect runs product detection on a frame.
func (d *YOLODetector) Detect(ctx context.Context, frame *gocv.Mat, minConfidence float64) ([]Detection, error) {
	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, math.Float32bits(float32(minConfidence)))

	line, err := d.svc.call(ctx, header, frame)
	if err != nil {
		return nil, err
	}
	return parseDetections(line, minConfidence)
}

// Close shuts down the Python process.
func (d *YOLODetector) Close() error {
	return d.svc.Close()
}

func parseDetections(line []byte, minConfidence float64) ([]Detection, error) {
	var response struct {
		Detections []Detection `json:"detections"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return filterConfidence(response.Detections, minConfidence), nil
}
