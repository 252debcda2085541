package detector

// Box is an axis-aligned rectangle in frame pixel coordinates: x1, y1, x2, y2.
type Box [4]float64

// Detection is one product instance reported by the object detector.
type Detection struct {
	ClassID    int     `json:"class_id"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
	Label      string  `json:"label"`
}

// filterConfidence drops detections below minConfidence, preserving order.
func filterConfidence(dets []Detection, minConfidence float64) []Detection {
	out := dets[:0]
	for _, d := range dets {
		if d.Confidence >= minConfidence {
			out = append(out, d)
		}
	}
	return out
}
