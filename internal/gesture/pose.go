// Package gesture turns hand landmarks into coarse poses and recognizes the
// open-then-closed handshake that confirms kiosk transitions.
package gesture

import "github.com/ayusman/kiosk/internal/detector"

// Pose is a coarse hand-shape classification.
type Pose string

const (
	PoseUnknown Pose = "UNKNOWN"
	PoseOpen    Pose = "OPEN"
	PoseClosed  Pose = "CLOSED"
)

var fingers = [4]struct{ tip, pip int }{
	{detector.IndexTip, detector.IndexPIP},
	{detector.MiddleTip, detector.MiddlePIP},
	{detector.RingTip, detector.RingPIP},
	{detector.PinkyTip, detector.PinkyPIP},
}

// Classify counts extended fingers, ignoring the thumb. A finger is extended
// when its tip is above its PIP joint in image coordinates. All four extended
// is OPEN, none is CLOSED, anything in between is UNKNOWN.
func Classify(hand *detector.HandLandmarks) Pose {
	if hand == nil {
		return PoseUnknown
	}

	extended := 0
	for _, f := range fingers {
		if hand.Points[f.tip].Y < hand.Points[f.pip].Y {
			extended++
		}
	}

	switch extended {
	case len(fingers):
		return PoseOpen
	case 0:
		return PoseClosed
	default:
		return PoseUnknown
	}
}
