package capture

import (
	"image"
	"time"

	"gocv.io/x/gocv"
)

// Frame rates used by the Pacer.
const (
	// IdleFPS is the send rate while nothing moves in front of the kiosk.
	IdleFPS = 5
	// ActiveFPS is the send rate while a customer is moving.
	ActiveFPS = 15
	// ActiveHold is how long the active rate is kept after the last motion.
	ActiveHold = 2 * time.Second
)

const (
	blurSize      = 21
	diffThreshold = 25
)

// Pacer picks the frame interval from scene motion: frames are sent at
// ActiveFPS while something moves and drop back to IdleFPS once the scene has
// been still for ActiveHold. It is not safe for concurrent use.
type Pacer struct {
	// Threshold is the percentage of changed pixels that counts as motion.
	Threshold float64

	prev       gocv.Mat
	hasPrev    bool
	active     bool
	lastMotion time.Time
}

// NewPacer creates a Pacer starting at the idle rate.
func NewPacer(threshold float64) *Pacer {
	return &Pacer{Threshold: threshold, prev: gocv.NewMat()}
}

// Observe compares frame with the previous one and returns the interval to
// wait before the next frame.
func (p *Pacer) Observe(frame *gocv.Mat, now time.Time) time.Duration {
	if p.changed(frame) > p.Threshold {
		p.active = true
		p.lastMotion = now
	} else if p.active && now.Sub(p.lastMotion) > ActiveHold {
		p.active = false
	}
	return p.Interval()
}

// Interval returns the current frame interval.
func (p *Pacer) Interval() time.Duration {
	if p.active {
		return time.Second / ActiveFPS
	}
	return time.Second / IdleFPS
}

// Active reports whether the pacer is at the active rate.
func (p *Pacer) Active() bool {
	return p.active
}

// changed returns the percentage of pixels that differ from the previous
// frame after grayscale and blur. The first frame only sets the baseline.
func (p *Pacer) changed(frame *gocv.Mat) float64 {
	if frame == nil || frame.Empty() {
		return 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: blurSize, Y: blurSize}, 0, 0, gocv.BorderDefault)

	defer func() {
		p.prev.Close()
		p.prev = blurred
		p.hasPrev = true
	}()

	if !p.hasPrev || p.prev.Rows() != blurred.Rows() || p.prev.Cols() != blurred.Cols() {
		return 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, p.prev, &diff)
	gocv.Threshold(diff, &diff, diffThreshold, 255, gocv.ThresholdBinary)

	total := diff.Rows() * diff.Cols()
	if total == 0 {
		return 0
	}
	return float64(gocv.CountNonZero(diff)) / float64(total) * 100.0
}

// Close releases the stored baseline frame.
func (p *Pacer) Close() {
	p.prev.Close()
	p.hasPrev = false
}
