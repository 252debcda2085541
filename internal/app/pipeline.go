package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/kiosk/internal/detector"
	"github.com/ayusman/kiosk/internal/gesture"
	"github.com/ayusman/kiosk/internal/session"
)

// Loop processes the frames of one connection in order. It is not safe for
// concurrent use; each connection owns exactly one Loop.
type Loop struct {
	app  *App
	sess *session.Session
	log  *zap.Logger
}

// Session returns the loop's session.
func (l *Loop) Session() *session.Session {
	return l.sess
}

// ProcessFrame runs one encoded frame through the kiosk and returns the
// snapshot to send back.
//
// Pipeline order:
// 1. In SCANNING, detect products and merge them into the cart
// 2. Only when no product was seen, classify the hand pose
// 3. Feed the pose to the handshake recognizer
// 4. Advance the lifecycle and assemble the snapshot
//
// A hand holding a product is never read as a gesture because step 2 is
// skipped whenever step 1 saw anything.
func (l *Loop) ProcessFrame(ctx context.Context, data []byte) (session.Snapshot, error) {
	if len(data) == 0 {
		return session.Snapshot{}, ErrBadFrame
	}
	frame, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	defer frame.Close()
	if frame.Empty() {
		return session.Snapshot{}, ErrBadFrame
	}

	now := l.app.config.Clock.Now()

	var (
		boxes        []session.Box
		cartFeedback string
		detected     bool
	)
	if l.sess.Mode() == session.ModeScanning {
		dets := l.detectProducts(ctx, &frame)
		detected = len(dets) > 0
		for _, d := range dets {
			boxes = append(boxes, session.Box{Coords: d.Box, Label: d.Label})
		}
		cartFeedback = l.sess.AddDetections(dets, l.app.config.Catalog, now)
	}

	pose := gesture.PoseUnknown
	var hand *detector.HandLandmarks
	if !detected {
		hand = l.detectHand(ctx, &frame)
		if hand != nil {
			pose = gesture.Classify(hand)
		}
	}

	trigger := l.sess.ObservePose(pose, now)
	feedback := l.sess.Advance(trigger, cartFeedback, now)

	snap := l.sess.Snapshot(feedback, string(pose))
	if len(boxes) > 0 {
		snap.Boxes = boxes
	}
	if coords := hand.Coords2D(); len(coords) > 0 {
		snap.HandCoords = coords
	}
	return snap, nil
}

// detectProducts runs the object detector, treating failures as an empty frame.
func (l *Loop) detectProducts(ctx context.Context, frame *gocv.Mat) []detector.Detection {
	ctx, cancel := l.inferenceContext(ctx)
	defer cancel()

	dets, err := l.app.config.Objects.Detect(ctx, frame, l.app.config.Confidence)
	if err != nil {
		l.log.Warn("object detection failed", zap.Error(err))
		return nil
	}
	return dets
}

// detectHand returns the first detected hand, or nil.
func (l *Loop) detectHand(ctx context.Context, frame *gocv.Mat) *detector.HandLandmarks {
	ctx, cancel := l.inferenceContext(ctx)
	defer cancel()

	hands, err := l.app.config.Hands.Detect(ctx, frame)
	if err != nil {
		l.log.Warn("hand detection failed", zap.Error(err))
		return nil
	}
	if len(hands) == 0 {
		return nil
	}
	return &hands[0]
}

func (l *Loop) inferenceContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.app.config.InferenceTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, l.app.config.InferenceTimeout)
}
