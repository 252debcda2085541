// Command kiosk-cam streams camera frames to a kiosk server and logs the
// snapshots it sends back.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ayusman/kiosk/internal/capture"
	"github.com/ayusman/kiosk/internal/logger"
	"github.com/ayusman/kiosk/internal/session"
)

func main() {
	var (
		serverURL = flag.String("server", "ws://localhost:8080/ws", "kiosk websocket URL")
		device    = flag.Int("device", 0, "camera device id")
		replayDir = flag.String("replay", "", "directory of images to loop instead of a camera")
		quality   = flag.Int("quality", 80, "JPEG quality (1-100)")
		motion    = flag.Float64("motion", 1.0, "percent of changed pixels that counts as motion")
		env       = flag.String("env", "development", "logger mode")
		replyWait = flag.Duration("reply-timeout", 5*time.Second, "how long to wait for each snapshot")
	)
	flag.Parse()

	log, err := logger.Initialize(*env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kiosk-cam: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	var src capture.Source
	if *replayDir != "" {
		r, err := capture.LoadReplay(*replayDir, true)
		if err != nil {
			log.Fatal("load replay", zap.Error(err))
		}
		src = r
	} else {
		src = capture.NewCamera(capture.CameraConfig{DeviceID: *device})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := streamConfig{
		URL:          *serverURL,
		Quality:      *quality,
		Motion:       *motion,
		ReplyTimeout: *replyWait,
	}
	if err := stream(ctx, log, src, cfg); err != nil && ctx.Err() == nil {
		log.Fatal("stream ended", zap.Error(err))
	}
}

type streamConfig struct {
	URL     string
	Quality int
	Motion  float64
	// ReplyTimeout is how long to wait for a frame's snapshot. The kiosk
	// sends none for frames it skips.
	ReplyTimeout time.Duration
}

// stream sends one frame at a time and waits for its snapshot, or for
// ReplyTimeout, before reading the next, so the kiosk sees frames in capture order.
func stream(ctx context.Context, log *zap.Logger, src capture.Source, cfg streamConfig) error {
	if err := src.Open(); err != nil {
		return err
	}
	defer src.Close()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", cfg.URL, err)
	}
	defer conn.Close()
	log.Info("connected", zap.String("server", cfg.URL))

	go func() {
		<-ctx.Done()
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}()

	snaps := make(chan session.Snapshot, 1)
	readErr := make(chan error, 1)
	go readSnapshots(ctx, conn, snaps, readErr)

	pacer := capture.NewPacer(cfg.Motion)
	defer pacer.Close()

	var last session.Snapshot
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		// A snapshot that arrived after its wait expired belongs to an older frame.
		select {
		case snap := <-snaps:
			report(log, last, snap)
			last = snap
		default:
		}

		frame, err := src.ReadFrame()
		if err != nil {
			log.Warn("read frame", zap.Error(err))
			timer.Reset(pacer.Interval())
			continue
		}
		interval := pacer.Observe(frame, time.Now())
		data, err := capture.EncodeJPEG(frame, cfg.Quality)
		frame.Close()
		if err != nil {
			log.Warn("encode frame", zap.Error(err))
			timer.Reset(interval)
			continue
		}

		if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("send frame: %w", err)
		}

		wait := time.NewTimer(cfg.ReplyTimeout)
		select {
		case snap := <-snaps:
			report(log, last, snap)
			last = snap
		case err := <-readErr:
			wait.Stop()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read snapshot: %w", err)
		case <-wait.C:
			log.Warn("no snapshot for frame", zap.Duration("waited", cfg.ReplyTimeout))
		case <-ctx.Done():
			wait.Stop()
			return ctx.Err()
		}
		wait.Stop()

		timer.Reset(interval)
	}
}

// readSnapshots forwards every snapshot from conn until the connection fails.
func readSnapshots(ctx context.Context, conn *websocket.Conn, snaps chan<- session.Snapshot, errs chan<- error) {
	for {
		var snap session.Snapshot
		if err := conn.ReadJSON(&snap); err != nil {
			errs <- err
			return
		}
		select {
		case snaps <- snap:
		case <-ctx.Done():
			return
		}
	}
}

// report logs what changed between two snapshots.
func report(log *zap.Logger, prev, cur session.Snapshot) {
	if cur.Mode != prev.Mode {
		log.Info("mode", zap.String("mode", string(cur.Mode)))
	}
	if cur.Feedback != prev.Feedback {
		log.Info(cur.Feedback, zap.Int("items", len(cur.Cart)), zap.Float64("total", cur.Total))
	}
	log.Debug("snapshot",
		zap.String("gesture", cur.Gesture),
		zap.Int("boxes", len(cur.Boxes)),
	)
}
