package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/kiosk/internal/capture"
)

// kioskStub answers every frame with an IDLE snapshot except those for which
// skip returns true, like a kiosk dropping undecodable frames.
func kioskStub(t *testing.T, skip func(n int64) bool) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	var frames atomic.Int64
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			n := frames.Add(1)
			if skip(n) {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"mode":"IDLE","feedback":"ok"}`)); err != nil {
				return
			}
		}
	}))
	t.Cleanup(ts.Close)
	return ts, &frames
}

func replaySource() capture.Source {
	return capture.NewReplay([]gocv.Mat{gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)}, true)
}

func TestStream_ContinuesAfterUnansweredFrame(t *testing.T) {
	ts, frames := kioskStub(t, func(n int64) bool { return n == 1 })

	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()

	err := stream(ctx, zap.NewNop(), replaySource(), streamConfig{
		URL:          "ws" + strings.TrimPrefix(ts.URL, "http"),
		Quality:      80,
		Motion:       1.0,
		ReplyTimeout: 100 * time.Millisecond,
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("stream() error = %v, want deadline exceeded", err)
	}

	if got := frames.Load(); got < 3 {
		t.Errorf("kiosk received %d frames, want the stream to keep going after a skipped frame", got)
	}
}

func TestStream_ServerGone(t *testing.T) {
	ts, _ := kioskStub(t, func(int64) bool { return false })
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := stream(ctx, zap.NewNop(), replaySource(), streamConfig{URL: url, Quality: 80, ReplyTimeout: 100 * time.Millisecond})
	if err == nil || errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected a dial error, got %v", err)
	}
}
