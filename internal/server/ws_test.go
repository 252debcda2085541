package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ayusman/kiosk/internal/app"
	"github.com/ayusman/kiosk/internal/catalog"
	"github.com/ayusman/kiosk/internal/detector"
	"github.com/ayusman/kiosk/internal/session"
	"github.com/ayusman/kiosk/testdata"
)

func newKioskServer(t *testing.T) (*Server, *httptest.Server, *detector.MockDetector) {
	t.Helper()

	hands := detector.NewMockDetector()
	a := app.New(app.Config{
		Catalog:    catalog.New(catalog.Defaults()),
		Objects:    detector.NewMockObjectDetector(),
		Hands:      hands,
		Settings:   session.DefaultSettings(),
		Confidence: 0.6,
		Logger:     zap.NewNop(),
	})
	s := New(Config{App: a, Logger: zap.NewNop()})
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return s, ts, hands
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func jpeg(t *testing.T) []byte {
	t.Helper()
	frame, err := testdata.JPEGFrame(testdata.FrameWidth, testdata.FrameHeight)
	if err != nil {
		t.Fatalf("failed to build frame: %v", err)
	}
	return frame
}

func readSnapshot(t *testing.T, conn *websocket.Conn) session.Snapshot {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var snap session.Snapshot
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("failed to read snapshot: %v", err)
	}
	return snap
}

func TestKioskHandler_SnapshotPerFrame(t *testing.T) {
	_, ts, hands := newKioskServer(t)
	hands.SetHands([]detector.HandLandmarks{detector.OpenPalmLandmarks()})
	conn := dial(t, ts)

	frame := jpeg(t)
	for i := 0; i < 3; i++ {
		if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		snap := readSnapshot(t, conn)
		if snap.Mode != session.ModeIdle {
			t.Errorf("frame %d: expected IDLE, got %s", i, snap.Mode)
		}
		if snap.Gesture != "OPEN" {
			t.Errorf("frame %d: expected OPEN gesture, got %s", i, snap.Gesture)
		}
	}
}

func TestKioskHandler_WireFormat(t *testing.T) {
	_, ts, _ := newKioskServer(t)
	conn := dial(t, ts)

	if err := conn.WriteMessage(websocket.BinaryMessage, jpeg(t)); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("snapshot is not a JSON object: %v", err)
	}
	for _, key := range []string{"mode", "feedback", "cart", "total", "boxes", "hand_coords", "gesture"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("snapshot missing %q", key)
		}
	}
	for _, key := range []string{"cart", "boxes", "hand_coords"} {
		if string(fields[key]) != "[]" {
			t.Errorf("%s: expected empty array, got %s", key, fields[key])
		}
	}
}

func TestKioskHandler_SkipsBadFrames(t *testing.T) {
	_, ts, _ := newKioskServer(t)
	conn := dial(t, ts)

	conn.WriteMessage(websocket.BinaryMessage, testdata.Garbage())
	conn.WriteMessage(websocket.TextMessage, []byte("hello"))
	if err := conn.WriteMessage(websocket.BinaryMessage, jpeg(t)); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	// Only the valid frame is answered; the connection stays open.
	snap := readSnapshot(t, conn)
	if snap.Mode != session.ModeIdle {
		t.Errorf("expected IDLE, got %s", snap.Mode)
	}

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected no further snapshots")
	}
}

func TestKioskHandler_AnswersThroughAdapterFailure(t *testing.T) {
	_, ts, hands := newKioskServer(t)
	hands.SetError(context.DeadlineExceeded)
	conn := dial(t, ts)

	frame := jpeg(t)
	for i := 0; i < 2; i++ {
		if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		snap := readSnapshot(t, conn)
		if snap.Gesture != "UNKNOWN" {
			t.Errorf("frame %d: expected UNKNOWN gesture, got %s", i, snap.Gesture)
		}
	}
}

func TestKioskHandler_ActiveSessions(t *testing.T) {
	s, ts, _ := newKioskServer(t)

	conn := dial(t, ts)
	conn.WriteMessage(websocket.BinaryMessage, jpeg(t))
	readSnapshot(t, conn)

	if got := s.ActiveSessions(); got != 1 {
		t.Errorf("expected 1 active session, got %d", got)
	}

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()
	var health map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&health)
	if health["active_sessions"] != float64(1) {
		t.Errorf("expected health to report 1 session, got %v", health["active_sessions"])
	}

	conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for s.ActiveSessions() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := s.ActiveSessions(); got != 0 {
		t.Errorf("expected session to be discarded after disconnect, got %d", got)
	}
}

func TestKioskHandler_ReconnectStartsIdle(t *testing.T) {
	_, ts, hands := newKioskServer(t)
	frame := jpeg(t)

	first := dial(t, ts)
	hands.SetHands([]detector.HandLandmarks{detector.OpenPalmLandmarks()})
	first.WriteMessage(websocket.BinaryMessage, frame)
	readSnapshot(t, first)
	hands.SetHands([]detector.HandLandmarks{detector.FistLandmarks()})
	first.WriteMessage(websocket.BinaryMessage, frame)
	if snap := readSnapshot(t, first); snap.Mode != session.ModeScanning {
		t.Fatalf("expected SCANNING, got %s", snap.Mode)
	}
	first.Close()

	hands.SetHands(nil)
	second := dial(t, ts)
	second.WriteMessage(websocket.BinaryMessage, frame)
	if snap := readSnapshot(t, second); snap.Mode != session.ModeIdle {
		t.Errorf("expected a fresh IDLE session, got %s", snap.Mode)
	}
}

func TestServer_Products(t *testing.T) {
	_, ts, _ := newKioskServer(t)

	resp, err := http.Get(ts.URL + "/api/products/3")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	var item catalog.Item
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if item.Name != "Coke in Can" {
		t.Errorf("expected Coke in Can, got %q", item.Name)
	}
}
