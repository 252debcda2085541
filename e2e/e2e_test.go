package e2e

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ayusman/kiosk/internal/app"
	"github.com/ayusman/kiosk/internal/catalog"
	"github.com/ayusman/kiosk/internal/detector"
	"github.com/ayusman/kiosk/internal/notify"
	"github.com/ayusman/kiosk/internal/server"
	"github.com/ayusman/kiosk/internal/session"
	"github.com/ayusman/kiosk/internal/store"
	"github.com/ayusman/kiosk/testdata"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// installHook writes a hook that appends every event it receives to log.
func installHook(t *testing.T, hooksDir, log string) {
	t.Helper()

	dir := filepath.Join(hooksDir, "recorder")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	manifest := `{"name":"recorder","version":"1.0.0","executable":"record.sh","events":["item_added","mode_changed"]}`
	if err := os.WriteFile(filepath.Join(dir, "hook.json"), []byte(manifest), 0644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	script := "#!/bin/sh\ncat >> " + log + "\necho >> " + log + "\necho '{\"success\":true}'\n"
	if err := os.WriteFile(filepath.Join(dir, "record.sh"), []byte(script), 0755); err != nil {
		t.Fatalf("write script: %v", err)
	}
}

func TestE2E_CompleteCheckout(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}
	if runtime.GOOS == "windows" {
		t.Skip("hooks are shell scripts")
	}

	tmpDir := t.TempDir()

	s, err := store.New(filepath.Join(tmpDir, "kiosk.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	cat, err := catalog.Load(s)
	if err != nil {
		t.Fatalf("catalog.Load() error = %v", err)
	}

	hooksDir := filepath.Join(tmpDir, "hooks")
	eventLog := filepath.Join(tmpDir, "events.log")
	installHook(t, hooksDir, eventLog)

	hooks := notify.NewManager(hooksDir)
	if err := hooks.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	dispatcher := notify.NewDispatcher(zap.NewNop(), 5*time.Second,
		notify.NewHookNotifier(hooks, notify.NewExecutor(5*time.Second)))

	objects := detector.NewMockObjectDetector()
	hands := detector.NewMockDetector()
	clock := &stepClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}

	application := app.New(app.Config{
		Catalog:          cat,
		Objects:          objects,
		Hands:            hands,
		Dispatcher:       dispatcher,
		Settings:         session.DefaultSettings(),
		Confidence:       0.6,
		InferenceTimeout: time.Second,
		Clock:            clock,
		Logger:           zap.NewNop(),
	})

	srv := server.New(server.Config{App: application, Logger: zap.NewNop()})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	t.Run("ListProducts", func(t *testing.T) {
		resp, err := ts.Client().Get(ts.URL + "/api/products")
		if err != nil {
			t.Fatalf("list products error = %v", err)
		}
		defer resp.Body.Close()

		var body struct {
			Count int `json:"count"`
		}
		json.NewDecoder(resp.Body).Decode(&body)
		if body.Count != len(catalog.Defaults()) {
			t.Errorf("count = %d, want %d", body.Count, len(catalog.Defaults()))
		}
	})

	frame, err := testdata.JPEGFrame(testdata.FrameWidth, testdata.FrameHeight)
	if err != nil {
		t.Fatalf("JPEGFrame() error = %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	defer conn.Close()

	send := func(t *testing.T, after time.Duration) session.Snapshot {
		t.Helper()
		clock.Advance(after)
		if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			t.Fatalf("write error = %v", err)
		}
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var snap session.Snapshot
		if err := conn.ReadJSON(&snap); err != nil {
			t.Fatalf("read error = %v", err)
		}
		return snap
	}
	open := []detector.HandLandmarks{detector.OpenPalmLandmarks()}
	fist := []detector.HandLandmarks{detector.FistLandmarks()}
	coke := []detector.Detection{{ClassID: 3, Confidence: 0.92, Box: detector.Box{5, 5, 40, 40}, Label: "coke"}}

	t.Run("StartScanning", func(t *testing.T) {
		hands.SetHands(open)
		if snap := send(t, 0); snap.Mode != session.ModeIdle {
			t.Fatalf("mode = %s, want IDLE", snap.Mode)
		}
		hands.SetHands(fist)
		snap := send(t, 400*time.Millisecond)
		if snap.Mode != session.ModeScanning || snap.Feedback != session.PromptStart {
			t.Fatalf("got %s %q, want SCANNING", snap.Mode, snap.Feedback)
		}
	})

	t.Run("ScanProducts", func(t *testing.T) {
		hands.SetHands(nil)
		objects.SetDetections(coke)

		snap := send(t, time.Second)
		if snap.Feedback != "Added Coke in Can!" {
			t.Errorf("feedback = %q", snap.Feedback)
		}

		// Same can still in view: cooldown holds the cart.
		snap = send(t, time.Second)
		if len(snap.Cart) != 1 || snap.Cart[0].Quantity != 1 {
			t.Errorf("cart = %+v, want one Coke", snap.Cart)
		}

		// After the cooldown the second can merges into the same line.
		snap = send(t, 2*time.Second)
		if len(snap.Cart) != 1 || snap.Cart[0].Quantity != 2 {
			t.Fatalf("cart = %+v, want two Cokes on one line", snap.Cart)
		}
		if snap.Total != 90 {
			t.Errorf("total = %v, want 90", snap.Total)
		}
	})

	t.Run("Pay", func(t *testing.T) {
		objects.SetDetections(nil)
		hands.SetHands(open)
		send(t, 500*time.Millisecond)
		hands.SetHands(fist)
		snap := send(t, 500*time.Millisecond)
		if snap.Mode != session.ModePaid || snap.Feedback != session.PromptScan {
			t.Fatalf("got %s %q, want PAID", snap.Mode, snap.Feedback)
		}
		if len(snap.Cart) != 0 || snap.Total != 0 {
			t.Errorf("cart should be cleared on payment, got %+v", snap.Cart)
		}
	})

	t.Run("ResetToIdle", func(t *testing.T) {
		hands.SetHands(nil)
		if snap := send(t, time.Second); snap.Mode != session.ModePaid {
			t.Fatalf("mode = %s, want PAID during hold", snap.Mode)
		}
		snap := send(t, 1500*time.Millisecond)
		if snap.Mode != session.ModeIdle || snap.Feedback != session.PromptPaid {
			t.Fatalf("got %s %q, want IDLE with the paid prompt", snap.Mode, snap.Feedback)
		}
		if snap = send(t, 100*time.Millisecond); snap.Feedback != session.PromptStart {
			t.Errorf("feedback = %q, want start prompt", snap.Feedback)
		}
	})

	t.Run("HooksNotified", func(t *testing.T) {
		dispatcher.Wait()

		data, err := os.ReadFile(eventLog)
		if err != nil {
			t.Fatalf("read event log: %v", err)
		}
		log := string(data)
		if got := strings.Count(log, `"event":"item_added"`); got != 2 {
			t.Errorf("item_added events = %d, want 2", got)
		}
		if got := strings.Count(log, `"event":"mode_changed"`); got != 3 {
			t.Errorf("mode_changed events = %d, want 3", got)
		}
	})
}

func TestE2E_HealthReportsSessions(t *testing.T) {
	application := app.New(app.Config{Logger: zap.NewNop()})
	srv := server.New(server.Config{App: application, Logger: zap.NewNop()})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("health error = %v", err)
	}
	defer resp.Body.Close()

	var health map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if health["status"] != "ok" {
		t.Errorf("status = %v", health["status"])
	}
}
