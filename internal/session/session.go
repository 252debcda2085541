// Package session holds the per-connection kiosk state: the cart, the
// IDLE/SCANNING/PAID lifecycle and the gesture handshake memory.
package session

import (
	"time"

	"github.com/ayusman/kiosk/internal/catalog"
	"github.com/ayusman/kiosk/internal/gesture"
)

// Mode is the kiosk lifecycle state.
type Mode string

const (
	ModeIdle     Mode = "IDLE"
	ModeScanning Mode = "SCANNING"
	ModePaid     Mode = "PAID"
)

// Settings are the timing rules a session runs under.
type Settings struct {
	// ScanCooldown is the minimum gap between two accepted product scans,
	// shared by all products.
	ScanCooldown time.Duration
	// GestureTimeout bounds how long an OPEN pose waits for a CLOSED one.
	GestureTimeout time.Duration
	// DebounceGuard is the minimum gap between two handshake triggers.
	DebounceGuard time.Duration
	// PaidHold is how long PAID is shown before returning to IDLE.
	PaidHold time.Duration
}

// DefaultSettings returns the kiosk's stock timings.
func DefaultSettings() Settings {
	return Settings{
		ScanCooldown:   2500 * time.Millisecond,
		GestureTimeout: 3 * time.Second,
		DebounceGuard:  1500 * time.Millisecond,
		PaidHold:       2 * time.Second,
	}
}

// CartLine is one distinct product in the cart.
type CartLine struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Session is the state of one kiosk connection. It is owned by a single
// goroutine and is not safe for concurrent use.
type Session struct {
	ID       string
	settings Settings

	mode       Mode
	cart       []CartLine
	total      float64
	lastScanAt time.Time
	scanned    bool

	seq *gesture.Sequencer

	// OnItemAdded is called once per accepted detection. It must not block.
	OnItemAdded func(item catalog.Item)
	// OnModeChange is called after every lifecycle transition.
	OnModeChange func(from, to Mode)
}

// New creates a session in IDLE with an empty cart.
func New(id string, settings Settings) *Session {
	return &Session{
		ID:       id,
		settings: settings,
		mode:     ModeIdle,
		seq:      gesture.NewSequencer(settings.GestureTimeout, settings.DebounceGuard),
	}
}

// Mode returns the current lifecycle state.
func (s *Session) Mode() Mode {
	return s.mode
}

// Cart returns a copy of the cart lines in insertion order.
func (s *Session) Cart() []CartLine {
	out := make([]CartLine, len(s.cart))
	copy(out, s.cart)
	return out
}

// Total returns the cart total.
func (s *Session) Total() float64 {
	return s.total
}

// Settings returns the timing rules of the session.
func (s *Session) Settings() Settings {
	return s.settings
}

// Gesture returns the session's handshake recognizer.
func (s *Session) Gesture() *gesture.Sequencer {
	return s.seq
}

func (s *Session) clearCart() {
	s.cart = nil
	s.total = 0
}

// recomputeTotal derives the total from the cart lines instead of trusting
// running addition.
func (s *Session) recomputeTotal() {
	var total float64
	for _, line := range s.cart {
		total += line.Price * float64(line.Quantity)
	}
	s.total = total
}
