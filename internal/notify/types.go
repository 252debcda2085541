// Package notify delivers kiosk events (items added, mode changes) to external
// hooks without ever blocking the frame pipeline.
package notify

import (
	"context"
	"time"

	"github.com/ayusman/kiosk/internal/catalog"
)

// Event names.
const (
	EventItemAdded   = "item_added"
	EventModeChanged = "mode_changed"
)

// Event is a kiosk occurrence delivered to hooks and publishers.
type Event struct {
	Name      string        `json:"event"`
	SessionID string        `json:"session_id"`
	Item      *catalog.Item `json:"item,omitempty"`
	From      string        `json:"from,omitempty"`
	To        string        `json:"to,omitempty"`
	Time      time.Time     `json:"time"`
}

// Notifier delivers an event somewhere.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Manifest describes a hook's metadata and the events it subscribes to.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	Events      []string `json:"events"`
}

// Response represents the reply printed by a hook.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Hook is a discovered hook with its manifest and location.
type Hook struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Handles reports whether the hook subscribes to the named event.
func (h *Hook) Handles(event string) bool {
	for _, e := range h.Manifest.Events {
		if e == event {
			return true
		}
	}
	return false
}
