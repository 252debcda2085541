// Package main provides the kiosk "beep" hook. It plays a short sound when a
// product lands in the cart and a chime when a customer pays.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Request is the kiosk event read from stdin.
type Request struct {
	Event     string `json:"event"`
	SessionID string `json:"session_id"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
}

// Response represents the output to the hook executor.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// player plays a sound file.
type player func(path string) error

func main() {
	if err := run(os.Stdin, os.Stdout, playSound); err != nil {
		os.Exit(1)
	}
}

func run(in io.Reader, out io.Writer, play player) error {
	var req Request
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		return writeResponse(out, fmt.Errorf("failed to decode request: %w", err))
	}

	sound := soundFor(req)
	if sound == "" {
		return writeResponse(out, nil)
	}
	if err := play(soundPath(sound)); err != nil {
		return writeResponse(out, fmt.Errorf("play %s: %w", sound, err))
	}
	return writeResponse(out, nil)
}

// soundFor picks the sound for an event, or "" for events that stay silent.
func soundFor(req Request) string {
	switch {
	case req.Event == "item_added":
		return "beep.wav"
	case req.Event == "mode_changed" && req.To == "PAID":
		return "chime.wav"
	}
	return ""
}

// soundPath resolves a sound next to the hook, unless KIOSK_SOUNDS_DIR is set.
func soundPath(name string) string {
	if dir := os.Getenv("KIOSK_SOUNDS_DIR"); dir != "" {
		return filepath.Join(dir, name)
	}
	return filepath.Join("sounds", name)
}

// writeResponse writes the result to stdout. A failure is reported in the
// response, not the exit code.
func writeResponse(out io.Writer, err error) error {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	return json.NewEncoder(out).Encode(resp)
}

// playSound runs the platform's command line audio player.
func playSound(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("afplay", path)
	default:
		if _, err := exec.LookPath("paplay"); err == nil {
			cmd = exec.Command("paplay", path)
		} else {
			cmd = exec.Command("aplay", "-q", path)
		}
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
