package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestRun(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		playErr     error
		wantSound   string
		wantSuccess bool
	}{
		{
			name:        "item added beeps",
			input:       `{"event":"item_added","session_id":"s1","item":{"class_id":3,"name":"Coke in Can","price":45}}`,
			wantSound:   "beep.wav",
			wantSuccess: true,
		},
		{
			name:        "payment chimes",
			input:       `{"event":"mode_changed","from":"SCANNING","to":"PAID"}`,
			wantSound:   "chime.wav",
			wantSuccess: true,
		},
		{
			name:        "other transitions are silent",
			input:       `{"event":"mode_changed","from":"IDLE","to":"SCANNING"}`,
			wantSuccess: true,
		},
		{
			name:        "player failure is reported",
			input:       `{"event":"item_added"}`,
			playErr:     errors.New("no audio device"),
			wantSound:   "beep.wav",
			wantSuccess: false,
		},
		{
			name:        "invalid input",
			input:       `{not json`,
			wantSuccess: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("KIOSK_SOUNDS_DIR", "/sounds")

			var played string
			play := func(path string) error {
				played = path
				return tt.playErr
			}

			var out bytes.Buffer
			if err := run(strings.NewReader(tt.input), &out, play); err != nil {
				t.Fatalf("run() error = %v", err)
			}

			var resp Response
			if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
				t.Fatalf("invalid response %q: %v", out.String(), err)
			}
			if resp.Success != tt.wantSuccess {
				t.Errorf("success = %v, want %v (error %q)", resp.Success, tt.wantSuccess, resp.Error)
			}

			want := ""
			if tt.wantSound != "" {
				want = filepath.Join("/sounds", tt.wantSound)
			}
			if played != want {
				t.Errorf("played %q, want %q", played, want)
			}
		})
	}
}
