package capture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gocv.io/x/gocv"
)

// Replay plays back still images in name order, for demos without a camera.
type Replay struct {
	frames []gocv.Mat
	index  int
	loop   bool
	open   bool
	mu     sync.Mutex
}

// NewReplay creates a Replay over frames. The Replay takes ownership of them.
func NewReplay(frames []gocv.Mat, loop bool) *Replay {
	return &Replay{frames: frames, loop: loop}
}

// LoadReplay reads every .jpg, .jpeg and .png file in dir.
func LoadReplay(dir string, loop bool) (*Replay, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			if !e.IsDir() {
				names = append(names, e.Name())
			}
		}
	}
	sort.Strings(names)

	frames := make([]gocv.Mat, 0, len(names))
	for _, name := range names {
		mat := gocv.IMRead(filepath.Join(dir, name), gocv.IMReadColor)
		if mat.Empty() {
			mat.Close()
			for _, f := range frames {
				f.Close()
			}
			return nil, fmt.Errorf("read %s: not an image", name)
		}
		frames = append(frames, mat)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("no images in %s", dir)
	}
	return NewReplay(frames, loop), nil
}

// Open rewinds playback.
func (r *Replay) Open() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.open = true
	r.index = 0
	return nil
}

// Close stops playback and releases the frames.
func (r *Replay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.open = false
	for i := range r.frames {
		r.frames[i].Close()
	}
	r.frames = nil
	return nil
}

// ReadFrame returns a copy of the next frame.
func (r *Replay) ReadFrame() (*gocv.Mat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.open {
		return nil, ErrNotOpen
	}
	if len(r.frames) == 0 {
		return nil, errors.New("no frames available")
	}
	if r.index >= len(r.frames) {
		if !r.loop {
			return nil, errors.New("no more frames")
		}
		r.index = 0
	}

	frame := r.frames[r.index].Clone()
	r.index++
	return &frame, nil
}
