package gesture

import "time"

// Sequencer recognizes an OPEN pose followed by a CLOSED pose within Timeout.
// After a trigger, further triggers are suppressed for Guard.
//
// A Sequencer is not safe for concurrent use; each kiosk session owns one.
type Sequencer struct {
	Timeout time.Duration
	Guard   time.Duration

	last       Pose
	lastAt     time.Time
	debounceAt time.Time
}

// NewSequencer creates a Sequencer with no remembered pose.
func NewSequencer(timeout, guard time.Duration) *Sequencer {
	return &Sequencer{
		Timeout: timeout,
		Guard:   guard,
		last:    PoseUnknown,
	}
}

// Observe feeds one frame's pose and reports whether the handshake completed
// on this frame. PoseUnknown (no hand, or hand suppressed) forgets the held pose.
func (s *Sequencer) Observe(pose Pose, now time.Time) bool {
	if pose == PoseUnknown {
		s.last = PoseUnknown
		return false
	}

	// A held OPEN expires if CLOSED does not follow in time.
	if now.Sub(s.lastAt) > s.Timeout {
		s.last = PoseUnknown
	}

	triggered := false
	if now.Sub(s.debounceAt) > s.Guard &&
		s.last == PoseOpen && pose == PoseClosed &&
		now.Sub(s.lastAt) <= s.Timeout {
		triggered = true
		s.debounceAt = now
	}

	// Recording CLOSED after a trigger keeps a held fist from firing again.
	if pose != s.last {
		s.last = pose
		s.lastAt = now
	}

	return triggered
}

// Last returns the most recent distinct pose still remembered.
func (s *Sequencer) Last() Pose {
	return s.last
}

// LastTrigger returns when the handshake last fired, or the zero time.
func (s *Sequencer) LastTrigger() time.Time {
	return s.debounceAt
}
