package session

import (
	"time"

	"github.com/ayusman/kiosk/internal/gesture"
)

// Feedback prompts shown for each state.
const (
	PromptStart = "Open Hand ✋ then Fist ✊ to Start"
	PromptScan  = "Scanning... Open Hand ✋ then Fist ✊ to Pay"
	PromptPaid  = "Paid! Resetting..."
)

// ObservePose feeds this frame's pose to the handshake recognizer and reports
// whether the handshake completed.
func (s *Session) ObservePose(pose gesture.Pose, now time.Time) bool {
	return s.seq.Observe(pose, now)
}

// Advance runs the lifecycle for one frame and returns the feedback to show.
// cartFeedback is the result of AddDetections for the same frame.
//
//	IDLE     --trigger-->         SCANNING (cart cleared)
//	SCANNING --trigger-->         PAID     (cart cleared)
//	PAID     --PaidHold elapsed--> IDLE    (cart cleared)
//
// Feedback always belongs to the state the frame was evaluated in, so the
// frame that leaves a state still shows that state's prompt. PaidHold is
// measured from the handshake that entered PAID.
func (s *Session) Advance(trigger bool, cartFeedback string, now time.Time) string {
	switch s.mode {
	case ModeIdle:
		if trigger {
			s.transition(ModeScanning)
		}
		return PromptStart

	case ModeScanning:
		feedback := PromptScan
		if cartFeedback != "" {
			feedback = cartFeedback
		}
		if trigger {
			s.transition(ModePaid)
		}
		return feedback

	case ModePaid:
		if now.Sub(s.seq.LastTrigger()) > s.settings.PaidHold {
			s.transition(ModeIdle)
		}
		return PromptPaid
	}

	return ""
}

func (s *Session) transition(to Mode) {
	from := s.mode
	s.mode = to
	s.clearCart()
	if s.OnModeChange != nil {
		s.OnModeChange(from, to)
	}
}
