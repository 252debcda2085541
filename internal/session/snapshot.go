package session

// Box is a detection drawn on the client: pixel coordinates x1, y1, x2, y2 and a label.
type Box struct {
	Coords [4]float64 `json:"coords"`
	Label  string     `json:"label"`
}

// Snapshot is the state record sent to the client once per inbound frame.
type Snapshot struct {
	Mode       Mode         `json:"mode"`
	Feedback   string       `json:"feedback"`
	Cart       []CartLine   `json:"cart"`
	Total      float64      `json:"total"`
	Boxes      []Box        `json:"boxes"`
	HandCoords [][2]float64 `json:"hand_coords"`
	Gesture    string       `json:"gesture"`
}

// Snapshot captures mode, cart and total. Boxes and hand coordinates start
// empty so they always encode as JSON arrays.
func (s *Session) Snapshot(feedback, pose string) Snapshot {
	return Snapshot{
		Mode:       s.mode,
		Feedback:   feedback,
		Cart:       s.Cart(),
		Total:      s.total,
		Boxes:      []Box{},
		HandCoords: [][2]float64{},
		Gesture:    pose,
	}
}
