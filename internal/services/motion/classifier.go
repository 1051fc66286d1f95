package motion

import "time"

// DefaultMovementThreshold is the magnitude floor above which a cycle counts as motion.
const DefaultMovementThreshold = 50

// Direction is the relative movement derived from two consecutive magnitudes.
type Direction int

const (
	DirectionNone Direction = iota
	DirectionApproaching
	DirectionReceding
	DirectionStationary
)

func (d Direction) String() string {
	switch d {
	case DirectionApproaching:
		return "approaching"
	case DirectionReceding:
		return "receding"
	case DirectionStationary:
		return "stationary"
	default:
		return "none"
	}
}

// State is the only history the classifier keeps between cycles.
// It is owned by a single processing goroutine.
type State struct {
	PreviousMagnitude int
}

// Reset re-arms the history so the next burst starts from scratch.
func (s *State) Reset() {
	s.PreviousMagnitude = 0
}

// Decision is the outcome of classifying one magnitude.
type Decision struct {
	Magnitude int
	Previous  int
	Moved     bool
	Direction Direction
}

// Approaching reports whether the decision fires the approach path.
// A stationary tie is never approaching.
func (d Decision) Approaching() bool {
	return d.Direction == DirectionApproaching
}

// Dispatches reports whether the decision has a side-effect path.
func (d Decision) Dispatches() bool {
	return d.Direction == DirectionApproaching || d.Direction == DirectionReceding
}

// Result is the record published once per completed cycle.
type Result struct {
	Moved       bool      `json:"moved"`
	Approaching bool      `json:"approaching"`
	Direction   string    `json:"direction"`
	Magnitude   int       `json:"magnitude"`
	Camera      string    `json:"camera,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Result converts the decision into its published form.
func (d Decision) Result(camera string, at time.Time) Result {
	return Result{
		Moved:       d.Moved,
		Approaching: d.Approaching(),
		Direction:   d.Direction.String(),
		Magnitude:   d.Magnitude,
		Camera:      camera,
		Timestamp:   at,
	}
}

// Classifier is a one-step derivative-sign detector with a hard trigger floor.
type Classifier struct {
	Threshold int
}

func NewClassifier(threshold int) Classifier {
	if threshold <= 0 {
		threshold = DefaultMovementThreshold
	}
	return Classifier{Threshold: threshold}
}

// Classify compares magnitude against the threshold and the history held in
// state. Sub-threshold magnitudes leave state untouched; anything above it
// becomes the new history.
func (c Classifier) Classify(state *State, magnitude int) Decision {
	decision := Decision{
		Magnitude: magnitude,
		Previous:  state.PreviousMagnitude,
	}
	if magnitude <= c.Threshold {
		return decision
	}

	decision.Moved = true
	if state.PreviousMagnitude > 0 {
		switch {
		case magnitude > state.PreviousMagnitude:
			decision.Direction = DirectionApproaching
		case magnitude < state.PreviousMagnitude:
			decision.Direction = DirectionReceding
		default:
			decision.Direction = DirectionStationary
		}
	}

	state.PreviousMagnitude = magnitude
	return decision
}
