package models

import "time"

// MotionEvent is a stored cycle result in which something moved.
type MotionEvent struct {
	ID          string    `json:"id"`
	Camera      string    `json:"camera"`
	Moved       bool      `json:"moved"`
	Approaching bool      `json:"approaching"`
	Direction   string    `json:"direction"`
	Magnitude   int       `json:"magnitude"`
	CreatedAt   time.Time `json:"created_at"`
}

// EventFilter contains filtering options for querying motion events.
type EventFilter struct {
	Camera    string
	Direction string
	Since     time.Time
	Limit     int
	Offset    int
}

// DirectionCount is the number of stored events per direction.
type DirectionCount struct {
	Direction string `json:"direction"`
	Count     int    `json:"count"`
}
