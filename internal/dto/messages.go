package dto

import (
	"fmt"
	"strings"
)

// EnteringMessage is the body of a notification POST. Entering carries
// "True" or "False".
type EnteringMessage struct {
	Entering *string `json:"entering"`
}

// NewEnteringMessage builds the notification body for a direction.
func NewEnteringMessage(entering bool) EnteringMessage {
	v := FormatEntering(entering)
	return EnteringMessage{Entering: &v}
}

// FormatEntering renders the wire value of the entering flag.
func FormatEntering(entering bool) string {
	if entering {
		return "True"
	}
	return "False"
}

// ParseEntering accepts "True" or "False" in any letter case.
func ParseEntering(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("invalid entering value %q", value)
	}
}

// OccupancyResponse is returned by the counter endpoints.
type OccupancyResponse struct {
	Status    string `json:"status,omitempty"`
	Occupancy int    `json:"occupancy"`
}

// GateRequest toggles the detector gate.
type GateRequest struct {
	Enabled *bool `json:"enabled"`
}

// GateResponse reports the detector gate state.
type GateResponse struct {
	Enabled bool `json:"enabled"`
}

// ErrorResponse is the body of every JSON error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FrameMessage carries a JPEG frame to websocket viewers.
type FrameMessage struct {
	Type   string `json:"type"`
	Camera string `json:"camera"`
	Image  string `json:"image"` // base64 JPEG
}

// ResultMessage carries a cycle result to websocket viewers.
type ResultMessage struct {
	Type   string      `json:"type"`
	Result interface{} `json:"result"`
}
