package models

import "time"

// OccupancyEvent records one counter adjustment and the count after it.
type OccupancyEvent struct {
	ID        string    `json:"id"`
	Entering  bool      `json:"entering"`
	Count     int       `json:"count"`
	CreatedAt time.Time `json:"created_at"`
}

// Telemetry is the payload published to the telemetry topic. The keys are
// the ones the dashboard already uses.
type Telemetry struct {
	Occupancy    int     `json:"contadorAforo"`
	LightPercent float64 `json:"porcentajeLuz"`
	AirPPM       float64 `json:"porcentajeAire"`
}
