// Package zone classifies a gaze direction and frame position into a named
// region of interest. The tracker itself never classifies zones; it consumes
// detections whose zone label was resolved here (or by any other upstream
// classifier).
package zone

import "github.com/gazefront/attention.report/internal/geom"

// Zone is a named region of the monitored space.
type Zone struct {
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Bounds      *geom.Box `json:"bounds,omitempty"`
	Color       [3]uint8  `json:"color"`
	Category    string    `json:"category,omitempty"`
}

// GazeContext carries everything the mapper needs to resolve one gaze sample.
type GazeContext struct {
	Yaw         float64 // head yaw in degrees, negative is left
	Pitch       float64 // head pitch in degrees
	CenterX     float64 // face center, pixels
	CenterY     float64
	FrameWidth  float64
	FrameHeight float64
	Confidence  float64
}

// Mapper resolves a gaze context to a zone name.
type Mapper interface {
	MapToZone(GazeContext) string
	Zones() []Zone
}
