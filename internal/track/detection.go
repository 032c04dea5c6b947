package track

import "github.com/gazefront/attention.report/internal/geom"

// Point is a pixel position in the frame.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Detection is one per-frame observation produced by the upstream detector
// and zone classifier. Detections are ephemeral: the tracker copies what it
// needs during Update and never retains a reference.
type Detection struct {
	Box        geom.Box `json:"box"`
	Zone       string   `json:"zone"`
	Confidence float64  `json:"confidence"`
	Yaw        float64  `json:"yaw"`
	Pitch      float64  `json:"pitch"`
	Center     Point    `json:"center"`
}

// GazeRecord is a single gaze measurement attributed to a track. Records are
// appended in frame order and never reordered.
type GazeRecord struct {
	Frame      int     `json:"frame"`
	Zone       string  `json:"zone"`
	Yaw        float64 `json:"yaw"`
	Pitch      float64 `json:"pitch"`
	Position   Point   `json:"position"`
	Confidence float64 `json:"confidence"`
	Timestamp  float64 `json:"timestamp"` // seconds since stream start (frame/fps)
}
