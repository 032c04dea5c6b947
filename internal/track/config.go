package track

// Config holds the tracker tuning parameters. All values are externally
// supplied; DefaultConfig gives the operating defaults.
type Config struct {
	// IoUThreshold is the minimum IoU a detection must exceed to be matched
	// to an existing track.
	IoUThreshold float64
	// MaxMissingFrames is the number of consecutive unmatched frames a track
	// survives. A track with MissingFrames strictly greater than this is
	// finalized on the next removal pass.
	MaxMissingFrames int
	// MinSessionDuration is the minimum total duration (seconds) a track must
	// span to produce a session; shorter tracks are dropped as flicker.
	MinSessionDuration float64
	// FPS converts frame spans to seconds.
	FPS float64
}

// DefaultConfig returns the default tracker configuration.
func DefaultConfig() Config {
	return Config{
		IoUThreshold:       0.3,
		MaxMissingFrames:   20,
		MinSessionDuration: 0.5,
		FPS:                30.0,
	}
}
