package playthrough

import "time"

// Config holds configuration for a playthrough run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Sessions int           // Number of sessions to play
	Rounds   int           // Rounds per session
	Players  int           // Players per session, clamped to each game's range
	Workers  int           // Sessions played concurrently
	Timeout  time.Duration // HTTP request timeout
	Seed     uint64        // Random seed; runs with the same seed make the same moves
	Verbose  bool          // Log every session
}

// Stats holds run statistics.
type Stats struct {
	SessionsStarted   int64
	SessionsCompleted int64
	ScoresSubmitted   int64
	Undos             int64
	Redos             int64
	Mismatches        int64
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
