package model

import "time"

// Session is one played-through instance of a game.
type Session struct {
	ID         string     `json:"id"`
	Code       string     `json:"sessionCode"`
	GameID     int64      `json:"gameId"`
	StartTime  time.Time  `json:"startTime"`
	EndTime    *time.Time `json:"endTime"`
	IsComplete bool       `json:"isComplete"`
	ScoreLimit *int       `json:"scoreLimit,omitempty"`
	WinnerID   *int       `json:"winnerId,omitempty"`
}

// Result is emitted once per completed session and feeds the cross-session player records.
type Result struct {
	SessionID string
	GameID    int64
	Players   []string
	Winner    string
	EndTime   time.Time
}
