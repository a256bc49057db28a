package playthrough

// Wire shapes read from the service. Only the fields the runner checks are decoded.

type game struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	MinPlayers  int    `json:"minPlayers"`
	MaxPlayers  int    `json:"maxPlayers"`
	HighestWins bool   `json:"highestWins"`
}

type standing struct {
	Rank     int    `json:"rank"`
	PlayerID int    `json:"playerId"`
	Name     string `json:"name"`
	Total    int    `json:"total"`
}

type board struct {
	Session struct {
		ID   string `json:"id"`
		Code string `json:"sessionCode"`
	} `json:"session"`
	Players []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"players"`
}

type outcome struct {
	Applied   bool       `json:"applied"`
	Standings []standing `json:"standings"`
}

type completion struct {
	Winner standing `json:"winner"`
}

type scoreInput struct {
	PlayerID int    `json:"playerId"`
	Score    int    `json:"score"`
	Kind     string `json:"kind,omitempty"`
}

type roundRequest struct {
	Scores []scoreInput `json:"scores"`
}

type scoreRequest struct {
	SessionID string `json:"sessionId"`
	scoreInput
}

type startRequest struct {
	GameID  int64    `json:"gameId"`
	Players []string `json:"players"`
}

type leaderboard struct {
	Players []struct {
		Name        string `json:"name"`
		GamesPlayed int    `json:"gamesPlayed"`
		GamesWon    int    `json:"gamesWon"`
	} `json:"players"`
}
