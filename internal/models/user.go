package models

// User represents a row in the PostgreSQL users table.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // never serialize
	HighScore    int    `json:"high_score"`
}

// LeaderboardEntry is one row of the top-10 leaderboard.
type LeaderboardEntry struct {
	Username  string `json:"username"`
	HighScore int    `json:"high_score"`
}

// CredentialsRequest is the JSON body for POST /api/signup and POST /api/login.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ScoreRequest is the JSON body for POST /api/score. Score is a pointer so a
// missing field can be told apart from an explicit zero.
type ScoreRequest struct {
	Score *int `json:"score"`
}
