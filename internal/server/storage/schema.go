package storage

import "database/sql"

// UserRecord represents a row in the users table. Password holds the
// stored credential (an argon2id hash, see service package).
type UserRecord struct {
	UserID   int64   `db:"user_id"`
	Username string  `db:"username"`
	Password string  `db:"password"`
	Role     string  `db:"role"`
	Token    string  `db:"token"`
	Mu       float64 `db:"mu"`
	Sigma    float64 `db:"sigma"`
}

// GameRecord represents a row in the games table. Winner is null for
// draws, Disconnected is null when both players finished cleanly.
type GameRecord struct {
	GameID       string        `db:"game_id"`
	User1        int64         `db:"user1"`
	User2        int64         `db:"user2"`
	Score1       float64       `db:"score1"`
	Score2       float64       `db:"score2"`
	StartTime    string        `db:"start_time"`
	EndState     int           `db:"end_state"`
	Winner       sql.NullInt64 `db:"winner"`
	Disconnected sql.NullInt64 `db:"disconnected"`
}

// Statistics holds the per-user aggregate counts. Win rate is derived
// by callers, guarding PlayedGames == 0.
type Statistics struct {
	PlayedGames       int `json:"playedGames"`
	WonGames          int `json:"wonGames"`
	DisconnectedGames int `json:"disconnectedGames"`
}

// userSchema defines the users table (table name interpolated after
// identifier validation)
const userSchema = `
CREATE TABLE IF NOT EXISTS %s (
	user_id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'user' CHECK(role IN ('user', 'admin', 'bot')),
	token TEXT NOT NULL,
	mu FLOAT NOT NULL DEFAULT 25.0,
	sigma FLOAT NOT NULL DEFAULT 8.333
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_%s_token ON %s(token);
`

// gameSchema defines the games table
const gameSchema = `
CREATE TABLE IF NOT EXISTS %s (
	game_id TEXT NOT NULL PRIMARY KEY,
	user1 INTEGER NOT NULL,
	user2 INTEGER NOT NULL,
	score1 FLOAT NOT NULL,
	score2 FLOAT NOT NULL,
	start_time TEXT NOT NULL,
	end_state INTEGER NOT NULL,
	winner INTEGER,
	disconnected INTEGER
);

CREATE INDEX IF NOT EXISTS idx_%s_user1 ON %s(user1);
CREATE INDEX IF NOT EXISTS idx_%s_user2 ON %s(user2);
`
