package core

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
	RoleBot   = "bot"
)

// ValidRole reports whether s is a recognized role name
func ValidRole(s string) bool {
	return s == RoleUser || s == RoleAdmin || s == RoleBot
}

// Game end states
const (
	EndStateWin          = 0
	EndStateDraw         = 1
	EndStateDisconnected = 2
)

// Default skill-rating parameters assigned to new users
const (
	DefaultMu    = 25.0
	DefaultSigma = 8.333
)

// RegisterRequest defines the user registration payload. Key is the
// shared registration secret that gates account creation.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=1,max=40"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Key      string `json:"key" validate:"required"`
}

// LoginRequest defines the authentication payload
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// EditUserRequest is the full-row overwrite payload for the admin
// grid. Every field must be supplied, including unchanged ones.
type EditUserRequest struct {
	Username string  `json:"username" validate:"required,min=1,max=40"`
	Password string  `json:"password" validate:"required"`
	Role     string  `json:"role" validate:"required,oneof=user admin bot"`
	Token    string  `json:"token" validate:"required"`
	Mu       float64 `json:"mu"`
	Sigma    float64 `json:"sigma" validate:"gt=0"`
}

// RecordGameRequest is the game-result ingest payload
type RecordGameRequest struct {
	GameID       string  `json:"gameId" validate:"required"`
	User1        int64   `json:"user1" validate:"required"`
	User2        int64   `json:"user2" validate:"required,nefield=User1"`
	Score1       float64 `json:"score1"`
	Score2       float64 `json:"score2"`
	StartTime    string  `json:"startTime" validate:"required"`
	EndState     int     `json:"endState" validate:"min=0,max=2"`
	Winner       *int64  `json:"winner,omitempty"`
	Disconnected *int64  `json:"disconnected,omitempty"`
}
