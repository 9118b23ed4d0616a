package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/martius-lab/teamproject-competition-server/internal/server/core"
	"github.com/martius-lab/teamproject-competition-server/internal/server/storage"

	"github.com/google/uuid"
	"github.com/lixenwraith/auth"
)

const tokenTTL = 7 * 24 * time.Hour

// verifyPassword is the single credential-comparison hook. Keeping it
// behind a package variable lets the hashing strategy be swapped (and
// stubbed in tests) without touching any caller.
var verifyPassword = auth.VerifyPassword

// User is the identity returned by registration and credential checks
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Token string `json:"token"`
}

// RankEntry is one leaderboard row
type RankEntry struct {
	Rank     int     `json:"rank"`
	Username string  `json:"username"`
	Mu       float64 `json:"mu"`
	Sigma    float64 `json:"sigma"`
	Rating   float64 `json:"rating"`
}

// AddUser registers a new user with a fresh access token and default
// skill parameters. Returns core.ErrDuplicateUsername if the name is
// taken.
func (s *Service) AddUser(username, password, role string) (*User, error) {
	if role == "" {
		role = core.RoleUser
	}
	if !core.ValidRole(role) {
		return nil, fmt.Errorf("invalid role: %q", role)
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	record := &storage.UserRecord{
		Username: username,
		Password: passwordHash,
		Role:     role,
		Token:    uuid.NewString(),
		Mu:       core.DefaultMu,
		Sigma:    core.DefaultSigma,
	}

	if err := s.store.CreateUser(record); err != nil {
		return nil, err
	}

	return &User{
		ID:    record.UserID,
		Name:  record.Username,
		Role:  record.Role,
		Token: record.Token,
	}, nil
}

// Authenticate verifies the supplied credentials. Both an unknown
// username and a wrong password yield core.ErrUserNotFound so callers
// cannot distinguish the two.
func (s *Service) Authenticate(username, password string) (*User, error) {
	record, err := s.store.GetUserByUsername(username)
	if err != nil {
		// Hash anyway so the miss path costs the same as a mismatch
		auth.HashPassword(password)
		return nil, core.ErrUserNotFound
	}

	if err := verifyPassword(password, record.Password); err != nil {
		return nil, core.ErrUserNotFound
	}

	return &User{
		ID:    record.UserID,
		Name:  record.Username,
		Role:  record.Role,
		Token: record.Token,
	}, nil
}

// UserByID retrieves a user by id
func (s *Service) UserByID(userID int64) (*User, error) {
	record, err := s.store.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	return &User{
		ID:    record.UserID,
		Name:  record.Username,
		Role:  record.Role,
		Token: record.Token,
	}, nil
}

// UserByToken resolves an access token to its owner
func (s *Service) UserByToken(token string) (*User, error) {
	record, err := s.store.GetUserByToken(token)
	if err != nil {
		return nil, err
	}
	return &User{
		ID:    record.UserID,
		Name:  record.Username,
		Role:  record.Role,
		Token: record.Token,
	}, nil
}

// Users returns all user rows for the admin grid
func (s *Service) Users() ([]storage.UserRecord, error) {
	return s.store.GetAllUsers()
}

// RankedUsers returns the full leaderboard, ordered by descending
// conservative skill estimate (mu - sigma) with ascending user id as
// tiebreak.
func (s *Service) RankedUsers() ([]RankEntry, error) {
	records, err := s.store.GetRankedUsers()
	if err != nil {
		return nil, err
	}

	entries := make([]RankEntry, len(records))
	for i, r := range records {
		entries[i] = RankEntry{
			Rank:     i + 1,
			Username: r.Username,
			Mu:       r.Mu,
			Sigma:    r.Sigma,
			Rating:   r.Mu - r.Sigma,
		}
	}

	return entries, nil
}

// RankingPosition returns the 1-based leaderboard position of a user,
// or -1 if the user does not appear.
func (s *Service) RankingPosition(userID int64) (int, error) {
	records, err := s.store.GetRankedUsers()
	if err != nil {
		return -1, err
	}

	for i, r := range records {
		if r.UserID == userID {
			return i + 1, nil
		}
	}
	return -1, nil
}

// EditUser overwrites all fields of a user row. There are no
// partial-update semantics; callers pass every field, including
// unchanged ones. Returns core.ErrUserNotFound for an unknown id.
func (s *Service) EditUser(record *storage.UserRecord) error {
	if !core.ValidRole(record.Role) {
		return fmt.Errorf("invalid role: %q", record.Role)
	}
	return s.store.UpdateUser(record)
}

// SetSkill updates the matchmaking parameters of a user after a
// rating pass
func (s *Service) SetSkill(userID int64, mu, sigma float64) error {
	return s.store.SetSkill(userID, mu, sigma)
}

// GenerateToken creates a session JWT for the given user
func (s *Service) GenerateToken(user *User) (string, error) {
	claims := map[string]any{
		"username": user.Name,
		"role":     user.Role,
	}
	return auth.GenerateHS256Token(s.jwtSecret, strconv.FormatInt(user.ID, 10), claims, tokenTTL)
}

// ValidateToken verifies a session JWT and returns the user id and
// claims
func (s *Service) ValidateToken(token string) (int64, map[string]any, error) {
	subject, claims, err := auth.ValidateHS256Token(s.jwtSecret, token)
	if err != nil {
		return 0, nil, err
	}

	userID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return 0, nil, fmt.Errorf("malformed token subject: %w", err)
	}

	return userID, claims, nil
}
