package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/martius-lab/teamproject-competition-server/internal/server/core"

	"github.com/mattn/go-sqlite3"
)

const userColumns = "user_id, username, password, role, token, mu, sigma"

// CreateUser inserts a new user and returns the assigned id.
// Username uniqueness is enforced by the store constraint; concurrent
// inserts with the same name are serialized there, not by the
// application.
func (s *Store) CreateUser(record *UserRecord) error {
	query := fmt.Sprintf(
		`INSERT INTO %s (username, password, role, token, mu, sigma) VALUES (?, ?, ?, ?, ?, ?)`,
		s.usersTable)

	res, err := s.users.Exec(query,
		record.Username, record.Password, record.Role, record.Token, record.Mu, record.Sigma)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrDuplicateUsername
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted user id: %w", err)
	}
	record.UserID = id

	return nil
}

// GetUserByUsername retrieves a user by exact (case-sensitive) name
func (s *Store) GetUserByUsername(username string) (*UserRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE username = ?`, userColumns, s.usersTable)
	return s.scanUser(s.users.QueryRow(query, username))
}

// GetUserByID retrieves a user by id
func (s *Store) GetUserByID(userID int64) (*UserRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE user_id = ?`, userColumns, s.usersTable)
	return s.scanUser(s.users.QueryRow(query, userID))
}

// GetUserByToken resolves an access token to its user
func (s *Store) GetUserByToken(token string) (*UserRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE token = ?`, userColumns, s.usersTable)
	return s.scanUser(s.users.QueryRow(query, token))
}

// GetAllUsers retrieves all users ordered by id
func (s *Store) GetAllUsers() ([]UserRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY user_id ASC`, userColumns, s.usersTable)
	return s.queryUsers(query)
}

// GetRankedUsers retrieves all users ordered by descending
// conservative skill estimate (mu - sigma), ties broken by ascending
// user id so the order is deterministic.
func (s *Store) GetRankedUsers() ([]UserRecord, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM %s ORDER BY (mu - sigma) DESC, user_id ASC`,
		userColumns, s.usersTable)
	return s.queryUsers(query)
}

// SearchUsersByName returns users whose name contains the keyword
// (case-sensitive substring match). An exact-name match is moved to
// the front of the result.
func (s *Store) SearchUsersByName(keyword string) ([]UserRecord, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM %s WHERE username LIKE ? ESCAPE '\' ORDER BY user_id ASC`,
		userColumns, s.usersTable)

	users, err := s.queryUsers(query, "%"+escapeLike(keyword)+"%")
	if err != nil {
		return nil, err
	}

	for i, u := range users {
		if u.Username == keyword && i > 0 {
			match := users[i]
			copy(users[1:i+1], users[:i])
			users[0] = match
			break
		}
	}

	return users, nil
}

// UpdateUser overwrites all mutable fields of a user row. Returns
// core.ErrUserNotFound when the id does not exist.
func (s *Store) UpdateUser(record *UserRecord) error {
	query := fmt.Sprintf(
		`UPDATE %s SET username = ?, password = ?, role = ?, token = ?, mu = ?, sigma = ? WHERE user_id = ?`,
		s.usersTable)

	res, err := s.users.Exec(query,
		record.Username, record.Password, record.Role, record.Token,
		record.Mu, record.Sigma, record.UserID)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrDuplicateUsername
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return core.ErrUserNotFound
	}

	return nil
}

// SetSkill updates the matchmaking parameters of a user
func (s *Store) SetSkill(userID int64, mu, sigma float64) error {
	query := fmt.Sprintf(`UPDATE %s SET mu = ?, sigma = ? WHERE user_id = ?`, s.usersTable)

	res, err := s.users.Exec(query, mu, sigma, userID)
	if err != nil {
		return fmt.Errorf("failed to update skill parameters: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return core.ErrUserNotFound
	}

	return nil
}

func (s *Store) scanUser(row *sql.Row) (*UserRecord, error) {
	var user UserRecord
	err := row.Scan(
		&user.UserID, &user.Username, &user.Password,
		&user.Role, &user.Token, &user.Mu, &user.Sigma,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &user, nil
}

func (s *Store) queryUsers(query string, args ...any) ([]UserRecord, error) {
	rows, err := s.users.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("user query failed: %w", err)
	}
	defer rows.Close()

	var users []UserRecord
	for rows.Next() {
		var user UserRecord
		err := rows.Scan(
			&user.UserID, &user.Username, &user.Password,
			&user.Role, &user.Token, &user.Mu, &user.Sigma,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// isUniqueViolation reports whether err is a SQLite unique-constraint
// failure
func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// escapeLike escapes LIKE wildcards in a user-supplied keyword
func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
