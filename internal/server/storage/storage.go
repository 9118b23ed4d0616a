package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"regexp"

	_ "github.com/mattn/go-sqlite3"
)

// tableNameRe restricts configurable table names to plain SQL
// identifiers, since table names cannot be bound as statement
// parameters.
var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store handles SQLite access to the user and game databases. The two
// stores are separate database files (matching the deployed layout);
// there are no cross-store transactions.
type Store struct {
	users      *sql.DB
	games      *sql.DB
	usersPath  string
	gamesPath  string
	usersTable string
	gamesTable string
}

// Options configures the database files and table names
type Options struct {
	UserDBPath string
	UserTable  string
	GameDBPath string
	GameTable  string
}

// NewStore opens both databases and creates the schema if absent
func NewStore(opts Options) (*Store, error) {
	for _, name := range []string{opts.UserTable, opts.GameTable} {
		if !tableNameRe.MatchString(name) {
			return nil, fmt.Errorf("invalid table name: %q", name)
		}
	}

	users, err := openDB(opts.UserDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open user database: %w", err)
	}

	games, err := openDB(opts.GameDBPath)
	if err != nil {
		users.Close()
		return nil, fmt.Errorf("failed to open game database: %w", err)
	}

	s := &Store{
		users:      users,
		games:      games,
		usersPath:  opts.UserDBPath,
		gamesPath:  opts.GameDBPath,
		usersTable: opts.UserTable,
		gamesTable: opts.GameTable,
	}

	if err := s.initSchema(); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

func openDB(path string) (*sql.DB, error) {
	// Username substring search must be case-sensitive; SQLite's LIKE
	// is case-insensitive for ASCII by default, and the pragma is
	// per-connection, so it travels in the DSN to cover every
	// connection the pool opens.
	dsn := fmt.Sprintf("file:%s?_case_sensitive_like=1", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

// initSchema creates both tables idempotently
func (s *Store) initSchema() error {
	userDDL := fmt.Sprintf(userSchema, s.usersTable, s.usersTable, s.usersTable)
	if _, err := s.users.Exec(userDDL); err != nil {
		return fmt.Errorf("failed to create users schema: %w", err)
	}

	gameDDL := fmt.Sprintf(gameSchema,
		s.gamesTable, s.gamesTable, s.gamesTable, s.gamesTable, s.gamesTable)
	if _, err := s.games.Exec(gameDDL); err != nil {
		return fmt.Errorf("failed to create games schema: %w", err)
	}

	return nil
}

// Ping verifies both database connections
func (s *Store) Ping() error {
	if err := s.users.Ping(); err != nil {
		return fmt.Errorf("user database unreachable: %w", err)
	}
	if err := s.games.Ping(); err != nil {
		return fmt.Errorf("game database unreachable: %w", err)
	}
	return nil
}

// Close closes both database connections
func (s *Store) Close() error {
	return errors.Join(s.users.Close(), s.games.Close())
}

// DeleteDB closes both connections and removes the database files.
// Missing files are not an error.
func (s *Store) DeleteDB() error {
	if err := s.Close(); err != nil {
		return err
	}

	for _, path := range []string{s.usersPath, s.gamesPath} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete %s: %w", path, err)
		}
	}

	return nil
}
