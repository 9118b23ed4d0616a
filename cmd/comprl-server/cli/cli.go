// Package cli implements the operator mini-app for database and user
// management (comprl-server db <subcommand>).
package cli

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/martius-lab/teamproject-competition-server/internal/server/core"
	"github.com/martius-lab/teamproject-competition-server/internal/server/service"
	"github.com/martius-lab/teamproject-competition-server/internal/server/storage"

	"github.com/google/uuid"
	"github.com/lixenwraith/auth"
	"golang.org/x/term"
)

// Run is the entry point for the CLI mini-app
func Run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("subcommand required: init, delete, user, game, or console")
	}

	switch args[0] {
	case "init":
		return runInit(args[1:])
	case "delete":
		return runDelete(args[1:])
	case "user":
		if len(args) < 2 {
			return fmt.Errorf("user subcommand required: add, list, or edit")
		}
		return runUser(args[1], args[2:])
	case "game":
		if len(args) < 2 {
			return fmt.Errorf("game subcommand required: add or query")
		}
		return runGame(args[1], args[2:])
	case "console":
		return runConsole(args[1:])
	default:
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

// storeFlags registers the shared database flags on a flag set
func storeFlags(fs *flag.FlagSet) *storage.Options {
	opts := &storage.Options{}
	fs.StringVar(&opts.UserDBPath, "user-db-path", "users.db", "Path to the user database file")
	fs.StringVar(&opts.UserTable, "user-db-name", "users", "Users table name")
	fs.StringVar(&opts.GameDBPath, "game-db-path", "games.db", "Path to the game database file")
	fs.StringVar(&opts.GameTable, "game-db-name", "games", "Games table name")
	return opts
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	opts := storeFlags(fs)

	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.NewStore(*opts)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	defer store.Close()

	fmt.Printf("Databases initialized: %s, %s\n", opts.UserDBPath, opts.GameDBPath)
	return nil
}

func runDelete(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	opts := storeFlags(fs)

	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.NewStore(*opts)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	if err := store.DeleteDB(); err != nil {
		return fmt.Errorf("failed to delete databases: %w", err)
	}

	fmt.Printf("Databases deleted: %s, %s\n", opts.UserDBPath, opts.GameDBPath)
	return nil
}

func runUser(subcommand string, args []string) error {
	switch subcommand {
	case "add":
		return runUserAdd(args)
	case "list":
		return runUserList(args)
	case "edit":
		return runUserEdit(args)
	default:
		return fmt.Errorf("unknown user subcommand: %s", subcommand)
	}
}

func runUserAdd(args []string) error {
	fs := flag.NewFlagSet("user add", flag.ContinueOnError)
	opts := storeFlags(fs)
	username := fs.String("username", "", "Username (required)")
	role := fs.String("role", core.RoleUser, "Role: user, admin, or bot")
	password := fs.String("password", "", "Password (optional, will prompt if not provided)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *username == "" {
		return fmt.Errorf("username required")
	}
	if !core.ValidRole(*role) {
		return fmt.Errorf("invalid role: %s", *role)
	}

	pw := *password
	if pw == "" {
		fmt.Print("Enter password: ")
		pwBytes, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		pw = string(pwBytes)
	}
	if len(pw) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	store, err := storage.NewStore(*opts)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	svc := service.New(store, nil)
	user, err := svc.AddUser(*username, pw, *role)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("User created successfully:\n")
	fmt.Printf("  ID: %d\n", user.ID)
	fmt.Printf("  Username: %s\n", user.Name)
	fmt.Printf("  Role: %s\n", user.Role)
	fmt.Printf("  Access token: %s\n", user.Token)
	return nil
}

func runUserList(args []string) error {
	fs := flag.NewFlagSet("user list", flag.ContinueOnError)
	opts := storeFlags(fs)

	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.NewStore(*opts)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	return printUserTable(store)
}

func printUserTable(store *storage.Store) error {
	users, err := store.GetAllUsers()
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	if len(users) == 0 {
		fmt.Println("No users found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUsername\tRole\tMu\tSigma\tPlayed\tWon\tDisconnects")
	fmt.Fprintln(w, strings.Repeat("-", 80))

	for _, u := range users {
		stats, err := store.GetStatistics(u.UserID)
		if err != nil {
			return fmt.Errorf("failed to load statistics for %s: %w", u.Username, err)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\t%.2f\t%d\t%d\t%d\n",
			u.UserID, u.Username, u.Role, u.Mu, u.Sigma,
			stats.PlayedGames, stats.WonGames, stats.DisconnectedGames,
		)
	}
	w.Flush()

	fmt.Printf("\nFound %d user(s)\n", len(users))
	return nil
}

func runUserEdit(args []string) error {
	fs := flag.NewFlagSet("user edit", flag.ContinueOnError)
	opts := storeFlags(fs)
	userID := fs.Int64("id", 0, "User ID (required)")
	username := fs.String("username", "", "New username")
	role := fs.String("role", "", "New role")
	mu := fs.Float64("mu", -1, "New mu value")
	sigma := fs.Float64("sigma", -1, "New sigma value")
	setPassword := fs.Bool("set-password", false, "Prompt for a new password")
	rotateToken := fs.Bool("rotate-token", false, "Issue a fresh access token")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *userID == 0 {
		return fmt.Errorf("user id required")
	}

	store, err := storage.NewStore(*opts)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	// Load the current row, apply the requested changes, then write
	// the full row back (the store has no partial-update semantics).
	record, err := store.GetUserByID(*userID)
	if err != nil {
		return fmt.Errorf("user %d: %w", *userID, err)
	}

	if *username != "" {
		record.Username = *username
	}
	if *role != "" {
		if !core.ValidRole(*role) {
			return fmt.Errorf("invalid role: %s", *role)
		}
		record.Role = *role
	}
	if *mu >= 0 {
		record.Mu = *mu
	}
	if *sigma >= 0 {
		record.Sigma = *sigma
	}
	if *rotateToken {
		record.Token = uuid.NewString()
	}
	if *setPassword {
		fmt.Print("Enter new password: ")
		pwBytes, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		if len(pwBytes) < 8 {
			return fmt.Errorf("password must be at least 8 characters")
		}
		hash, err := auth.HashPassword(string(pwBytes))
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		record.Password = hash
	}

	if err := store.UpdateUser(record); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	fmt.Printf("User %d updated\n", *userID)
	return nil
}

func runGame(subcommand string, args []string) error {
	switch subcommand {
	case "add":
		return runGameAdd(args)
	case "query":
		return runGameQuery(args)
	default:
		return fmt.Errorf("unknown game subcommand: %s", subcommand)
	}
}

func runGameAdd(args []string) error {
	fs := flag.NewFlagSet("game add", flag.ContinueOnError)
	opts := storeFlags(fs)
	gameID := fs.String("gameId", "", "Game ID (generated if empty)")
	user1 := fs.Int64("user1", 0, "First participant user ID (required)")
	user2 := fs.Int64("user2", 0, "Second participant user ID (required)")
	score1 := fs.Float64("score1", 0, "Score of the first participant")
	score2 := fs.Float64("score2", 0, "Score of the second participant")
	startTime := fs.String("start", "", "Start time string (required)")
	endState := fs.Int("end-state", core.EndStateWin, "End state: 0=win, 1=draw, 2=disconnect")
	winner := fs.Int64("winner", 0, "Winning user ID (omit for draw)")
	disconnected := fs.Int64("disconnected", 0, "Disconnected user ID (omit if none)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *user1 == 0 || *user2 == 0 {
		return fmt.Errorf("both participants required")
	}
	if *startTime == "" {
		return fmt.Errorf("start time required")
	}

	id := *gameID
	if id == "" {
		id = uuid.NewString()
	}

	record := storage.GameRecord{
		GameID:    id,
		User1:     *user1,
		User2:     *user2,
		Score1:    *score1,
		Score2:    *score2,
		StartTime: *startTime,
		EndState:  *endState,
	}
	if *winner != 0 {
		record.Winner = sql.NullInt64{Int64: *winner, Valid: true}
	}
	if *disconnected != 0 {
		record.Disconnected = sql.NullInt64{Int64: *disconnected, Valid: true}
	}

	store, err := storage.NewStore(*opts)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	svc := service.New(store, nil)
	if err := svc.RecordGame(record); err != nil {
		return fmt.Errorf("failed to record game: %w", err)
	}

	fmt.Printf("Game recorded: %s\n", id)
	return nil
}

func runGameQuery(args []string) error {
	fs := flag.NewFlagSet("game query", flag.ContinueOnError)
	opts := storeFlags(fs)
	gameID := fs.String("gameId", "", "Game ID to look up")
	userID := fs.Int64("userId", 0, "List all games of this user ID")

	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.NewStore(*opts)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	var games []storage.GameRecord
	switch {
	case *gameID != "":
		g, err := store.GetGame(*gameID)
		if err != nil {
			return fmt.Errorf("game %s: %w", *gameID, err)
		}
		games = []storage.GameRecord{*g}
	case *userID != 0:
		games, err = store.GamesByUser(*userID)
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}
	default:
		return fmt.Errorf("either -gameId or -userId required")
	}

	if len(games) == 0 {
		fmt.Println("No games found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Game ID\tUser1\tUser2\tScore\tEnd State\tStart Time")
	fmt.Fprintln(w, strings.Repeat("-", 80))

	for _, g := range games {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.1f : %.1f\t%s\t%s\n",
			g.GameID, g.User1, g.User2, g.Score1, g.Score2,
			endStateName(g.EndState), g.StartTime,
		)
	}
	w.Flush()

	fmt.Printf("\nFound %d game(s)\n", len(games))
	return nil
}

func endStateName(state int) string {
	switch state {
	case core.EndStateWin:
		return "win"
	case core.EndStateDraw:
		return "draw"
	case core.EndStateDisconnected:
		return "disconnect"
	default:
		return "unknown"
	}
}
