package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/martius-lab/teamproject-competition-server/internal/server/service"
	"github.com/martius-lab/teamproject-competition-server/internal/server/storage"

	"github.com/chzyer/readline"
)

var consoleCompleter = readline.NewPrefixCompleter(
	readline.PcItem("users"),
	readline.PcItem("ranking"),
	readline.PcItem("stats"),
	readline.PcItem("games"),
	readline.PcItem("game"),
	readline.PcItem("search"),
	readline.PcItem("help"),
	readline.PcItem("exit"),
	readline.PcItem("quit"),
)

// runConsole starts an interactive shell against the databases
func runConsole(args []string) error {
	fs := flag.NewFlagSet("console", flag.ContinueOnError)
	opts := storeFlags(fs)

	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.NewStore(*opts)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	svc := service.New(store, nil)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "comprl> ",
		HistoryFile:     "/tmp/comprl-console.history",
		AutoComplete:    consoleCompleter,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize console: %w", err)
	}
	defer rl.Close()

	fmt.Println("Competition console. Type 'help' for commands, 'exit' to quit.")

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			break
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		cmd, rest := fields[0], fields[1:]
		switch cmd {
		case "exit", "quit":
			return nil
		case "help":
			printConsoleHelp()
		case "users":
			if err := printUserTable(store); err != nil {
				fmt.Printf("Error: %v\n", err)
			}
		case "ranking":
			if err := printRanking(svc); err != nil {
				fmt.Printf("Error: %v\n", err)
			}
		case "stats":
			if err := consoleStats(store, rest); err != nil {
				fmt.Printf("Error: %v\n", err)
			}
		case "games":
			if err := consoleGames(store, rest); err != nil {
				fmt.Printf("Error: %v\n", err)
			}
		case "game":
			if err := consoleGame(svc, rest); err != nil {
				fmt.Printf("Error: %v\n", err)
			}
		case "search":
			if err := consoleSearch(svc, rest); err != nil {
				fmt.Printf("Error: %v\n", err)
			}
		default:
			fmt.Printf("Unknown command: %s (try 'help')\n", cmd)
		}
	}

	return nil
}

func printConsoleHelp() {
	fmt.Println("Commands:")
	fmt.Println("  users              List all users with their statistics")
	fmt.Println("  ranking            Show the leaderboard")
	fmt.Println("  stats <userId>     Show statistics of one user")
	fmt.Println("  games <userId>     List all games of one user")
	fmt.Println("  game <gameId>      Show one game")
	fmt.Println("  search <words>     Search games by id or username (up to 3 keywords)")
	fmt.Println("  exit               Leave the console")
}

func printRanking(svc *service.Service) error {
	entries, err := svc.RankedUsers()
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("No users found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Rank\tUsername\tRating\tMu\tSigma")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%.2f\t%.2f\t%.2f\n", e.Rank, e.Username, e.Rating, e.Mu, e.Sigma)
	}
	return w.Flush()
}

func consoleStats(store *storage.Store, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: stats <userId>")
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid user id: %s", args[0])
	}

	stats, err := store.GetStatistics(userID)
	if err != nil {
		return err
	}

	fmt.Printf("Played: %d  Won: %d  Disconnects: %d\n",
		stats.PlayedGames, stats.WonGames, stats.DisconnectedGames)
	return nil
}

func consoleGames(store *storage.Store, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: games <userId>")
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid user id: %s", args[0])
	}

	games, err := store.GamesByUser(userID)
	if err != nil {
		return err
	}
	if len(games) == 0 {
		fmt.Println("No games found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Game ID\tScore\tEnd State\tStart Time")
	for _, g := range games {
		fmt.Fprintf(w, "%s\t%.1f : %.1f\t%s\t%s\n",
			g.GameID, g.Score1, g.Score2, endStateName(g.EndState), g.StartTime)
	}
	return w.Flush()
}

func consoleGame(svc *service.Service, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: game <gameId>")
	}

	view, err := svc.GameByID(args[0])
	if err != nil {
		return err
	}

	printGameView(view)
	return nil
}

func consoleSearch(svc *service.Service, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: search <keyword> [keyword] [keyword]")
	}

	views, err := svc.SearchGames(strings.Join(args, " "))
	if err != nil {
		return err
	}
	if len(views) == 0 {
		fmt.Println("No games found")
		return nil
	}

	for i := range views {
		printGameView(&views[i])
	}
	fmt.Printf("\nFound %d game(s)\n", len(views))
	return nil
}

func printGameView(view *service.GameView) {
	fmt.Printf("Game %s (%s, started %s)\n", view.GameID, endStateName(view.EndState), view.StartTime)
	for _, p := range view.Participants {
		marker := " "
		switch {
		case p.Winner:
			marker = "W"
		case p.Disconnected:
			marker = "D"
		}
		fmt.Printf("  [%s] %-20s %.1f\n", marker, p.Name, p.Score)
	}
}
