// Package config handles runtime settings for the leaderboard server,
// layering defaults, environment variables, and command-line flags.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the recognized options.
//
// UserDBName and GameDBName are table names inside the respective
// database files; the split into two stores matches the deployed
// layout of the competition server.
type Config struct {
	APIHost    string `env:"COMPRL_API_HOST"`
	APIPort    int    `env:"COMPRL_API_PORT"`
	UserDBPath string `env:"COMPRL_USER_DB_PATH"`
	UserDBName string `env:"COMPRL_USER_DB_NAME"`
	GameDBPath string `env:"COMPRL_GAME_DB_PATH"`
	GameDBName string `env:"COMPRL_GAME_DB_NAME"`
	// Key is the shared registration secret compared literally against
	// the submitted registration-form field. Registration is disabled
	// while it is empty.
	Key       string `env:"COMPRL_REGISTRATION_KEY"`
	JWTSecret string `env:"COMPRL_JWT_SECRET"`
	Dev       bool   `env:"COMPRL_DEV"`
}

// LoadDefaults populates Config with development defaults
func (c *Config) LoadDefaults() {
	c.APIHost = "localhost"
	c.APIPort = 8080
	c.UserDBPath = "users.db"
	c.UserDBName = "users"
	c.GameDBPath = "games.db"
	c.GameDBName = "games"
	c.Key = ""
	c.JWTSecret = ""
	c.Dev = false
}

// Load builds a Config by applying defaults, then overlaying
// environment variables and finally command-line flags.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.parseFlags(args); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) parseFlags(args []string) error {
	fs := flag.NewFlagSet("comprl-server", flag.ContinueOnError)

	fs.StringVar(&c.APIHost, "api-host", c.APIHost, "API server host")
	fs.IntVar(&c.APIPort, "api-port", c.APIPort, "API server port")
	fs.StringVar(&c.UserDBPath, "user-db-path", c.UserDBPath, "Path to the user database file")
	fs.StringVar(&c.UserDBName, "user-db-name", c.UserDBName, "Users table name")
	fs.StringVar(&c.GameDBPath, "game-db-path", c.GameDBPath, "Path to the game database file")
	fs.StringVar(&c.GameDBName, "game-db-name", c.GameDBName, "Games table name")
	fs.StringVar(&c.Key, "key", c.Key, "Registration key (registration disabled if empty)")
	fs.StringVar(&c.JWTSecret, "jwt-secret", c.JWTSecret, "JWT signing secret (generated if empty)")
	fs.BoolVar(&c.Dev, "dev", c.Dev, "Development mode (relaxed rate limits, fixed JWT secret)")

	return fs.Parse(args)
}
