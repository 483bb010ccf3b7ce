package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type ServerConfig struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	// PostgresDSN selects the Postgres-backed ledger. Empty runs the
	// in-memory ledger instead.
	PostgresDSN string `env:"POSTGRES_DSN"`

	// StartingBalanceCC is granted to identities seen for the first time.
	StartingBalanceCC int64 `env:"STARTING_BALANCE_CC" envDefault:"100000"`

	NumDecks     int     `env:"NUM_DECKS" envDefault:"2"`
	ReshufflePct float64 `env:"RESHUFFLE_PCT" envDefault:"0.75"`

	// EmptySessionGrace is how long an empty session survives before the
	// janitor evicts it, covering page reloads and reconnects.
	EmptySessionGrace time.Duration `env:"EMPTY_SESSION_GRACE" envDefault:"30s"`

	// ResetVoteTimeout bounds how long a finished round waits for
	// play-again votes. Zero waits indefinitely.
	ResetVoteTimeout time.Duration `env:"RESET_VOTE_TIMEOUT" envDefault:"0"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
