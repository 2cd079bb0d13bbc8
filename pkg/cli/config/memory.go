package config

import (
	"log/slog"
	"time"

	"github.com/secmon-lab/pythia/pkg/service/memory"
	"github.com/urfave/cli/v3"
)

// Memory holds conversation memory configuration
type Memory struct {
	enabled    bool
	maxTurns   int
	sessionTTL time.Duration
}

func (x *Memory) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "memory-enabled",
			Usage:       "Record per-user conversation history",
			Category:    "Memory",
			Value:       true,
			Sources:     cli.EnvVars("PYTHIA_MEMORY_ENABLED"),
			Destination: &x.enabled,
		},
		&cli.IntFlag{
			Name:        "max-history-turns",
			Usage:       "User/assistant exchanges retained per conversation",
			Category:    "Memory",
			Value:       memory.DefaultMaxTurns,
			Sources:     cli.EnvVars("PYTHIA_MAX_HISTORY_TURNS"),
			Destination: &x.maxTurns,
		},
		&cli.DurationFlag{
			Name:        "session-ttl",
			Usage:       "Inactivity timeout before a conversation expires",
			Category:    "Memory",
			Value:       memory.DefaultSessionTTL,
			Sources:     cli.EnvVars("PYTHIA_SESSION_TTL"),
			Destination: &x.sessionTTL,
		},
	}
}

func (x Memory) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("enabled", x.enabled),
		slog.Int("max_turns", x.maxTurns),
		slog.Duration("session_ttl", x.sessionTTL),
	)
}

// MaxTurns returns the configured exchange bound
func (x *Memory) MaxTurns() int {
	return x.maxTurns
}

// Configure creates the conversation memory store
func (x *Memory) Configure() *memory.Store {
	return memory.New(
		memory.WithEnabled(x.enabled),
		memory.WithMaxTurns(x.maxTurns),
		memory.WithSessionTTL(x.sessionTTL),
	)
}
