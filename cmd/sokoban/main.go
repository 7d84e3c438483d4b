// Command sokoban plays the box-pushing puzzle in the terminal, hosts it for
// LAN viewers, joins a hosted puzzle, or serves it to an agent over MCP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/amalg/go-sokoban/internal/config"
	"github.com/amalg/go-sokoban/internal/game"
	"github.com/amalg/go-sokoban/internal/logging"
)

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: loading .env file: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "sokoban",
		Usage: "push every box into a hole",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a TOML or YAML config file",
				Sources: cli.EnvVars("SOKOBAN_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "write logs to this file (terminal modes log nowhere without it)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
		},
		DefaultCommand: "play",
		Commands: []*cli.Command{
			playCommand(),
			hostCommand(),
			joinCommand(),
			agentCommand(),
		},
	}
}

// env is what every subcommand starts from.
type env struct {
	cfg *config.Config
	log *zap.Logger
}

// setup loads the configuration and builds the logger. quiet is set by
// terminal UI modes, which own the screen.
func setup(cmd *cli.Command, quiet bool) (*env, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if f := cmd.String("log-file"); f != "" {
		cfg.Logging.File = f
	}
	if l := cmd.String("log-level"); l != "" {
		cfg.Logging.Level = l
	}

	log, err := logging.New(cfg.Logging, quiet)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return &env{cfg: cfg, log: log}, nil
}

// newEngine builds an engine for the reference level from the config.
func (e *env) newEngine() *game.Engine {
	engine := game.NewEngine(game.DefaultLevel(), e.cfg.EngineConfig())
	engine.SetLogger(e.log)
	engine.EnableInvariantChecks(e.cfg.Game.CheckInvariants)
	return engine
}
