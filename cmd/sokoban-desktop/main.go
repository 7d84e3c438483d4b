// Command sokoban-desktop plays the puzzle in a desktop window.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/amalg/go-sokoban/internal/config"
	"github.com/amalg/go-sokoban/internal/desktop"
	"github.com/amalg/go-sokoban/internal/game"
	"github.com/amalg/go-sokoban/internal/logging"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: loading .env file: %v\n", err)
	}

	app := &cli.Command{
		Name:  "sokoban-desktop",
		Usage: "push every box into a hole, in a window",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a TOML or YAML config file",
				Sources: cli.EnvVars("SOKOBAN_CONFIG"),
			},
		},
		Action: run,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Logging, false)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	engine := game.NewEngine(game.DefaultLevel(), cfg.EngineConfig())
	engine.SetLogger(log)
	engine.EnableInvariantChecks(cfg.Game.CheckInvariants)

	return desktop.Run(desktop.New(engine, cfg.Desktop.CellSize, log), cfg.Desktop.Title)
}
