package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/amalg/go-sokoban/internal/agent"
	"github.com/amalg/go-sokoban/internal/discovery"
	"github.com/amalg/go-sokoban/internal/game"
	"github.com/amalg/go-sokoban/internal/network"
	"github.com/amalg/go-sokoban/internal/session"
	"github.com/amalg/go-sokoban/internal/ui"
)

// browseWait is how long join listens for advertisements.
const browseWait = 2500 * time.Millisecond

func playCommand() *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "play locally in the terminal",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := setup(cmd, true)
			if err != nil {
				return err
			}
			defer e.log.Sync()

			sess := session.NewLocal(e.newEngine(), e.log)
			sess.Start(ctx)
			defer sess.Close()

			return runTUI(ctx, ui.NewModel(sess, ""))
		},
	}
}

func hostCommand() *cli.Command {
	return &cli.Command{
		Name:  "host",
		Usage: "play in the terminal and let LAN viewers join",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "listen address (default from config)"},
			&cli.StringFlag{Name: "name", Usage: "name advertised to viewers (default from config)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := setup(cmd, true)
			if err != nil {
				return err
			}
			defer e.log.Sync()

			addr := e.cfg.Network.Addr
			if a := cmd.String("addr"); a != "" {
				addr = a
			}
			name := e.cfg.Network.Name
			if n := cmd.String("name"); n != "" {
				name = n
			}

			sess := session.NewLocal(e.newEngine(), e.log)
			srv := network.NewServer(sess, e.log)
			if err := srv.Start(addr); err != nil {
				return err
			}
			sess.Start(ctx)
			defer func() {
				stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				srv.Stop(stopCtx)
				sess.Close()
			}()

			gameAddr := advertiseAddr(srv.Addr(), network.LocalAddrs(srv.Addr()))
			hostname, _ := os.Hostname()
			b := discovery.NewBroadcaster(discovery.ServerInfo{
				Name:     name,
				Host:     hostname,
				GameAddr: gameAddr,
			}, e.cfg.Network.BroadcastPort, srv.Viewers, e.log)

			bctx, cancel := context.WithCancel(ctx)
			defer cancel()
			go func() {
				if err := b.Run(bctx); err != nil {
					e.log.Warn("discovery broadcast disabled", zap.Error(err))
				}
			}()

			return runTUI(ctx, ui.NewModel(sess, name+" @ "+gameAddr))
		},
	}
}

func joinCommand() *cli.Command {
	return &cli.Command{
		Name:  "join",
		Usage: "join a hosted puzzle, discovering one on the LAN when no address is given",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "server address, e.g. 192.168.1.5:9999"},
			&cli.StringFlag{Name: "name", Value: "Viewer", Usage: "your name"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := setup(cmd, true)
			if err != nil {
				return err
			}
			defer e.log.Sync()

			addr := cmd.String("addr")
			title := addr
			if addr == "" {
				fmt.Println("Looking for hosted puzzles...")
				info, err := discovery.Browse(ctx, e.cfg.Network.BroadcastPort, browseWait, e.log)
				if err != nil {
					return err
				}
				addr = info.GameAddr
				title = info.Name
			}

			fmt.Printf("Connecting to %s...\n", addr)
			client, err := network.Dial(ctx, addr, cmd.String("name"), e.log)
			if err != nil {
				return err
			}
			defer client.Close()

			return runTUI(ctx, ui.NewModel(client, title))
		},
	}
}

func agentCommand() *cli.Command {
	return &cli.Command{
		Name:  "agent",
		Usage: "serve the puzzle as MCP tools over stdio",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			// stdout carries the MCP stream; logs go to stderr or the log file.
			e, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer e.log.Sync()

			a := agent.New(game.DefaultLevel(), e.cfg.EngineConfig(), e.log)
			e.log.Info("mcp stdio server ready")
			return a.Serve()
		},
	}
}

// advertiseAddr picks the address joiners should dial. Without a LAN
// address it drops the wildcard host so receivers fill in the sender's IP.
func advertiseAddr(listen string, lan []string) string {
	if len(lan) > 0 {
		return lan[0]
	}
	_, port, err := net.SplitHostPort(listen)
	if err != nil {
		return listen
	}
	return net.JoinHostPort("", port)
}

// runTUI runs a bubbletea program until the user quits or ctx is cancelled.
func runTUI(ctx context.Context, model tea.Model) error {
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run TUI: %w", err)
	}
	return nil
}
