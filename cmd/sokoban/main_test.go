package main

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/amalg/go-sokoban/internal/discovery"
)

// captureSetup runs the app with an extra subcommand that records its setup.
func captureSetup(t *testing.T, args ...string) (*env, error) {
	t.Helper()
	var got *env
	var setupErr error

	app := newApp()
	app.Commands = append(app.Commands, &cli.Command{
		Name: "capture-setup",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			got, setupErr = setup(cmd, true)
			return nil
		},
	})
	require.NoError(t, app.Run(context.Background(), append(append([]string{"sokoban"}, args...), "capture-setup")))
	return got, setupErr
}

func TestSubcommands(t *testing.T) {
	app := newApp()
	var names []string
	for _, c := range app.Commands {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"play", "host", "join", "agent"}, names)
}

func TestSetupDefaults(t *testing.T) {
	e, err := captureSetup(t)
	require.NoError(t, err)
	assert.Equal(t, 20, e.cfg.Game.TickRate)
	assert.Equal(t, "info", e.cfg.Logging.Level)

	engine := e.newEngine()
	assert.Equal(t, 20, engine.Config.TickRate)
}

func TestSetupFlagsOverrideConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sokoban.toml")
	require.NoError(t, os.WriteFile(path, []byte("[game]\ntick_rate = 30\n\n[logging]\nlevel = \"warn\"\n"), 0o644))

	e, err := captureSetup(t, "--config", path, "--log-level", "debug")
	require.NoError(t, err)
	assert.Equal(t, 30, e.cfg.Game.TickRate)
	assert.Equal(t, "debug", e.cfg.Logging.Level)
}

func TestSetupReportsBadConfig(t *testing.T) {
	_, err := captureSetup(t, "--config", filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestAdvertiseAddr(t *testing.T) {
	assert.Equal(t, "192.168.1.7:9999", advertiseAddr("[::]:9999", []string{"192.168.1.7:9999", "10.0.0.2:9999"}))
	assert.Equal(t, ":9999", advertiseAddr("[::]:9999", nil))
	assert.Equal(t, ":9999", advertiseAddr("0.0.0.0:9999", nil))

	data, err := discovery.Encode(discovery.ServerInfo{Name: "attic", GameAddr: advertiseAddr("[::]:9999", nil)})
	require.NoError(t, err)
	info, err := discovery.Decode(data, &net.UDPAddr{IP: net.IPv4(10, 1, 2, 3), Port: 9998})
	require.NoError(t, err)
	assert.Equal(t, "10.1.2.3:9999", info.GameAddr)
}
