// Command cubeviewer shows the album cube in a window, exports it as glTF and
// pushes presets to a running viewer.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"album-cube/config"
	"album-cube/internal/logx"
)

type globals struct {
	configPath string
	envFile    string
}

func (g *globals) load() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(g.configPath, g.envFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger := logx.New(cfg.LogLevel, os.Stderr)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "cubeviewer",
		Short:         "Audio-reactive album cube viewer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", config.DefaultPath, "Path to viewer config (YAML)")
	root.PersistentFlags().StringVar(&g.envFile, "env", ".env", "Path to .env file with secrets")

	root.AddCommand(newRunCmd(g), newExportCmd(g), newSendCmd(g), newTracksCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("cubeviewer", "err", err)
		os.Exit(1)
	}
}
