package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/faiface/beep/speaker"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"album-cube/assets"
	"album-cube/config"
	"album-cube/customization"
	"album-cube/engine"
	"album-cube/facetext"
	"album-cube/handoff"
	"album-cube/host"
	"album-cube/renderer"
)

type runFlags struct {
	preset string
	watch  bool
	track  string
	listen string
}

func newRunCmd(g *globals) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open the cube viewer window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("preset") && cfg.Preset != "" {
				f.preset = cfg.Preset
			}
			if !cmd.Flags().Changed("watch") {
				f.watch = f.watch || cfg.Watch
			}
			if !cmd.Flags().Changed("listen") && cfg.Listen != "" {
				f.listen = cfg.Listen
			}
			return run(cfg, f, logger)
		},
	}
	cmd.Flags().StringVar(&f.preset, "preset", "", "Customization preset (YAML or JSON)")
	cmd.Flags().BoolVar(&f.watch, "watch", false, "Reload the preset when it changes")
	cmd.Flags().StringVar(&f.track, "track", "", "Play an album track by title")
	cmd.Flags().StringVar(&f.listen, "listen", "", "Accept preset handoff over websocket on this address")
	return cmd
}

const statsInterval = 5 * time.Second

func run(cfg config.Config, f *runFlags, logger *slog.Logger) error {
	base := customization.Default()
	if f.preset != "" {
		c, err := customization.LoadFile(f.preset)
		if err != nil {
			return err
		}
		base = c
	}

	window, err := host.NewWindow(host.WindowConfig{
		Width:     cfg.Window.Width,
		Height:    cfg.Window.Height,
		Title:     cfg.Window.Title,
		Resizable: true,
		VSync:     cfg.Window.VSync,
	})
	if err != nil {
		return err
	}
	defer window.Destroy()

	s3Client, err := assets.NewS3Client(assets.S3Config{
		Region:    cfg.S3.Region,
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
	})
	if err != nil {
		return err
	}
	loader := assets.NewLoader(assets.Options{Store: s3Client, BaseDir: cfg.AssetDir, Logger: logger})

	var surface *renderer.RenderEngine
	eng := engine.New(engine.Options{
		NewSurface: func() (engine.Surface, error) {
			re, err := renderer.NewRenderEngine(logger)
			if err != nil {
				return nil, err
			}
			surface = re
			return re, nil
		},
		Loader:     loader,
		Compositor: facetext.Options{Size: cfg.TextSurface, FontSize: cfg.FontSize},
		Camera:     engine.CameraOptions{FOV: cfg.Camera.FOV, Near: cfg.Camera.Near, Far: cfg.Camera.Far, Z: cfg.Camera.Z},
		CubeSize:   cfg.CubeSize,
		Logger:     logger,
	})
	if err := eng.Mount(window); err != nil {
		return err
	}
	defer func() {
		if err := eng.Unmount(); err != nil {
			logger.Warn("unmount", "err", err)
		}
	}()

	v := newViewer(window, eng, cfg.Window.Title, base, logger)
	if f.track != "" {
		if err := v.play(cfg, f.track); err != nil {
			return err
		}
		defer v.el.Close()
	}
	v.render()

	if f.watch && f.preset != "" {
		stop, err := watchPreset(f.preset, logger, func(c customization.Customization) {
			window.Post(func() { v.setBase(c) })
		})
		if err != nil {
			return err
		}
		defer stop()
	}

	if f.listen != "" {
		mux := http.NewServeMux()
		mux.Handle("/handoff", handoff.NewServer(func(c customization.Customization) {
			window.Post(func() { v.setBase(c) })
		}, logger))
		srv := &http.Server{Addr: f.listen, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("handoff server", "err", err)
			}
		}()
		logger.Info("handoff listening", "addr", f.listen)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	spaceWasDown := false
	lastStats := time.Now()
	for !window.ShouldClose() {
		window.Step()
		v.syncLyrics()

		if time.Since(lastStats) >= statsInterval && surface != nil {
			objects, triangles, points := surface.DrawStats()
			logger.Debug("draw stats", "objects", objects, "triangles", triangles, "points", points)
			lastStats = time.Now()
		}

		if window.IsKeyPressed(host.KeyEscape) {
			window.SetShouldClose(true)
		}
		spaceDown := window.IsKeyPressed(host.KeySpace)
		if spaceDown && !spaceWasDown && v.el != nil {
			speaker.Lock()
			v.el.SetPaused(!v.el.Paused())
			speaker.Unlock()
		}
		spaceWasDown = spaceDown
	}
	return nil
}

// watchPreset calls fn with the re-parsed preset each time the file is written.
// The parent directory is watched so editors that replace the file are seen.
func watchPreset(path string, logger *slog.Logger, fn func(customization.Customization)) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch preset: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch preset: %w", err)
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				c, err := customization.LoadFile(abs)
				if err != nil {
					logger.Warn("preset reload", "path", abs, "err", err)
					continue
				}
				logger.Info("preset reloaded", "path", abs)
				fn(c)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("preset watcher", "err", err)
			}
		}
	}()
	return func() { watcher.Close() }, nil
}
