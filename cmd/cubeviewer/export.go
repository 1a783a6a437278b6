package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"album-cube/assets"
	"album-cube/core"
	"album-cube/customization"
	"album-cube/engine"
	"album-cube/facetext"
	"album-cube/scene"
)

func newExportCmd(g *globals) *cobra.Command {
	var preset string
	cmd := &cobra.Command{
		Use:   "export <out.glb>",
		Short: "Write the customized cube as binary glTF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.load()
			if err != nil {
				return err
			}
			c := customization.Default()
			if preset != "" {
				if c, err = customization.LoadFile(preset); err != nil {
					return err
				}
			}

			store, err := assets.NewS3Client(assets.S3Config{
				Region:    cfg.S3.Region,
				Endpoint:  cfg.S3.Endpoint,
				AccessKey: cfg.S3.AccessKey,
				SecretKey: cfg.S3.SecretKey,
			})
			if err != nil {
				return err
			}

			host := newHeadlessHost(cfg.Window.Width, cfg.Window.Height)
			eng := engine.New(engine.Options{
				NewSurface: func() (engine.Surface, error) { return nullSurface{}, nil },
				Loader:     assets.NewLoader(assets.Options{Store: store, BaseDir: cfg.AssetDir, Logger: logger}),
				Compositor: facetext.Options{Size: cfg.TextSurface, FontSize: cfg.FontSize},
				CubeSize:   cfg.CubeSize,
				// Loads finish before Render returns; their results wait in the post queue.
				Spawn:  func(fn func()) { fn() },
				Logger: logger,
			})
			if err := eng.Mount(host); err != nil {
				return err
			}
			defer eng.Unmount()

			if err := eng.Render(c, nil); err != nil {
				return err
			}
			host.Tick()

			cube := eng.Cube()
			cube.Transform = core.NewTransform()
			if err := scene.ExportGLB(args[0], cube); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s, %d triangles)\n", args[0], cube.Mesh.Spec, cube.Mesh.TriangleCount())
			return nil
		},
	}
	cmd.Flags().StringVar(&preset, "preset", "", "Customization preset (YAML or JSON)")
	return cmd
}

// headlessHost drives the engine without a window.
type headlessHost struct {
	*core.FrameLoop
	width, height int
}

func newHeadlessHost(width, height int) *headlessHost {
	return &headlessHost{FrameLoop: core.NewFrameLoop(), width: width, height: height}
}

func (h *headlessHost) Size() (int, int)                      { return h.width, h.height }
func (h *headlessHost) AddResizeListener(func(int, int)) int { return 0 }
func (h *headlessHost) RemoveResizeListener(int)             {}

type nullSurface struct{}

func (nullSurface) SetSize(int, int)     {}
func (nullSurface) Render(*scene.Scene) {}
func (nullSurface) Detach()              {}
func (nullSurface) Destroy() error       { return nil }
