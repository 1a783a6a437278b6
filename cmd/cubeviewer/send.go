package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"album-cube/customization"
	"album-cube/handoff"
)

func newSendCmd(g *globals) *cobra.Command {
	var url string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "send <preset>",
		Short: "Push a preset to a running viewer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := g.load(); err != nil {
				return err
			}
			c, err := customization.LoadFile(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := handoff.Send(ctx, url, c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent %s to %s\n", args[0], url)
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "ws://localhost:8080/handoff", "Viewer handoff endpoint")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Give up after this long")
	return cmd
}
