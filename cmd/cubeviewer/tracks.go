package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"album-cube/lyrics"
)

func newTracksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tracks",
		Short: "List the album tracks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "#\tTITLE\tLENGTH\tWORDS\tAUDIO")
			for i, tr := range lyrics.Catalog() {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", i+1, tr.Title, tr.Length, len(tr.Lyrics), tr.AudioSrc)
			}
			return w.Flush()
		},
	}
}
