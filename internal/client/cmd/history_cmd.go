package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "list past transfers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStores()
		if err != nil {
			return err
		}
		defer st.close()

		transfers, err := st.history.List(context.Background(), historyLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(transfers) == 0 {
			fmt.Fprintln(out, "No transfers yet.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tDIRECTION\tPEER\tPATH\tSIZE\tMODE\tSTATUS")
		for _, t := range transfers {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				humanize.Time(time.Unix(t.CreatedAt, 0)),
				t.Direction, t.Peer, t.Path, humanize.IBytes(t.Size), t.Mode, t.Status)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of transfers to show, 0 for all")
}
