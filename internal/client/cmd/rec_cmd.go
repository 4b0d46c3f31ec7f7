package cmd

import (
	"os"

	"github.com/dustin/go-humanize"
	"github.com/rudransh-shrivastava/snd/internal/node"
	"github.com/rudransh-shrivastava/snd/internal/picker"
	"github.com/rudransh-shrivastava/snd/internal/registry"
	"github.com/spf13/cobra"
)

var recCmd = &cobra.Command{
	Use:   "rec",
	Short: "wait for incoming offers",
	Long: `announces this host on the local network and collects offers from senders.
Offers are listed with vdms and accepted with rec <n>.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		log := newLogger()
		st, err := openStores()
		if err != nil {
			log.Fatal(err)
			return
		}
		defer st.close()

		ctx, stop := signalContext()
		defer stop()

		term := picker.NewTerminal(os.Stdin, os.Stdout)
		r := node.NewReceiver(node.Options{
			Config:   st.settings,
			History:  st.history,
			Progress: newProgressBar,
			Logger:   log,
		})
		r.OnOffer = func(index int, o registry.Offer) {
			term.Printf("\nOffer %d: %s (%s) from %s, type `rec %d` to accept\nsnd> ",
				index, o.Path, humanize.IBytes(o.Size), o.Sender.Name, index)
		}

		if err := r.Start(ctx); err != nil {
			log.Fatal(err)
			return
		}
		defer r.Close()

		if err := node.NewShell(r, term, os.Stdout).Run(ctx); err != nil {
			log.Error(err)
		}
	},
}
