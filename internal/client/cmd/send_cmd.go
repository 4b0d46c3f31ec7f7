package cmd

import (
	"os"

	"github.com/rudransh-shrivastava/snd/internal/node"
	"github.com/rudransh-shrivastava/snd/internal/picker"
	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send [path]",
	Short: "send a file or directory to a host on the local network",
	Long: `listens for announcing hosts, lets you pick one, and offers it the file.
Directories are sent as a gzip-compressed tarball and unpacked on arrival.`,
	Args: cobra.MaximumNArgs(1),
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

		path := ""
		if len(args) == 1 {
			path = args[0]
		} else if path, err = term.Prompt(ctx, "Path to send: "); err != nil {
			log.Error(err)
			return
		}

		s := node.NewSender(node.Options{
			Picker:    term,
			Confirmer: term,
			Config:    st.settings,
			History:   st.history,
			Progress:  newProgressBar,
			Logger:    log,
		})
		if err := s.Send(ctx, path); err != nil {
			log.Error(err)
			return
		}
		log.Info("Transfer complete")
	},
}
