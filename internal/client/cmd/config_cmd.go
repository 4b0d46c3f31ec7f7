package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/rudransh-shrivastava/snd/internal/store"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "show or change settings",
	Long: fmt.Sprintf(`settings are stored in the local database.
Keys: %s`, strings.Join(store.Keys(), ", ")),
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "print one setting, or all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStores()
		if err != nil {
			return err
		}
		defer st.close()

		ctx := context.Background()
		out := cmd.OutOrStdout()
		if len(args) == 1 {
			v, err := st.settings.Get(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, v)
			return nil
		}

		all, err := st.settings.All(ctx)
		if err != nil {
			return err
		}
		for _, key := range store.Keys() {
			fmt.Fprintf(out, "%s = %s\n", key, all[key])
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set key value",
	Short: "change a setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStores()
		if err != nil {
			return err
		}
		defer st.close()

		return st.settings.Set(context.Background(), args[0], args[1])
	},
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}
