package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rudransh-shrivastava/snd/internal/db"
	"github.com/rudransh-shrivastava/snd/internal/logger"
	"github.com/rudransh-shrivastava/snd/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	dbPath  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   `snd`,
	Short: "send files to other machines on the local network",
	Long: `snd finds other snd hosts on the local network through UDP broadcast
and transfers files and directories to them directly, without a server.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDBPath(), "settings and history database")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(recCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(historyCmd)
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "snd.sqlite3"
	}
	return filepath.Join(dir, "snd", "snd.sqlite3")
}

func newLogger() *logrus.Logger {
	log := logger.NewLogger()
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

type stores struct {
	settings store.SettingsRepository
	history  store.HistoryRepository
	close    func()
}

func openStores() (stores, error) {
	gdb, err := db.Open(dbPath)
	if err != nil {
		return stores{}, err
	}
	return stores{
		settings: store.NewSettingsStore(gdb),
		history:  store.NewHistoryStore(gdb),
		close:    func() { _ = db.Close(gdb) },
	}, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
