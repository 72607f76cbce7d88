package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hussein-aitlahcen/imap/internal/config"
)

const defaultEnvFile = ".env"

// NewRootCmd builds the imapcore command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "imapcore",
		Short:        "imapcore sends commands to an IMAP server",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "", "path to the YAML configuration, also read from "+config.EnvConfig)
	rootCmd.PersistentFlags().String("env-file", defaultEnvFile, "path to a .env file loaded into the environment")

	rootCmd.AddCommand(
		newLoginCmd(),
		newSendCmd(),
		newShellCmd(),
		newWatchCmd(),
	)
	return rootCmd
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
