package cli

import (
	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in and print the server response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			client, resp, err := connect(cmd.Context(), cmd, cfg, logger)
			if resp != nil {
				printResponse(cmd.OutOrStdout(), resp)
			}
			if err != nil {
				return err
			}
			logout(client, logger)
			return nil
		},
	}
}
