package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hussein-aitlahcen/imap"
)

func newSendCmd() *cobra.Command {
	var parallel bool

	cmd := &cobra.Command{
		Use:   "send COMMAND...",
		Short: "Log in, then send each argument as one command",
		Example: `  imapcore send "SELECT INBOX" "NOOP"
  imapcore send --parallel "STATUS INBOX (MESSAGES)" "STATUS Sent (MESSAGES)"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			client, _, err := connect(ctx, cmd, cfg, logger)
			if err != nil {
				return err
			}
			defer logout(client, logger)

			out := cmd.OutOrStdout()
			if !parallel {
				for _, arg := range args {
					resp, err := client.Send(ctx, []byte(arg))
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "> %v\n", arg)
					printResponse(out, resp)
				}
				return nil
			}

			responses := make([]*imap.RequestResponse, len(args))
			g, gctx := errgroup.WithContext(ctx)
			for i, arg := range args {
				g.Go(func() error {
					resp, err := client.Send(gctx, []byte(arg))
					if err != nil {
						return err
					}
					responses[i] = resp
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			for i, arg := range args {
				fmt.Fprintf(out, "> %v\n", arg)
				printResponse(out, responses[i])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&parallel, "parallel", false, "send all commands concurrently")
	return cmd
}
