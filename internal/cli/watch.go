package cli

import (
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hussein-aitlahcen/imap/imapclient"
)

func newWatchCmd() *cobra.Command {
	var (
		mailbox  string
		interval time.Duration
		count    int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Select a mailbox and poll it with NOOP, printing updates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if interval <= 0 {
				return errors.New("--interval must be positive")
			}

			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			client, _, err := connect(ctx, cmd, cfg, logger)
			if err != nil {
				return err
			}

			out := &syncWriter{w: cmd.OutOrStdout()}
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				printUnsolicited(ctx, client.Unsolicited().Subscribe(), out)
			}()

			err = watchMailbox(cmd, client, out, mailbox, interval, count)
			// Closing the connection also stops the printer
			logout(client, logger)
			wg.Wait()
			return err
		},
	}
	cmd.Flags().StringVar(&mailbox, "mailbox", "INBOX", "mailbox to select")
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "time between two NOOP commands")
	cmd.Flags().IntVar(&count, "count", 0, "stop after this many polls, 0 polls until interrupted")
	return cmd
}

func watchMailbox(cmd *cobra.Command, client *imapclient.Client, out *syncWriter, mailbox string, interval time.Duration, count int) error {
	ctx := cmd.Context()
	data, err := client.Select(ctx, mailbox)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "watching %v (messages=%d, recent=%d, uidnext=%d, uidvalidity=%d)\n",
		mailbox, data.NumMessages, data.NumRecent, data.UIDNext, data.UIDValidity)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for n := 0; count == 0 || n < count; n++ {
		select {
		case <-ctx.Done():
			return nil
		case <-client.Done():
			return imapclient.ErrClosed
		case <-ticker.C:
		}

		resp, err := client.Noop(ctx)
		if err != nil {
			return err
		}
		for _, u := range resp.Untagged {
			printResult(out, u)
		}
	}
	return nil
}
