package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hussein-aitlahcen/imap/imapclient"
)

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Log in and send commands typed line by line",
		Long: `Log in and send commands typed line by line. Each line is one command,
without its tag. Untagged results received between commands are printed as
they arrive. End the session with Ctrl-D or LOGOUT.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			client, _, err := connect(cmd.Context(), cmd, cfg, logger)
			if err != nil {
				return err
			}
			defer logout(client, logger)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			out := &syncWriter{w: cmd.OutOrStdout()}
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				printUnsolicited(ctx, client.Unsolicited().Subscribe(), out)
			}()
			defer wg.Wait()
			defer cancel()

			editor := newLineEditor(cmd.InOrStdin(), "imap> ")
			defer editor.Close()
			for {
				line, err := editor.ReadLine()
				if err == io.EOF {
					return nil
				} else if err != nil {
					return err
				}

				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				resp, err := client.Send(ctx, []byte(line))
				if errors.Is(err, imapclient.ErrInvalidCommand) || errors.Is(err, imapclient.ErrNoResponse) {
					fmt.Fprintln(cmd.ErrOrStderr(), err)
					continue
				} else if err != nil {
					return err
				}
				printResponse(out, resp)

				if hasVerb(line, "LOGOUT") {
					return nil
				}
			}
		},
	}
}

// syncWriter serializes writes from the shell loop and the unsolicited
// printer.
type syncWriter struct {
	mutex sync.Mutex
	w     io.Writer
}

func (sw *syncWriter) Write(b []byte) (int, error) {
	sw.mutex.Lock()
	defer sw.mutex.Unlock()
	return sw.w.Write(b)
}

// printUnsolicited prints results from sub until ctx is done or the
// connection is closed.
func printUnsolicited(ctx context.Context, sub *imapclient.Subscription, w io.Writer) {
	for {
		u, err := sub.Next(ctx)
		if err != nil {
			return
		}
		printResult(w, u)
	}
}
