package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hussein-aitlahcen/imap"
	"github.com/hussein-aitlahcen/imap/imapclient"
	"github.com/hussein-aitlahcen/imap/internal/config"
)

// loadConfig resolves the configuration for cmd: .env file, YAML file, then
// environment overrides.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return config.Config{}, nil, err
	}
	if err := config.LoadEnvFile(envFile); err != nil {
		return config.Config{}, nil, err
	}

	cfgPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, nil, err
	}
	if strings.TrimSpace(cfgPath) == "" {
		cfgPath = os.Getenv(config.EnvConfig)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return config.Config{}, nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, nil, err
	}

	logger, err := config.NewLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

// connect dials the configured server and logs in. The LOGIN response is
// returned along with the client.
func connect(ctx context.Context, cmd *cobra.Command, cfg config.Config, logger *slog.Logger) (*imapclient.Client, *imap.RequestResponse, error) {
	pass, err := password(cmd, cfg)
	if err != nil {
		return nil, nil, err
	}

	options := cfg.ClientOptions(logger)
	var client *imapclient.Client
	if cfg.Server.UseTLS() {
		client, err = imapclient.DialTLS(cfg.Server.Addr, options)
	} else {
		client, err = imapclient.Dial(cfg.Server.Addr, options)
	}
	if err != nil {
		return nil, nil, err
	}

	resp, err := client.Login(ctx, cfg.Server.User, pass)
	if err == nil {
		err = resp.Err()
	}
	if err != nil {
		client.Close()
		return nil, resp, errors.Wrap(err, "login failed")
	}
	logger.Info("logged in", "addr", cfg.Server.Addr, "user", cfg.Server.User)
	return client, resp, nil
}

// password returns the configured password, or prompts for it when stdin is
// a terminal.
func password(cmd *cobra.Command, cfg config.Config) (string, error) {
	if cfg.Server.Pass != "" {
		return cfg.Server.Pass, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no password configured and stdin is not a terminal, set IMAPCORE_PASS")
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Password for %v: ", cfg.Server.User)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", errors.Wrap(err, "failed to read password")
	}
	return string(b), nil
}

// printResponse writes the response in wire form, one result per line.
func printResponse(w io.Writer, resp *imap.RequestResponse) {
	for _, u := range resp.Untagged {
		printResult(w, u)
	}
	if resp.Tagged != nil {
		printResult(w, resp.Tagged)
	}
}

func printResult(w io.Writer, result imap.CommandResult) {
	fmt.Fprintln(w, strings.TrimRight(imapclient.FormatLine(result), "\r\n"))
}

const logoutTimeout = 5 * time.Second

// logout ends the session. Failures are only logged.
func logout(client *imapclient.Client, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), logoutTimeout)
	defer cancel()
	if _, err := client.Logout(ctx); err != nil {
		logger.Debug("logout failed", "err", err)
	}
}
