// Package config loads the imapcore command configuration.
//
// Values come from an optional YAML file, then from the environment, which
// may itself be seeded from a .env file.
package config

import (
	"crypto/tls"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/hussein-aitlahcen/imap/imapclient"
)

const (
	EnvConfig         = "IMAPCORE_CONFIG"
	envAddr           = "IMAPCORE_ADDR"
	envUser           = "IMAPCORE_USER"
	envPass           = "IMAPCORE_PASS"
	envTLS            = "IMAPCORE_TLS"
	envCommandTimeout = "IMAPCORE_COMMAND_TIMEOUT"
)

// Config is the imapcore configuration.
type Config struct {
	Server Server `yaml:"server"`
	Log    Log    `yaml:"log"`
}

// Server describes how to reach and authenticate against the IMAP server.
type Server struct {
	Addr string `yaml:"addr"`
	User string `yaml:"user"`
	// Pass is usually left out of the file and set via IMAPCORE_PASS
	Pass string `yaml:"pass"`
	// TLS selects implicit TLS, enabled unless set to false
	TLS                *bool         `yaml:"tls"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
	DialTimeout        time.Duration `yaml:"dial_timeout"`
	CommandTimeout     time.Duration `yaml:"command_timeout"`

	MaxLineLength       int `yaml:"max_line_length"`
	UnsolicitedCapacity int `yaml:"unsolicited_capacity"`
}

// UseTLS reports whether implicit TLS is enabled.
func (s Server) UseTLS() bool {
	return s.TLS == nil || *s.TLS
}

// Log configures the logger built by NewLogger.
type Log struct {
	// debug, info, warn or error
	Level string `yaml:"level"`
	// text or json
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: Server{
			DialTimeout:    30 * time.Second,
			CommandTimeout: time.Minute,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from a YAML file on top of Default. An empty path
// returns Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "failed to parse %v", path)
	}
	return cfg, nil
}

// LoadEnvFile loads variables from a .env file into the environment. A
// missing file is not an error. Variables already set are kept.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return errors.Wrapf(godotenv.Load(path), "failed to load %v", path)
}

// ApplyEnv overrides cfg with the IMAPCORE_* environment variables.
func (cfg *Config) ApplyEnv() error {
	if v := strings.TrimSpace(os.Getenv(envAddr)); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(envUser)); v != "" {
		cfg.Server.User = v
	}
	if v := os.Getenv(envPass); v != "" {
		cfg.Server.Pass = v
	}
	if v := strings.TrimSpace(os.Getenv(envTLS)); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "invalid %v", envTLS)
		}
		cfg.Server.TLS = &b
	}
	if v := strings.TrimSpace(os.Getenv(envCommandTimeout)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(err, "invalid %v", envCommandTimeout)
		}
		cfg.Server.CommandTimeout = d
	}
	return nil
}

// Validate checks the fields required to connect.
func Validate(cfg Config) error {
	var missing []string
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		missing = append(missing, "server.addr ("+envAddr+")")
	}
	if strings.TrimSpace(cfg.Server.User) == "" {
		missing = append(missing, "server.user ("+envUser+")")
	}
	if len(missing) > 0 {
		return errors.Errorf("missing required configuration: %v", strings.Join(missing, ", "))
	}

	if _, _, err := net.SplitHostPort(cfg.Server.Addr); err != nil {
		return errors.Wrap(err, "invalid server.addr")
	}
	if cfg.Server.DialTimeout < 0 || cfg.Server.CommandTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	return nil
}

// ClientOptions maps the server section to client options.
func (cfg Config) ClientOptions(logger *slog.Logger) *imapclient.Options {
	options := &imapclient.Options{
		Logger:              logger,
		DialTimeout:         cfg.Server.DialTimeout,
		CommandTimeout:      cfg.Server.CommandTimeout,
		MaxLineLength:       cfg.Server.MaxLineLength,
		UnsolicitedCapacity: cfg.Server.UnsolicitedCapacity,
	}
	if cfg.Server.UseTLS() {
		host, _, _ := net.SplitHostPort(cfg.Server.Addr)
		options.TLSConfig = &tls.Config{
			ServerName:         host,
			InsecureSkipVerify: cfg.Server.InsecureSkipVerify,
		}
	}
	return options
}

// NewLogger builds a slog logger writing to w.
func NewLogger(cfg Log, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, errors.Wrap(err, "invalid log.level")
		}
	}

	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, errors.Errorf("invalid log.format %q", cfg.Format)
	}
}
