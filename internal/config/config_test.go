package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	for _, name := range []string{envAddr, envUser, envPass, envTLS, envCommandTimeout} {
		t.Setenv(name, "")
	}
}

func TestLoad(t *testing.T) {
	path := writeTempFile(t, "config.yaml", `
server:
  addr: "imap.example.org:993"
  user: "alice"
  insecure_skip_verify: true
  command_timeout: 10s
  unsolicited_capacity: 50
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "imap.example.org:993", cfg.Server.Addr)
	assert.Equal(t, "alice", cfg.Server.User)
	assert.True(t, cfg.Server.UseTLS())
	assert.True(t, cfg.Server.InsecureSkipVerify)
	assert.Equal(t, 10*time.Second, cfg.Server.CommandTimeout)
	// Defaults survive for unset fields
	assert.Equal(t, 30*time.Second, cfg.Server.DialTimeout)
	assert.Equal(t, 50, cfg.Server.UnsolicitedCapacity)
	assert.Equal(t, Log{Level: "debug", Format: "json"}, cfg.Log)
	assert.NoError(t, Validate(cfg))
}

func TestLoad_empty(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_invalidYAML(t *testing.T) {
	path := writeTempFile(t, "config.yaml", "server: [valid_yaml")
	_, err := Load(path)
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(envAddr, "localhost:143")
	t.Setenv(envUser, "bob")
	t.Setenv(envPass, "s3cret ")
	t.Setenv(envTLS, "false")
	t.Setenv(envCommandTimeout, "5s")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "localhost:143", cfg.Server.Addr)
	assert.Equal(t, "bob", cfg.Server.User)
	assert.Equal(t, "s3cret ", cfg.Server.Pass)
	assert.False(t, cfg.Server.UseTLS())
	assert.Equal(t, 5*time.Second, cfg.Server.CommandTimeout)

	options := cfg.ClientOptions(nil)
	assert.Nil(t, options.TLSConfig)
	assert.Equal(t, 5*time.Second, options.CommandTimeout)
}

func TestApplyEnv_invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv(envTLS, "maybe")
	cfg := Default()
	assert.Error(t, cfg.ApplyEnv())

	clearEnv(t)
	t.Setenv(envCommandTimeout, "soon")
	cfg = Default()
	assert.Error(t, cfg.ApplyEnv())
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv(envUser)
	path := writeTempFile(t, ".env", "IMAPCORE_USER=carol\nIMAPCORE_ADDR=mail.example.org:993\n")
	t.Setenv(envAddr, "kept.example.org:993")

	require.NoError(t, LoadEnvFile(path))
	t.Cleanup(func() { os.Unsetenv(envUser) })

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "carol", cfg.Server.User)
	assert.Equal(t, "kept.example.org:993", cfg.Server.Addr)

	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
}

func TestValidate(t *testing.T) {
	cfg := Default()
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.addr")
	assert.Contains(t, err.Error(), "server.user")

	cfg.Server.Addr = "no-port"
	cfg.Server.User = "dave"
	assert.Error(t, Validate(cfg))

	cfg.Server.Addr = "imap.example.org:993"
	assert.NoError(t, Validate(cfg))

	cfg.Server.CommandTimeout = -time.Second
	assert.Error(t, Validate(cfg))
}

func TestClientOptions_tls(t *testing.T) {
	cfg := Default()
	cfg.Server.Addr = "imap.example.org:993"
	options := cfg.ClientOptions(nil)
	require.NotNil(t, options.TLSConfig)
	assert.Equal(t, "imap.example.org", options.TLSConfig.ServerName)
	assert.False(t, options.TLSConfig.InsecureSkipVerify)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(Log{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", "tag", "T1")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"tag":"T1"`)

	_, err = NewLogger(Log{Level: "loud"}, &buf)
	assert.Error(t, err)
	_, err = NewLogger(Log{Format: "xml"}, &buf)
	assert.Error(t, err)
}
