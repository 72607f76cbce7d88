package cli

import (
	"bytes"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	giimap "github.com/emersion/go-imap/v2"
	giimapserver "github.com/emersion/go-imap/v2/imapserver"
	giimapmemserver "github.com/emersion/go-imap/v2/imapserver/imapmemserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hussein-aitlahcen/imap/internal/config"
)

const (
	testUser = "user@example.com"
	testPass = "password"
)

type literalReader struct {
	*bytes.Reader
	size int64
}

func (lr *literalReader) Size() int64 {
	return lr.size
}

func startTestServer(t *testing.T) string {
	t.Helper()

	mem := giimapmemserver.New()
	user := giimapmemserver.NewUser(testUser, testPass)
	mem.AddUser(user)
	require.NoError(t, user.Create("INBOX", nil))

	msg := "From: news@example.com\r\nSubject: Hello\r\n\r\nHi there.\r\n"
	lit := &literalReader{Reader: bytes.NewReader([]byte(msg)), size: int64(len(msg))}
	_, err := user.Append("INBOX", lit, &giimap.AppendOptions{Time: time.Now()})
	require.NoError(t, err)

	server := giimapserver.New(&giimapserver.Options{
		NewSession: func(*giimapserver.Conn) (giimapserver.Session, *giimapserver.GreetingData, error) {
			return mem.NewSession(), nil, nil
		},
		Caps:         giimap.CapSet{giimap.CapIMAP4rev1: {}},
		InsecureAuth: true,
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()
	t.Cleanup(func() {
		_ = server.Close()
		_ = ln.Close()
		<-errCh
	})
	return ln.Addr().String()
}

// setupEnv points the commands at addr through the environment.
func setupEnv(t *testing.T, addr, pass string) {
	t.Setenv(config.EnvConfig, "")
	t.Setenv("IMAPCORE_ADDR", addr)
	t.Setenv("IMAPCORE_USER", testUser)
	t.Setenv("IMAPCORE_PASS", pass)
	t.Setenv("IMAPCORE_TLS", "false")
	t.Setenv("IMAPCORE_COMMAND_TIMEOUT", "5s")
}

func runCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestLogin(t *testing.T) {
	setupEnv(t, startTestServer(t), testPass)

	out, err := runCmd(t, "", "login")
	require.NoError(t, err)
	assert.Regexp(t, `(?m)^T1 OK`, out)
}

func TestLogin_wrongPassword(t *testing.T) {
	setupEnv(t, startTestServer(t), "wrong")

	out, err := runCmd(t, "", "login")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "login failed")
	assert.Regexp(t, `(?m)^T1 NO`, out)
}

func TestLogin_missingConfig(t *testing.T) {
	setupEnv(t, "", testPass)

	_, err := runCmd(t, "", "login")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.addr")
}

func TestSend(t *testing.T) {
	setupEnv(t, startTestServer(t), testPass)

	out, err := runCmd(t, "", "send", "EXAMINE INBOX", "NOOP")
	require.NoError(t, err)
	assert.Contains(t, out, "> EXAMINE INBOX\n")
	assert.Contains(t, out, "* 1 EXISTS\n")
	assert.Regexp(t, `(?m)^T2 OK`, out)
	assert.Contains(t, out, "> NOOP\n")
	assert.Regexp(t, `(?m)^T3 OK`, out)
}

func TestSend_parallel(t *testing.T) {
	setupEnv(t, startTestServer(t), testPass)

	out, err := runCmd(t, "", "send", "--parallel", "NOOP", "NOOP", "NOOP")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, "> NOOP\n"))
	for _, tag := range []string{"T2", "T3", "T4"} {
		assert.Regexp(t, `(?m)^`+tag+` OK`, out)
	}
}

func TestSend_invalidCommand(t *testing.T) {
	setupEnv(t, startTestServer(t), testPass)

	_, err := runCmd(t, "", "send", "NOOP\r\nLOGOUT")
	assert.Error(t, err)
}

func TestShell(t *testing.T) {
	setupEnv(t, startTestServer(t), testPass)

	out, err := runCmd(t, "NOOP\n\nEXAMINE INBOX\nLOGOUT\nNOOP\n", "shell")
	require.NoError(t, err)
	assert.Regexp(t, `(?m)^T2 OK`, out)
	assert.Contains(t, out, "* 1 EXISTS\n")
	assert.Regexp(t, `(?m)^T4 OK`, out)
	// Input after LOGOUT is not sent
	assert.NotRegexp(t, `(?m)^T5 `, out)
}

func TestWatch(t *testing.T) {
	setupEnv(t, startTestServer(t), testPass)

	out, err := runCmd(t, "", "watch", "--interval", "10ms", "--count", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "watching INBOX (messages=1, recent=")
	assert.Contains(t, out, "uidnext=2")
}

func TestWatch_invalidInterval(t *testing.T) {
	_, err := runCmd(t, "", "watch", "--interval", "0s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--interval")
}
