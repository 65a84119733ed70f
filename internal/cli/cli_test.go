package cli

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/auth"
)

const testSecret = "cli-test-secret-0123456789"

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(t.TempDir(), "expenses.db"))
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("JWT_ISSUER", "expenses")
	t.Setenv("LOG_LEVEL", "error")
}

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand(strings.NewReader(stdin), &stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestUsersAddAndToken(t *testing.T) {
	setupEnv(t)

	out, _, err := run(t, "", "users", "add", "--username", "alice", "--password", "correct horse")
	require.NoError(t, err)
	require.Contains(t, out, "User alice created successfully with ID ")
	userID, err := uuid.Parse(strings.TrimSpace(out[strings.LastIndex(out, " ")+1:]))
	require.NoError(t, err)

	out, _, err = run(t, "", "token", "--username", "alice", "--password", "correct horse")
	require.NoError(t, err)
	got, err := auth.NewTokens(testSecret, "expenses", time.Hour).Parse(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	_, _, err = run(t, "", "token", "--username", "alice", "--password", "wrong horse")
	assert.EqualError(t, err, "invalid username or password")
	_, _, err = run(t, "", "token", "--username", "nobody", "--password", "correct horse")
	assert.EqualError(t, err, "invalid username or password")
}

func TestUsersAddDuplicateAndInvalid(t *testing.T) {
	setupEnv(t)

	_, _, err := run(t, "", "users", "add", "--username", "bob", "--password", "long enough")
	require.NoError(t, err)
	_, _, err = run(t, "", "users", "add", "--username", "bob", "--password", "long enough")
	assert.ErrorContains(t, err, "failed to create user")

	_, _, err = run(t, "", "users", "add", "--username", "carol", "--password", "short")
	assert.ErrorContains(t, err, "failed to create user")
}

func TestPasswordPrompt(t *testing.T) {
	setupEnv(t)

	_, stderr, err := run(t, "prompted secret\n", "users", "add", "--username", "dave")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Password: ")

	out, _, err := run(t, "prompted secret\n", "token", "--username", "dave")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))

	_, _, err = run(t, "", "token", "--username", "dave")
	assert.ErrorContains(t, err, "failed to read password")

	_, _, err = run(t, "   \n", "token", "--username", "dave")
	assert.EqualError(t, err, "password cannot be empty")
}

func TestMissingUsername(t *testing.T) {
	setupEnv(t)

	_, _, err := run(t, "", "users", "add", "--password", "long enough")
	assert.ErrorContains(t, err, "username")
}

func TestMigrate(t *testing.T) {
	setupEnv(t)

	out, _, err := run(t, "", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version ")
	assert.Contains(t, out, "driver sqlite")
	assert.NotContains(t, out, "dirty")

	status, _, err := run(t, "", "migrate", "--status")
	require.NoError(t, err)
	assert.Equal(t, out, status)
}

func TestInvalidConfiguration(t *testing.T) {
	setupEnv(t)
	t.Setenv("JWT_SECRET", "short")

	_, _, err := run(t, "", "migrate")
	assert.ErrorContains(t, err, "JWT_SECRET")

	_, _, err = run(t, "", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "migrate")
	assert.ErrorContains(t, err, "read config file")
}

func TestVersionSkipsConfiguration(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	out, _, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "expenses version "+Version)
	assert.Contains(t, out, "Go version:")
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestServeShutsDownOnCancel(t *testing.T) {
	setupEnv(t)
	port := freePort(t)
	t.Setenv("PORT", strconv.Itoa(port))
	t.Setenv("SHUTDOWN_TIMEOUT", "2s")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		var stdout, stderr bytes.Buffer
		cmd := NewRootCommand(strings.NewReader(""), &stdout, &stderr)
		cmd.SetArgs([]string{"serve"})
		done <- cmd.ExecuteContext(ctx)
	}()

	url := "http://127.0.0.1:" + strconv.Itoa(port) + "/healthz"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}
