package cli

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/zonesync/internal/client/api"
	"github.com/iudanet/zonesync/internal/client/iocli"
	"github.com/iudanet/zonesync/internal/client/remote"
	"github.com/iudanet/zonesync/internal/client/remote/memory"
	"github.com/iudanet/zonesync/internal/config"
)

const testZone = "notes"

// testEnv изолированный каталог данных с конфигом и удалённым хранилищем в памяти
type testEnv struct {
	remote     *memory.Store
	dir        string
	configPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	// Не даём Load найти настоящий конфиг пользователя
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg := fmt.Sprintf(`remote:
  url: http://127.0.0.1:1
  token_file: %[1]s/token
zone:
  name: %[2]s
state:
  path: %[1]s/state.db
journal:
  path: %[1]s/journal.db
retry:
  base_delay: 10ms
  max_delay: 50ms
  max_attempts: 3
events:
  push: false
  poll_interval: 0s
log:
  level: debug
  file: %[1]s/zonesync.log
`, filepath.ToSlash(dir), testZone)

	path := filepath.Join(dir, "zonesync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))

	return &testEnv{dir: dir, configPath: path, remote: memory.New()}
}

// run выполняет команду и возвращает её вывод
func (e *testEnv) run(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	return e.runContext(t, context.Background(), input, args...)
}

func (e *testEnv) runContext(t *testing.T, ctx context.Context, input string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c := New(iocli.New(strings.NewReader(input), &out), BuildInfo{Version: "test", BuildDate: "today", GitCommit: "abc123"},
		WithRemote(func(*config.Config, api.TokenProvider, *slog.Logger) remote.Store {
			return e.remote
		}),
	)
	err := c.Execute(ctx, append([]string{"--config", e.configPath}, args...))
	return out.String(), err
}

// mustRun выполняет команду, которая должна завершиться успешно
func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, "", args...)
	require.NoError(t, err, "zonesync %s\n%s", strings.Join(args, " "), out)
	return out
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "version")

	assert.Contains(t, out, "Version:    test")
	assert.Contains(t, out, "Build Date: today")
	assert.Contains(t, out, "Git Commit: abc123")
}

func TestVersion_NoConfigNeeded(t *testing.T) {
	env := newTestEnv(t)
	env.configPath = filepath.Join(env.dir, "missing.yaml")

	out, err := env.run(t, "", "version")

	require.NoError(t, err)
	assert.Contains(t, out, "Version:")
}

func TestInvalidConfig(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "", "--conflict", "coin-flip", "list")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestUnknownCommand(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "", "register")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestLogsGoToConfiguredFile(t *testing.T) {
	env := newTestEnv(t)

	env.mustRun(t, "list")

	data, err := os.ReadFile(filepath.Join(env.dir, "zonesync.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Config loaded")
}
