package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "todos "+version)
}

func TestEnvFallbacks(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgresql://u:p@neon.test/todos")
	t.Setenv("CORS_ORIGINS", "https://a.test,https://b.test")
	t.Setenv("DB_CONN_MAX_LIFETIME", "120")

	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--bind", "127.0.0.1"}))
	origins = nil
	applyEnv(cmd, loaderFromEnv())

	assert.Equal(t, 9090, port)
	assert.Equal(t, "127.0.0.1", bind)
	assert.Equal(t, "postgresql://u:p@neon.test/todos", databaseURL)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, origins)
	assert.Equal(t, 120*time.Second, connMaxLifetime)
	assert.NoError(t, validate())
}

func TestFlagsWinOverEnv(t *testing.T) {
	t.Setenv("PORT", "9090")

	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--port", "7000", "--database-url", "sqlite:///tmp/x.db"}))
	applyEnv(cmd, loaderFromEnv())

	assert.Equal(t, 7000, port)
	assert.Equal(t, "sqlite:///tmp/x.db", databaseURL)
}

func TestValidate(t *testing.T) {
	databaseURL, port, bind = "", 8000, ""
	assert.Error(t, validate())

	databaseURL, port, bind = "sqlite:///tmp/x.db", 70000, ""
	assert.Error(t, validate())

	databaseURL, port, bind = "sqlite:///tmp/x.db", 8000, "not-an-ip"
	assert.Error(t, validate())
}

func TestSchemaCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.db")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"schema", "--database-url", "sqlite://" + path})

	require.NoError(t, cmd.Execute())
	assert.FileExists(t, path)
}
