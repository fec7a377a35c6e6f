package viper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type section struct {
	Level  string `mapstructure:"level"`
	Depth  int    `mapstructure:"depth"`
	Stdout bool   `mapstructure:"stdout"`
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	for name, content := range map[string]string{
		"conf.yaml": "app:\n  level: debug\n  depth: 7\n",
		"conf.json": `{"app": {"level": "debug", "depth": 7}}`,
	} {
		cfg := New()
		require.NoError(t, cfg.LoadFile(writeFile(t, name, content)), name)
		var s section
		require.NoError(t, cfg.UnmarshalKey("app", &s))
		assert.Equal(t, section{Level: "debug", Depth: 7}, s, name)
		assert.True(t, cfg.IsSet("app.level"))
		assert.Equal(t, "debug", cfg.GetString("app.level"))
	}

	assert.Error(t, New().LoadFile(filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestMissingKey(t *testing.T) {
	cfg := New()
	require.NoError(t, cfg.LoadFile(writeFile(t, "conf.yaml", "other: 1\n")))
	s := section{Level: "keep"}
	require.NoError(t, cfg.UnmarshalKey("app", &s))
	assert.Equal(t, "keep", s.Level)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("TEST_APP_DEPTH", "42")
	t.Setenv("TEST_APP_STDOUT", "true")

	cfg := New(WithEnvPrefix("TEST"), WithDefault("app.level", "info"))
	require.NoError(t, cfg.LoadFile(writeFile(t, "conf.yaml", "app:\n  depth: 7\n")))
	require.NoError(t, cfg.BindEnv("app.stdout"))

	var s section
	require.NoError(t, cfg.UnmarshalKey("app", &s))
	assert.Equal(t, section{Level: "info", Depth: 42, Stdout: true}, s)
}
