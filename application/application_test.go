package application

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/byteconv-go/pkg/byteconv"
)

const testConfig = `
byteconv:
  usePropertyNames: true
  maxDepth: 16
logging:
  stream:
    level: debug
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func quietLogs(t *testing.T) {
	t.Setenv("BYTECONV_LOG_ENABLE", "false")
}

func TestRunWithFlag(t *testing.T) {
	quietLogs(t)
	path := writeConfig(t, testConfig)

	app := New("test")
	require.NoError(t, app.run([]string{"--config", path, "--unknown=1"}))
	assert.Equal(t, "16", app.Config().GetString("byteconv.maxDepth"))
	assert.NotNil(t, app.Logger("stream"))
	assert.NotNil(t, app.Logger("missing"))

	// 配置中的选项可以直接用于编解码。
	data, err := byteconv.Serialize(map[string]int32{"a": 1}, app.CodecOptions()...)
	require.NoError(t, err)
	_, err = byteconv.Deserialize[map[string]int32](data)
	assert.Error(t, err)
	got, err := byteconv.Deserialize[map[string]int32](data, app.CodecOptions()...)
	require.NoError(t, err)
	assert.Equal(t, map[string]int32{"a": 1}, got)
}

func TestConfigPathPriority(t *testing.T) {
	quietLogs(t)
	envPath := writeConfig(t, "byteconv:\n  maxDepth: 8\n")
	flagPath := writeConfig(t, "byteconv:\n  maxDepth: 9\n")
	t.Setenv(envConfigPath, envPath)

	app := New("test")
	require.NoError(t, app.run(nil))
	assert.Equal(t, "8", app.Config().GetString("byteconv.maxDepth"))

	app = New("test")
	require.NoError(t, app.run([]string{"--config=" + flagPath}))
	assert.Equal(t, "9", app.Config().GetString("byteconv.maxDepth"))
}

func TestEnvOverridesFile(t *testing.T) {
	quietLogs(t)
	t.Setenv("BYTECONV_MAXDEPTH", "3")
	app := New("test")
	require.NoError(t, app.run([]string{"--config", writeConfig(t, testConfig)}))

	// 深度 3 不足以容纳嵌套四层的切片。
	_, err := byteconv.Serialize([][][][]int32{{{{1}}}}, app.CodecOptions()...)
	assert.Error(t, err)
}

func TestRunErrors(t *testing.T) {
	quietLogs(t)
	// 缺省路径不存在时使用空配置。
	t.Chdir(t.TempDir())
	require.NoError(t, New("test").run(nil))

	assert.Error(t, New("test").run([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}))
	assert.Error(t, New("test").run([]string{"--config"}))
	assert.Error(t, New("test").run([]string{"--config", writeConfig(t, "byteconv:\n  indexWidth: int128\n")}))

	t.Setenv("BYTECONV_LOG_ENABLE", "true")
	t.Setenv("BYTECONV_LOG_STDOUT", "false")
	t.Setenv("BYTECONV_LOG_LEVEL", "loud")
	assert.Error(t, New("test").run(nil))
}
