package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConfigLoader 测试配置文件加载
func TestConfigLoader(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "config.yaml")

	configContent := `
log:
  level: "debug"
  format: "json"
  output: "stdout"

knock:
  mode: "connect"
  raw:
    delay: 1500ms
    source_port: 40000
  connect:
    delay: 300ms
    timeout: 1s
    differentiate: true
`
	require.NoError(t, os.WriteFile(configFile, []byte(configContent), 0644))

	cfg, err := NewConfigLoader(configFile, "NEOKNOCK_TEST").LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "connect", cfg.Knock.Mode)
	assert.Equal(t, 1500*time.Millisecond, cfg.Knock.Raw.Delay)
	assert.Equal(t, uint16(40000), cfg.Knock.Raw.SourcePort)
	assert.Equal(t, 300*time.Millisecond, cfg.Knock.Connect.Delay)
	assert.Equal(t, time.Second, cfg.Knock.Connect.Timeout)
	assert.True(t, cfg.Knock.Connect.Differentiate)

	// 文件中未出现的键保持默认值
	assert.Equal(t, 2*time.Second, cfg.Knock.Raw.CheckTimeout)
	assert.True(t, cfg.Knock.Raw.CheckLast)
	assert.False(t, cfg.Knock.Connect.CheckLast)
}

func TestConfigLoader_Defaults(t *testing.T) {
	// 切到空目录，保证找不到 config.yaml
	chdir(t, t.TempDir())

	cfg, err := NewConfigLoader("", "NEOKNOCK_TEST").LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfigLoader_EnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("NEOKNOCK_TEST_KNOCK_MODE", "raw")
	t.Setenv("NEOKNOCK_TEST_KNOCK_CONNECT_TIMEOUT", "750ms")

	cfg, err := NewConfigLoader("", "NEOKNOCK_TEST").LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "raw", cfg.Knock.Mode)
	assert.Equal(t, 750*time.Millisecond, cfg.Knock.Connect.Timeout)
}

func TestConfigLoader_MissingExplicitFile(t *testing.T) {
	_, err := NewConfigLoader(filepath.Join(t.TempDir(), "nope.yaml"), "NEOKNOCK_TEST").LoadConfig()
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad mode", func(c *Config) { c.Knock.Mode = "udp" }},
		{"negative delay", func(c *Config) { c.Knock.Connect.Delay = -time.Second }},
		{"zero check timeout", func(c *Config) { c.Knock.Raw.CheckTimeout = 0 }},
		{"zero connect timeout", func(c *Config) { c.Knock.Connect.Timeout = 0 }},
		{"zero source port", func(c *Config) { c.Knock.Raw.SourcePort = 0 }},
		{"missing section", func(c *Config) { c.Knock.Raw = nil }},
	}

	assert.NoError(t, DefaultConfig().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestEnvLoader(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("NEOKNOCK_ENVTEST_VALUE=from-dotenv\n"), 0600))
	t.Setenv("NEOKNOCK_ENVTEST_VALUE", "")
	os.Unsetenv("NEOKNOCK_ENVTEST_VALUE")

	// 不存在的文件被忽略
	loader := NewEnvLoader(filepath.Join(dir, "missing.env"), envFile)
	require.NoError(t, loader.Load())
	assert.Equal(t, "from-dotenv", os.Getenv("NEOKNOCK_ENVTEST_VALUE"))
}

func TestConfigToYAML(t *testing.T) {
	out, err := DefaultConfig().ToYAML()
	require.NoError(t, err)
	assert.Contains(t, string(out), "mode: auto")
	assert.Contains(t, string(out), "delay: 1s")
	assert.Contains(t, string(out), "source_port: 12345")
}

func TestDefaultConfig_LogsToStderr(t *testing.T) {
	// stdout 只留给每次敲门的结果行
	assert.Equal(t, "stderr", DefaultConfig().Log.Output)

	data, err := os.ReadFile(filepath.Join("..", "..", "configs", "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `output: "stderr"`)
}
