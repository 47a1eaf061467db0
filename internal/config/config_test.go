package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
terminal:
  bridge_url: "http://127.0.0.1:8787"
  terminal_path: "/opt/terminal/terminal64.exe"
  request_timeout_seconds: 15

collector:
  min_login_interval_seconds: 2
  cache_ttl_seconds: 300
  history_window_days: 7
  collect_interval_minutes: 10

accounts:
  - login: 10001
    password: "secret-a"
    server: "Demo-Server"
    fund_code: "FUND_A"
    allocated: 20000
    client_id: "client-1"
    description: "主账户"
  - login: 10002
    password: "secret-b"
    server: "Demo-Server"
    fund_code: "FUND_B"
    allocated: 15000
    client_id: "client-2"

system:
  log_level: "DEBUG"
  log_dir: "./logs"

redis:
  host: "localhost"
  port: 6379
  db: 0
`

// writeConfigFile 写入临时配置文件并返回路径
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, validConfigYAML)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8787", cfg.Terminal.BridgeURL)
	assert.Equal(t, 15*time.Second, cfg.Terminal.RequestTimeout())
	assert.Equal(t, 2*time.Second, cfg.Collector.MinLoginInterval())
	assert.Equal(t, 5*time.Minute, cfg.Collector.CacheTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.Collector.HistoryWindow())
	assert.Equal(t, 10*time.Minute, cfg.Collector.CollectInterval())

	require.Len(t, cfg.Accounts, 2)
	assert.Equal(t, int64(10001), cfg.Accounts[0].Login)
	assert.Equal(t, "secret-a", cfg.Accounts[0].Password)
	assert.Equal(t, "FUND_A", cfg.Accounts[0].FundCode)
	assert.Equal(t, 20000.0, cfg.Accounts[0].Allocated)
	assert.Equal(t, "client-2", cfg.Accounts[1].ClientID)

	assert.Equal(t, "DEBUG", cfg.System.LogLevel)
	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.Equal(t, "fundwatch:", cfg.Redis.KeyPrefix)
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
terminal:
  bridge_url: "http://127.0.0.1:8787"

accounts:
  - login: 10001
    password: "secret"
    server: "Demo-Server"
    fund_code: "FUND_A"
    allocated: 10000

redis:
  host: "localhost"
  port: 6379
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Terminal.RequestTimeoutSeconds)
	assert.Equal(t, 2, cfg.Collector.MinLoginIntervalSeconds)
	assert.Equal(t, 300, cfg.Collector.CacheTTLSeconds)
	assert.Equal(t, 7, cfg.Collector.HistoryWindowDays)
	assert.Equal(t, 10, cfg.Collector.CollectIntervalMinutes)
	assert.Equal(t, "INFO", cfg.System.LogLevel)
	assert.Equal(t, "./logs", cfg.System.LogDir)
	assert.Equal(t, "fundwatch:", cfg.Redis.KeyPrefix)
}

func TestLoadConfig_PasswordFromEnv(t *testing.T) {
	// 环境变量中的账户密码覆盖配置文件
	t.Setenv("FUNDWATCH_ACCOUNT_10001_PASSWORD", "env-secret")

	path := writeConfigFile(t, validConfigYAML)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.Accounts[0].Password)
	assert.Equal(t, "secret-b", cfg.Accounts[1].Password)
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		errPart string
	}{
		{
			name: "缺少网桥地址",
			yaml: `
accounts:
  - login: 10001
    password: "secret"
    server: "Demo-Server"
    fund_code: "FUND_A"
redis:
  host: "localhost"
  port: 6379
`,
			errPart: "网桥地址",
		},
		{
			name: "没有账户",
			yaml: `
terminal:
  bridge_url: "http://127.0.0.1:8787"
redis:
  host: "localhost"
  port: 6379
`,
			errPart: "至少需要配置一个",
		},
		{
			name: "登录号重复",
			yaml: `
terminal:
  bridge_url: "http://127.0.0.1:8787"
accounts:
  - login: 10001
    password: "a"
    server: "Demo-Server"
    fund_code: "FUND_A"
  - login: 10001
    password: "b"
    server: "Demo-Server"
    fund_code: "FUND_B"
redis:
  host: "localhost"
  port: 6379
`,
			errPart: "登录号重复",
		},
		{
			name: "缺少密码",
			yaml: `
terminal:
  bridge_url: "http://127.0.0.1:8787"
accounts:
  - login: 10001
    server: "Demo-Server"
    fund_code: "FUND_A"
redis:
  host: "localhost"
  port: 6379
`,
			errPart: "密码未配置",
		},
		{
			name: "缺少基金代码",
			yaml: `
terminal:
  bridge_url: "http://127.0.0.1:8787"
accounts:
  - login: 10001
    password: "secret"
    server: "Demo-Server"
redis:
  host: "localhost"
  port: 6379
`,
			errPart: "基金代码",
		},
		{
			name: "分配资金为负",
			yaml: `
terminal:
  bridge_url: "http://127.0.0.1:8787"
accounts:
  - login: 10001
    password: "secret"
    server: "Demo-Server"
    fund_code: "FUND_A"
    allocated: -1
redis:
  host: "localhost"
  port: 6379
`,
			errPart: "不能为负数",
		},
		{
			name: "无效的Redis端口",
			yaml: `
terminal:
  bridge_url: "http://127.0.0.1:8787"
accounts:
  - login: 10001
    password: "secret"
    server: "Demo-Server"
    fund_code: "FUND_A"
redis:
  host: "localhost"
  port: 99999
`,
			errPart: "Redis端口",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.yaml)
			_, err := LoadConfig(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()
	assert.Equal(t, "http://127.0.0.1:8787", cfg.Terminal.BridgeURL)
	assert.Equal(t, 300, cfg.Collector.CacheTTLSeconds)
	assert.Equal(t, 6379, cfg.Redis.Port)
}
