package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config 应用配置结构
type Config struct {
	Terminal  TerminalConfig  `mapstructure:"terminal"`
	Collector CollectorConfig `mapstructure:"collector"`
	Accounts  []AccountConfig `mapstructure:"accounts"`
	System    SystemConfig    `mapstructure:"system"`
	Redis     RedisConfig     `mapstructure:"redis"`
}

// TerminalConfig 交易终端配置
type TerminalConfig struct {
	BridgeURL             string `mapstructure:"bridge_url"`              // 终端网桥服务地址
	TerminalPath          string `mapstructure:"terminal_path"`           // 终端可执行文件路径
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds"` // 单次请求超时
}

// CollectorConfig 采集器配置
type CollectorConfig struct {
	MinLoginIntervalSeconds int `mapstructure:"min_login_interval_seconds"` // 两次登录之间的最小间隔
	CacheTTLSeconds         int `mapstructure:"cache_ttl_seconds"`          // 批次结果缓存有效期
	HistoryWindowDays       int `mapstructure:"history_window_days"`        // 历史成交回溯窗口
	CollectIntervalMinutes  int `mapstructure:"collect_interval_minutes"`   // 周期采集间隔
}

// AccountConfig 单个逻辑交易账户配置
type AccountConfig struct {
	Login       int64   `mapstructure:"login"`       // 终端登录账号
	Password    string  `mapstructure:"password"`    // 从配置文件或环境变量中读取
	Server      string  `mapstructure:"server"`      // 终端服务器标识
	FundCode    string  `mapstructure:"fund_code"`   // 基金分类代码
	Allocated   float64 `mapstructure:"allocated"`   // 分配资金额度
	ClientID    string  `mapstructure:"client_id"`   // 所属客户标识
	Description string  `mapstructure:"description"` // 账户描述
}

// SystemConfig 系统配置
type SystemConfig struct {
	LogLevel string `mapstructure:"log_level"`
	LogDir   string `mapstructure:"log_dir"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// MinLoginInterval 登录最小间隔
func (c CollectorConfig) MinLoginInterval() time.Duration {
	return time.Duration(c.MinLoginIntervalSeconds) * time.Second
}

// CacheTTL 缓存有效期
func (c CollectorConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// HistoryWindow 历史成交回溯窗口
func (c CollectorConfig) HistoryWindow() time.Duration {
	return time.Duration(c.HistoryWindowDays) * 24 * time.Hour
}

// CollectInterval 周期采集间隔
func (c CollectorConfig) CollectInterval() time.Duration {
	return time.Duration(c.CollectIntervalMinutes) * time.Minute
}

// RequestTimeout 终端请求超时
func (c TerminalConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// LoadConfig 从文件加载配置
func LoadConfig(filePath string) (*Config, error) {
	// 使用Viper读取配置
	v := viper.New()
	v.SetConfigFile(filePath)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 绑定环境变量（可选，如果需要从环境变量覆盖配置）
	v.AutomaticEnv()
	v.SetEnvPrefix("FUNDWATCH") // 环境变量前缀，如FUNDWATCH_REDIS_PASSWORD

	// 特定环境变量映射，如果存在这些环境变量则优先使用
	if redisPassword := os.Getenv("FUNDWATCH_REDIS_PASSWORD"); redisPassword != "" {
		v.Set("redis.password", redisPassword)
	}
	if bridgeURL := os.Getenv("FUNDWATCH_TERMINAL_BRIDGE_URL"); bridgeURL != "" {
		v.Set("terminal.bridge_url", bridgeURL)
	}

	// 解析配置到结构体
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// 填充默认值
	applyDefaults(&config)

	// 账户密码不写入配置文件，优先从环境变量读取
	// 形如 FUNDWATCH_ACCOUNT_10001_PASSWORD
	for i := range config.Accounts {
		envKey := fmt.Sprintf("FUNDWATCH_ACCOUNT_%d_PASSWORD", config.Accounts[i].Login)
		if password := os.Getenv(envKey); password != "" {
			config.Accounts[i].Password = password
		}
	}

	// 验证配置有效性
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	return &config, nil
}

// LoadConfigFromYAML 保留原有的yaml加载函数以备不时之需
func LoadConfigFromYAML(filePath string) (*Config, error) {
	yamlFile, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(yamlFile, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	applyDefaults(&config)

	// 验证配置有效性
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	return &config, nil
}

// applyDefaults 填充未配置项的默认值
func applyDefaults(config *Config) {
	if config.Terminal.RequestTimeoutSeconds <= 0 {
		config.Terminal.RequestTimeoutSeconds = 10
	}
	if config.Collector.MinLoginIntervalSeconds <= 0 {
		config.Collector.MinLoginIntervalSeconds = 2
	}
	if config.Collector.CacheTTLSeconds <= 0 {
		config.Collector.CacheTTLSeconds = 300
	}
	if config.Collector.HistoryWindowDays <= 0 {
		config.Collector.HistoryWindowDays = 7
	}
	if config.Collector.CollectIntervalMinutes <= 0 {
		config.Collector.CollectIntervalMinutes = 10
	}
	if config.System.LogLevel == "" {
		config.System.LogLevel = "INFO"
	}
	if config.System.LogDir == "" {
		config.System.LogDir = "./logs"
	}
	if config.Redis.KeyPrefix == "" {
		config.Redis.KeyPrefix = "fundwatch:"
	}
}

// validateConfig 验证配置有效性
// 账户配置的错误在加载时直接拒绝，不会进入采集周期
func validateConfig(config *Config) error {
	if config.Terminal.BridgeURL == "" {
		return fmt.Errorf("终端网桥地址不能为空")
	}

	if len(config.Accounts) == 0 {
		return fmt.Errorf("至少需要配置一个交易账户")
	}

	seen := make(map[int64]bool, len(config.Accounts))
	for _, account := range config.Accounts {
		if account.Login <= 0 {
			return fmt.Errorf("账户登录号必须大于0: %d", account.Login)
		}
		if seen[account.Login] {
			return fmt.Errorf("账户登录号重复: %d", account.Login)
		}
		seen[account.Login] = true

		if account.Password == "" {
			return fmt.Errorf("账户 %d 的密码未配置（配置文件或环境变量 FUNDWATCH_ACCOUNT_%d_PASSWORD）", account.Login, account.Login)
		}
		if account.Server == "" {
			return fmt.Errorf("账户 %d 的服务器标识不能为空", account.Login)
		}
		if account.FundCode == "" {
			return fmt.Errorf("账户 %d 的基金代码不能为空", account.Login)
		}
		if account.Allocated < 0 {
			return fmt.Errorf("账户 %d 的分配资金不能为负数", account.Login)
		}
	}

	// 验证Redis配置
	if config.Redis.Host == "" {
		return fmt.Errorf("Redis主机不能为空")
	}

	if config.Redis.Port <= 0 || config.Redis.Port > 65535 {
		return fmt.Errorf("无效的Redis端口")
	}

	return nil
}

// GetDefaultConfig 获取默认配置（用于生成示例配置）
func GetDefaultConfig() *Config {
	return &Config{
		Terminal: TerminalConfig{
			BridgeURL:             "http://127.0.0.1:8787",
			RequestTimeoutSeconds: 10,
		},
		Collector: CollectorConfig{
			MinLoginIntervalSeconds: 2,
			CacheTTLSeconds:         300,
			HistoryWindowDays:       7,
			CollectIntervalMinutes:  10,
		},
		System: SystemConfig{
			LogLevel: "INFO",
			LogDir:   "./logs",
		},
		Redis: RedisConfig{
			Host:      "localhost",
			Port:      6379,
			Password:  "",
			DB:        0,
			KeyPrefix: "fundwatch:",
		},
	}
}
