package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// ConfigLoader 配置加载器
// 优先级: 环境变量 > 配置文件 > 默认值 (命令行参数由 cmd 层在此之上覆盖)
type ConfigLoader struct {
	configFile string
	envPrefix  string
	viper      *viper.Viper
}

// NewConfigLoader 创建配置加载器
// configFile 为空时在 ./configs 和 . 下查找 config.yaml，找不到不算错误
func NewConfigLoader(configFile, envPrefix string) *ConfigLoader {
	if envPrefix == "" {
		envPrefix = "NEOKNOCK"
	}

	return &ConfigLoader{
		configFile: configFile,
		envPrefix:  envPrefix,
		viper:      viper.New(),
	}
}

// LoadConfig 加载配置
func (cl *ConfigLoader) LoadConfig() (*Config, error) {
	cl.viper.SetConfigType("yaml")

	// 环境变量: NEOKNOCK_KNOCK_RAW_DELAY -> knock.raw.delay
	cl.viper.SetEnvPrefix(cl.envPrefix)
	cl.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cl.viper.AutomaticEnv()

	cl.setDefaults()

	if err := cl.loadConfigFile(); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	config := DefaultConfig()
	if err := cl.viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// loadConfigFile 加载配置文件
func (cl *ConfigLoader) loadConfigFile() error {
	if cl.configFile == "" {
		cl.configFile = os.Getenv(cl.envPrefix + "_CONFIG_PATH")
	}

	if cl.configFile != "" {
		// 显式指定的配置文件必须存在
		cl.viper.SetConfigFile(cl.configFile)
		return cl.viper.ReadInConfig()
	}

	cl.viper.AddConfigPath("./configs")
	cl.viper.AddConfigPath(".")
	cl.viper.SetConfigName("config")

	if err := cl.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

// setDefaults 设置默认值 (与 DefaultConfig 保持一致，保证环境变量能覆盖未出现在文件中的键)
func (cl *ConfigLoader) setDefaults() {
	d := DefaultConfig()

	// 日志默认值
	cl.viper.SetDefault("log.level", d.Log.Level)
	cl.viper.SetDefault("log.format", d.Log.Format)
	cl.viper.SetDefault("log.output", d.Log.Output)
	cl.viper.SetDefault("log.file_path", d.Log.FilePath)
	cl.viper.SetDefault("log.max_size", d.Log.MaxSize)
	cl.viper.SetDefault("log.max_backups", d.Log.MaxBackups)
	cl.viper.SetDefault("log.max_age", d.Log.MaxAge)
	cl.viper.SetDefault("log.compress", d.Log.Compress)
	cl.viper.SetDefault("log.caller", d.Log.Caller)

	// 敲门默认值
	cl.viper.SetDefault("knock.mode", d.Knock.Mode)
	cl.viper.SetDefault("knock.raw.delay", d.Knock.Raw.Delay)
	cl.viper.SetDefault("knock.raw.check_timeout", d.Knock.Raw.CheckTimeout)
	cl.viper.SetDefault("knock.raw.source_port", d.Knock.Raw.SourcePort)
	cl.viper.SetDefault("knock.raw.check_last", d.Knock.Raw.CheckLast)
	cl.viper.SetDefault("knock.raw.reset_half_open", d.Knock.Raw.ResetHalfOpen)
	cl.viper.SetDefault("knock.connect.delay", d.Knock.Connect.Delay)
	cl.viper.SetDefault("knock.connect.timeout", d.Knock.Connect.Timeout)
	cl.viper.SetDefault("knock.connect.check_last", d.Knock.Connect.CheckLast)
	cl.viper.SetDefault("knock.connect.differentiate", d.Knock.Connect.Differentiate)
	cl.viper.SetDefault("knock.connect.proxy", d.Knock.Connect.Proxy)
}

// GetConfigPath 获取实际使用的配置文件路径 (未使用配置文件时为空)
func (cl *ConfigLoader) GetConfigPath() string {
	return cl.viper.ConfigFileUsed()
}

