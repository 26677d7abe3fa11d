package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// EnvLoader 环境变量加载器
// @author: sun977
// @date: 2026.02.10
// @description: 在 viper 读取环境变量之前，把 .env 文件中的键注入进程环境
type EnvLoader struct {
	envFiles []string // .env文件路径列表
	loaded   bool     // 是否已加载
}

// NewEnvLoader 创建环境变量加载器
func NewEnvLoader(envFiles ...string) *EnvLoader {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	return &EnvLoader{
		envFiles: envFiles,
	}
}

// Load 加载环境变量
// 已存在的进程环境变量不会被 .env 覆盖 (godotenv.Load 语义)
func (e *EnvLoader) Load() error {
	if e.loaded {
		return nil
	}

	for _, envFile := range e.envFiles {
		if err := e.loadEnvFile(envFile); err != nil {
			// .env文件不存在不算错误
			if !os.IsNotExist(err) {
				return fmt.Errorf("failed to load env file %s: %w", envFile, err)
			}
		}
	}

	e.loaded = true
	return nil
}

// loadEnvFile 加载单个.env文件
func (e *EnvLoader) loadEnvFile(envFile string) error {
	if _, err := os.Stat(envFile); err != nil {
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	return nil
}

// LoadConfig 便捷入口: 先加载 .env，再加载配置文件和环境变量
func LoadConfig(configFile string, envFiles ...string) (*Config, error) {
	if err := NewEnvLoader(envFiles...).Load(); err != nil {
		return nil, err
	}
	return NewConfigLoader(configFile, "NEOKNOCK").LoadConfig()
}
