package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode          string        `mapstructure:"mode"`
	Port          int           `mapstructure:"port"`
	OperatorToken string        `mapstructure:"operator_token"`
	DBPath        string        `mapstructure:"db_path"`
	GatewayURL    string        `mapstructure:"gateway_url"`
	PlatformURL   string        `mapstructure:"platform_url"`
	PlatformToken string        `mapstructure:"platform_token"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("db_path", "moderation.db")
	v.SetDefault("gateway_url", "ws://localhost:9000/feed")
	v.SetDefault("platform_url", "http://localhost:9000/api")
	v.SetDefault("sweep_interval", "30s")
	v.SetDefault("flush_interval", "15s")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | DB: %s\n", cfg.Mode, cfg.Port, cfg.DBPath)
	return &cfg, nil
}
