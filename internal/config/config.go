package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type ProviderConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
	DryRun  bool   `yaml:"dry_run"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

type SweepConfig struct {
	Schedule string `yaml:"schedule"` // cron spec, e.g. "*/5 * * * *"
	Enabled  bool   `yaml:"enabled"`
}

type ReportsConfig struct {
	RootDir string `yaml:"root_dir"`
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		DigestTo     string `yaml:"digest_to"`
	} `yaml:"email"`
	Provider ProviderConfig `yaml:"provider"`
	Telegram TelegramConfig `yaml:"telegram"`
	Sweep    SweepConfig    `yaml:"sweep"`
	Reports  ReportsConfig  `yaml:"reports"`
}

func LoadConfig() *Config {
	f, err := os.Open("config/config.yaml")
	if err != nil {
		panic("Failed to open config.yaml: " + err.Error())
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		panic("Failed to parse config.yaml: " + err.Error())
	}

	if cfg.Reports.RootDir == "" {
		cfg.Reports.RootDir = "./files"
	}
	if cfg.Sweep.Schedule == "" {
		cfg.Sweep.Schedule = "*/5 * * * *"
	}
	return &cfg
}
