package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config is the top-level configuration structure.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Demo     DemoConfig     `mapstructure:"demo"`
	Bridge   BridgeConfig   `mapstructure:"bridge"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// LoggingConfig holds settings for the rotating file logger.
type LoggingConfig struct {
	Directory  string `mapstructure:"directory"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// DemoConfig tunes the continuous-mode circuit runner.
type DemoConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// BridgeConfig holds IBM Quantum cloud endpoints and credentials.
type BridgeConfig struct {
	APIKey                string `mapstructure:"api_key"`
	IAMTokenURL           string `mapstructure:"iam_token_url"`
	QuantumAPIURL         string `mapstructure:"quantum_api_url"`
	ResourceControllerURL string `mapstructure:"resource_controller_url"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5080")

	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "qubitlab")
	v.SetDefault("database.password", "qubitlab")
	v.SetDefault("database.dbname", "qubitlab")

	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true)

	v.SetDefault("demo.interval", 30*time.Second)

	v.SetDefault("bridge.iam_token_url", "https://iam.cloud.ibm.com/identity/token")
	v.SetDefault("bridge.quantum_api_url", "https://quantum.cloud.ibm.com/api/v1")
	v.SetDefault("bridge.resource_controller_url", "https://resource-controller.cloud.ibm.com/v2/resource_instances")
}

// Load reads configuration from file, environment and defaults. The returned
// struct is updated in place when the config file changes on disk.
func Load(projectRoot string, log *zap.Logger) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(filepath.Join(projectRoot, "config"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("QUBITLAB") // e.g. QUBITLAB_SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Missing file is fine; defaults and env vars carry the config.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
		if err := v.Unmarshal(cfg); err != nil {
			log.Error("Error reloading configuration", zap.Error(err))
		}
	})

	log.Info("Configuration loaded successfully")
	return cfg, nil
}
