// Package config loads server settings from the environment, an optional
// .env file and built-in defaults.
package config

import (
	"os"
	"strings"
	"time"

	"certificate-server/core"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Config struct {
	ListenAddr         string        `json:"listenAddr" validate:"required"`
	LogLevel           string        `json:"logLevel" validate:"oneof=trace debug info warn warning error fatal panic"`
	StorageType        string        `json:"storageType" validate:"oneof=memory filesystem sqlite s3"`
	LocalStoragePath   string        `json:"localStoragePath" validate:"required_if=StorageType filesystem"`
	DataSourceName     string        `json:"dataSourceName" validate:"required_if=StorageType sqlite"`
	S3BucketName       string        `json:"s3BucketName" validate:"required_if=StorageType s3"`
	S3Prefix           string        `json:"s3Prefix"`
	HistoryLimit       int           `json:"historyLimit" validate:"gte=0"`
	SessionIdleTimeout time.Duration `json:"sessionIdleTimeout" validate:"gte=0"`
	AllowedOrigins     []string      `json:"allowedOrigins"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":3002")
	v.SetDefault("log_level", "info")
	v.SetDefault("storage_type", "memory")
	v.SetDefault("local_storage_path", "./data")
	v.SetDefault("data_source_name", "certificates.db")
	v.SetDefault("s3_bucket_name", "")
	v.SetDefault("s3_prefix", "templates")
	v.SetDefault("history_limit", 100)
	v.SetDefault("session_idle_timeout", 30*time.Minute)
	v.SetDefault("allowed_origins", "")
}

// Load reads the configuration. dotEnvPath is loaded first when it exists;
// variables already set in the environment win over the file.
func Load(dotEnvPath string) (*Config, error) {
	if dotEnvPath != "" {
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				return nil, errors.Wrapf(err, "load %s", dotEnvPath)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "stat %s", dotEnvPath)
		}
	}

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	storageType := strings.ToLower(v.GetString("storage_type"))
	if storageType == "" {
		storageType = "memory"
	}

	cfg := &Config{
		ListenAddr:         v.GetString("listen_addr"),
		LogLevel:           strings.ToLower(v.GetString("log_level")),
		StorageType:        storageType,
		LocalStoragePath:   v.GetString("local_storage_path"),
		DataSourceName:     v.GetString("data_source_name"),
		S3BucketName:       v.GetString("s3_bucket_name"),
		S3Prefix:           v.GetString("s3_prefix"),
		HistoryLimit:       v.GetInt("history_limit"),
		SessionIdleTimeout: v.GetDuration("session_idle_timeout"),
		AllowedOrigins:     splitList(v.GetString("allowed_origins")),
	}

	if err := core.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
