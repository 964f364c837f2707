// Управление конфигурацией приложения из переменных окружения.
// Содержит структуру Config для хранения параметров и функцию ReadConfig для их загрузки из переменных окружения.
//
// Основные возможности:
//   - Загрузка конфигурации из переменных окружения с использованием тегов struct.
//   - Маскировка секретных значений в логах.
//   - Выбор хранилища изображений и базы данных.
//   - Значения по умолчанию и ограничения для интервалов автосохранения и сессий.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"reflect"
	"strings"
	"time"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageS3    = "s3"
)

type Config struct {
	AWSRegion     string `env:"AWS_REGION"`
	AWSAccessKey  string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey  string `env:"AWS_SECRET_ACCESS_KEY"`
	AWSEndpoint   string `env:"AWS_S3_ENDPOINT_URL"`
	AWSBucketName string `env:"AWS_S3_BUCKET_NAME"`

	StorageBackend   string `env:"STORAGE_BACKEND"`
	LocalStoragePath string `env:"LOCAL_STORAGE_PATH"`

	DatabaseDSN string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH"`

	WebURLRaw string `env:"WEB_URL"`
	WebURL    *url.URL

	AutosaveWindowSec int    `env:"AUTOSAVE_WINDOW"`
	SessionIdleMin    int    `env:"SESSION_IDLE_TIMEOUT"`
	AssetsCleanupCron string `env:"ASSETS_CLEANUP_SCHEDULE"`
	AssetsMinAgeHours int    `env:"ASSETS_MIN_AGE"`
	RenderCacheSize   int    `env:"RENDER_CACHE_SIZE"`
	SystemClipboard   bool   `env:"SYSTEM_CLIPBOARD"`
	MetricsDisabled   bool   `env:"METRICS_DISABLED"`
	FrontFilesPath    string `env:"FRONT_PATH"`
}

// AutosaveWindow пауза перед автосохранением черновика.
func (c *Config) AutosaveWindow() time.Duration {
	return time.Duration(c.AutosaveWindowSec) * time.Second
}

func (c *Config) SessionIdleTimeout() time.Duration {
	return time.Duration(c.SessionIdleMin) * time.Minute
}

func (c *Config) AssetsMinAge() time.Duration {
	return time.Duration(c.AssetsMinAgeHours) * time.Hour
}

// ReadConfig загружает конфигурацию из переменных окружения. При некорректных значениях приложение завершает работу.
func ReadConfig() *Config {
	config, err := parseConfig()
	if err != nil {
		slog.Error("Read config", "err", err)
		os.Exit(1)
	}
	return config
}

func parseConfig() (*Config, error) {
	config := &Config{}

	if err := envConfig("env", config); err != nil {
		return nil, err
	}

	if config.WebURLRaw == "" {
		config.WebURLRaw = "http://localhost:8080"
	}
	var err error
	config.WebURL, err = url.Parse(config.WebURLRaw)
	if err != nil {
		return nil, fmt.Errorf("WEB_URL incorrect: %w", err)
	}

	switch config.StorageBackend {
	case "":
		config.StorageBackend = StorageLocal
	case StorageLocal, StorageMinio, StorageS3:
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", config.StorageBackend)
	}
	if config.StorageBackend == StorageMinio && config.AWSEndpoint == "" {
		return nil, errors.New("minio storage requires AWS_S3_ENDPOINT_URL")
	}
	if config.StorageBackend != StorageLocal && config.AWSBucketName == "" {
		return nil, errors.New("object storage requires AWS_S3_BUCKET_NAME")
	}
	if config.LocalStoragePath == "" {
		config.LocalStoragePath = "uploads"
	}

	if config.DatabaseDSN == "" && config.SQLitePath == "" {
		config.SQLitePath = "pencraft.db"
	}

	if config.AutosaveWindowSec <= 0 || config.AutosaveWindowSec > 60 {
		config.AutosaveWindowSec = 5
	}
	if config.SessionIdleMin <= 0 {
		config.SessionIdleMin = 30
	}
	if config.AssetsCleanupCron == "" {
		config.AssetsCleanupCron = "0 3 * * *"
	}
	if config.AssetsMinAgeHours <= 0 {
		config.AssetsMinAgeHours = 24
	}
	if config.RenderCacheSize <= 0 {
		config.RenderCacheSize = 256
	}

	return config, nil
}

// Присваивает полям в переданной структуре значения переменных. Название переменной для каждого поля лежит в теге этого поля.
// Значение, которое не приводится к типу поля, возвращается ошибкой.
func envConfig(key string, s interface{}) error {
	v := reflect.ValueOf(s).Elem()
	typeParam := v.Type()
	for i := 0; i < v.NumField(); i++ {
		fName := typeParam.Field(i).Name
		fEnvTag := typeParam.Field(i).Tag.Get(key)
		if fEnvTag == "" {
			continue
		}

		value, ok := lookupEnv(fEnvTag)
		if !ok {
			continue
		}

		slog.Info("Set config value",
			slog.String("key", typeParam.Name()+"."+fName),
			slog.String("value", maskValue(fName, value)),
			slog.String("source", "ENVIRONMENT"),
		)

		switch v.Field(i).Interface().(type) {
		case string:
			v.Field(i).SetString(value)
		case int:
			n, err := parseIntEnv(fEnvTag, value)
			if err != nil {
				return err
			}
			v.Field(i).SetInt(int64(n))
		case bool:
			b, err := parseBoolEnv(fEnvTag, value)
			if err != nil {
				return err
			}
			v.Field(i).SetBool(b)
		}
	}
	return nil
}

// maskValue скрывает секреты в логах, оставляя первый и последний символ.
func maskValue(field, value string) string {
	name := strings.ToLower(field)
	if !strings.Contains(name, "pass") && !strings.Contains(name, "secret") && !strings.Contains(name, "token") && !strings.Contains(name, "dsn") {
		return value
	}
	runes := []rune(value)
	if len(runes) < 3 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[0]) + strings.Repeat("*", len(runes)-2) + string(runes[len(runes)-1])
}
