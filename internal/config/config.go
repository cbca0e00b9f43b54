// Package config — настройки сервера: значения по умолчанию
// и загрузка из YAML-файла.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"minikv/internal/resp"
	"minikv/internal/server"
	"minikv/internal/storage"
	"minikv/internal/storage/pubsub"
)

// DefaultAddr — адрес по умолчанию (порт Redis).
const DefaultAddr = "127.0.0.1:6379"

// Config — настройки minikv-server.
type Config struct {
	Addr           string   `yaml:"addr"`
	MaxConnections int      `yaml:"max_connections"`
	MaxKeys        int64    `yaml:"max_keys"`
	IdleTimeout    Duration `yaml:"idle_timeout"`
	ChannelBacklog int      `yaml:"channel_backlog"`
	MaxBulkLen     int      `yaml:"max_bulk_len"`
	LogLevel       string   `yaml:"log_level"`
}

// Default возвращает настройки по умолчанию.
func Default() Config {
	return Config{
		Addr:           DefaultAddr,
		MaxConnections: server.DefaultMaxConnections,
		ChannelBacklog: pubsub.DefaultBacklog,
		MaxBulkLen:     resp.DefaultLimits.MaxBulkLen,
		LogLevel:       "info",
	}
}

// Load читает YAML-файл поверх Default. Неизвестные поля — ошибка.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse разбирает YAML поверх Default и проверяет результат.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}
	if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.DisallowUnknownField()); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate проверяет значения.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is empty"))
	}
	if c.MaxConnections <= 0 {
		errs = append(errs, fmt.Errorf("max_connections must be positive, got %d", c.MaxConnections))
	}
	if c.MaxKeys < 0 {
		errs = append(errs, fmt.Errorf("max_keys must not be negative, got %d", c.MaxKeys))
	}
	if c.IdleTimeout < 0 {
		errs = append(errs, fmt.Errorf("idle_timeout must not be negative, got %s", c.IdleTimeout))
	}
	if c.ChannelBacklog <= 0 {
		errs = append(errs, fmt.Errorf("channel_backlog must be positive, got %d", c.ChannelBacklog))
	}
	if c.MaxBulkLen <= 0 {
		errs = append(errs, fmt.Errorf("max_bulk_len must be positive, got %d", c.MaxBulkLen))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level возвращает уровень логирования.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

// StoreOptions — параметры хранилища.
func (c Config) StoreOptions(logger *slog.Logger) storage.Options {
	return storage.Options{
		MaxKeys:        c.MaxKeys,
		ChannelBacklog: c.ChannelBacklog,
		Logger:         logger,
	}
}

// ServerOptions — опции сервера.
func (c Config) ServerOptions(logger *slog.Logger) []server.Option {
	return []server.Option{
		server.WithLogger(logger),
		server.WithMaxConnections(c.MaxConnections),
		server.WithIdleTimeout(time.Duration(c.IdleTimeout)),
		server.WithLimits(resp.Limits{MaxBulkLen: c.MaxBulkLen}),
	}
}

// Duration — time.Duration, которая в YAML пишется как "30s", "5m".
type Duration time.Duration

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}
