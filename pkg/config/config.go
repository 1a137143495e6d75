package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// MaxRetries tope de reintentos por descarga
const MaxRetries = 10

// DefaultCatalogURL índice de materias publicado por el proyecto
const DefaultCatalogURL = "https://api.npoint.io/4c6da8279c965af748ca"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Session  SessionConfig  `mapstructure:"session"`
	Viewport ViewportConfig `mapstructure:"viewport"`
	Log      LogConfig      `mapstructure:"log"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	Name string `mapstructure:"name"`
}

type CatalogConfig struct {
	URL string `mapstructure:"url"`
}

type FetchConfig struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	Retries    int           `mapstructure:"retries"`
	RatePerSec float64       `mapstructure:"rate_per_sec"`
	Burst      int           `mapstructure:"burst"`
}

type CacheConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
}

type SessionConfig struct {
	TTL        time.Duration `mapstructure:"ttl"`
	SweepEvery time.Duration `mapstructure:"sweep_every"`
}

type ViewportConfig struct {
	Breakpoint int `mapstructure:"breakpoint"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
	Debug bool   `mapstructure:"debug"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.name", "Quiz Server")

	v.SetDefault("catalog.url", DefaultCatalogURL)

	v.SetDefault("fetch.timeout", "10s")
	v.SetDefault("fetch.retries", 2)
	v.SetDefault("fetch.rate_per_sec", 5.0)
	v.SetDefault("fetch.burst", 10)

	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)

	v.SetDefault("session.ttl", "2h")
	v.SetDefault("session.sweep_every", "1m")

	v.SetDefault("viewport.breakpoint", 768)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.debug", false)
}

// Load lee config.yaml (opcional) desde path o el directorio actual y aplica las variables QUIZ_*
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("QUIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Nombres heredados, compatibles con despliegues existentes
	v.BindEnv("cache.redis_addr", "QUIZ_CACHE_REDIS_ADDR", "REDIS_ADDR")
	v.BindEnv("cache.redis_password", "QUIZ_CACHE_REDIS_PASSWORD", "REDIS_PASSWORD")
	v.BindEnv("telegram.token", "QUIZ_TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error leyendo configuración: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decodificando configuración: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate verifica los valores que el resto del programa asume correctos
func (c *Config) Validate() error {
	u, err := url.Parse(c.Catalog.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("catalog.url inválida: %q", c.Catalog.URL)
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout debe ser positivo, recibido %s", c.Fetch.Timeout)
	}
	if c.Fetch.Retries < 0 || c.Fetch.Retries > MaxRetries {
		return fmt.Errorf("fetch.retries debe estar entre 0 y %d, recibido %d", MaxRetries, c.Fetch.Retries)
	}
	if c.Viewport.Breakpoint <= 0 {
		return fmt.Errorf("viewport.breakpoint debe ser positivo, recibido %d", c.Viewport.Breakpoint)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl debe ser positivo, recibido %s", c.Session.TTL)
	}
	return nil
}
