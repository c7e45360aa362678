// Package config собирает настройки калькулятора: значения по умолчанию,
// необязательный YAML-файл и переменные окружения CALC_*.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// адрес HTTP-сервера
	Addr string `yaml:"addr"`
	// файл базы SQLite для ленты; пусто - лента не сохраняется
	DBPath string `yaml:"db"`
	// ключ подписи токенов
	Secret   string        `yaml:"secret"`
	TokenTTL time.Duration `yaml:"token_ttl"`
	// файл раскладки; пусто - встроенная раскладка
	LayoutPath  string `yaml:"layout"`
	WatchLayout bool   `yaml:"watch_layout"`
}

func Default() Config {
	return Config{
		Addr:     ":8080",
		DBPath:   "my.db",
		Secret:   "super_secret_signature",
		TokenTTL: 10 * time.Minute,
	}
}

// Load читает файл path (если он задан) поверх значений по умолчанию
// и применяет переменные окружения
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("чтение конфигурации: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("разбор конфигурации %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("CALC_ADDR"); ok {
		c.Addr = v
	}
	if v, ok := lookup("CALC_DB"); ok {
		c.DBPath = v
	}
	if v, ok := lookup("CALC_SECRET"); ok {
		c.Secret = v
	}
	if v, ok := lookup("CALC_LAYOUT"); ok {
		c.LayoutPath = v
	}
	if v, ok := lookup("CALC_TOKEN_TTL"); ok {
		ttl, err := cast.ToDurationE(v)
		if err != nil {
			return fmt.Errorf("CALC_TOKEN_TTL: %w", err)
		}
		c.TokenTTL = ttl
	}
	if v, ok := lookup("CALC_WATCH_LAYOUT"); ok {
		watch, err := cast.ToBoolE(v)
		if err != nil {
			return fmt.Errorf("CALC_WATCH_LAYOUT: %w", err)
		}
		c.WatchLayout = watch
	}
	return nil
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("не задан адрес сервера")
	}
	if c.Secret == "" {
		return errors.New("не задан ключ подписи токенов")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("время жизни токена должно быть положительным: %v", c.TokenTTL)
	}
	if c.WatchLayout && c.LayoutPath == "" {
		return errors.New("watch_layout требует файл раскладки")
	}
	return nil
}
