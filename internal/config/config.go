// Package config загружает конфигурацию zonesync из YAML файла, переменных
// окружения ZONESYNC_* и флагов командной строки.
//
// Приоритет (от высшего к низшему): флаги, окружение, файл, значения по умолчанию.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/iudanet/zonesync/internal/conflict"
	"github.com/iudanet/zonesync/internal/validation"
)

// EnvPrefix префикс переменных окружения
const EnvPrefix = "ZONESYNC"

// Форматы логов
const (
	LogFormatAuto = "auto"
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config конфигурация клиента синхронизации
type Config struct {
	Remote   RemoteConfig   `mapstructure:"remote" yaml:"remote"`
	Zone     ZoneConfig     `mapstructure:"zone" yaml:"zone"`
	State    StateConfig    `mapstructure:"state" yaml:"state"`
	Journal  JournalConfig  `mapstructure:"journal" yaml:"journal"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Events   EventsConfig   `mapstructure:"events" yaml:"events"`
	Conflict ConflictConfig `mapstructure:"conflict" yaml:"conflict"`
	Retry    RetryConfig    `mapstructure:"retry" yaml:"retry"`
	Upload   UploadConfig   `mapstructure:"upload" yaml:"upload"`
}

// RemoteConfig удалённое хранилище записей
type RemoteConfig struct {
	URL       string        `mapstructure:"url" yaml:"url"`
	TokenFile string        `mapstructure:"token_file" yaml:"token_file"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	PageLimit int           `mapstructure:"page_limit" yaml:"page_limit"`
}

// ZoneConfig синхронизируемая зона и подписка на её изменения
type ZoneConfig struct {
	Name           string `mapstructure:"name" yaml:"name"`
	SubscriptionID string `mapstructure:"subscription_id" yaml:"subscription_id"`
}

// StateConfig локальная база (состояние синхронизации и записи)
type StateConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// JournalConfig журнал переходов состояния
type JournalConfig struct {
	Path    string `mapstructure:"path" yaml:"path"`
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
}

// RetryConfig резервный backoff для временных ошибок
type RetryConfig struct {
	BaseDelay   time.Duration `mapstructure:"base_delay" yaml:"base_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay" yaml:"max_delay"`
	MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts"`
}

// UploadConfig выгрузка outbox
type UploadConfig struct {
	// MaxBatch ограничивает размер пакета до ответа хранилища. Ноль: без ограничения.
	MaxBatch int `mapstructure:"max_batch" yaml:"max_batch"`
}

// ConflictConfig разрешение конфликтов записи
type ConflictConfig struct {
	Strategy string `mapstructure:"strategy" yaml:"strategy"`
}

// EventsConfig источники внешних сигналов демона
type EventsConfig struct {
	Push             bool          `mapstructure:"push" yaml:"push"`
	WatchToken       bool          `mapstructure:"watch_token" yaml:"watch_token"`
	ForegroundSignal bool          `mapstructure:"foreground_signal" yaml:"foreground_signal"`
	ThrottleRate     int           `mapstructure:"throttle_rate" yaml:"throttle_rate"`
	ThrottleWindow   time.Duration `mapstructure:"throttle_window" yaml:"throttle_window"`
	Debounce         time.Duration `mapstructure:"debounce" yaml:"debounce"`
	PollInterval     time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// LogConfig настройки логирования
type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
}

// DataDir каталог данных по умолчанию
func DataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "zonesync")
}

// SetDefaults регистрирует значения по умолчанию. Ключ без значения по умолчанию
// не читается из окружения, поэтому здесь перечислены все ключи.
func SetDefaults(v *viper.Viper) {
	dir := DataDir()

	v.SetDefault("remote.url", "http://localhost:8080")
	v.SetDefault("remote.token_file", filepath.Join(dir, "token"))
	v.SetDefault("remote.timeout", 30*time.Second)
	v.SetDefault("remote.page_limit", 0)

	v.SetDefault("zone.name", "records")
	v.SetDefault("zone.subscription_id", "")

	v.SetDefault("state.path", filepath.Join(dir, "state.db"))

	v.SetDefault("journal.path", filepath.Join(dir, "journal.db"))
	v.SetDefault("journal.enabled", true)

	v.SetDefault("retry.base_delay", time.Second)
	v.SetDefault("retry.max_delay", 5*time.Minute)
	v.SetDefault("retry.max_attempts", 0)

	v.SetDefault("upload.max_batch", 0)

	v.SetDefault("conflict.strategy", conflict.StrategyLastModifiedWins)

	v.SetDefault("events.push", true)
	v.SetDefault("events.watch_token", true)
	v.SetDefault("events.foreground_signal", true)
	v.SetDefault("events.throttle_rate", 3)
	v.SetDefault("events.throttle_window", 10*time.Second)
	v.SetDefault("events.debounce", 200*time.Millisecond)
	v.SetDefault("events.poll_interval", 15*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", LogFormatAuto)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
}

// flagKeys соответствие флагов командной строки ключам конфигурации
var flagKeys = map[string]string{
	"remote":    "remote.url",
	"token":     "remote.token_file",
	"zone":      "zone.name",
	"state":     "state.path",
	"journal":   "journal.path",
	"log-level": "log.level",
	"log-file":  "log.file",
	"conflict":  "conflict.strategy",
}

// RegisterFlags добавляет флаги, перекрывающие конфигурацию
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("remote", "", "Remote store URL")
	flags.String("token", "", "Path to the bearer token file")
	flags.String("zone", "", "Zone to synchronize")
	flags.String("state", "", "Path to the local state database")
	flags.String("journal", "", "Path to the state transition journal")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("log-file", "", "Write logs to a rotating file instead of stderr")
	flags.String("conflict", "", "Conflict strategy ("+strings.Join(conflict.Strategies(), ", ")+")")
}

// BindFlags связывает зарегистрированные флаги с ключами конфигурации
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// Load читает конфигурацию. Пустой configFile означает поиск zonesync.yaml
// в текущем каталоге и в DataDir; отсутствие файла не ошибка.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("zonesync")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(DataDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.Zone.SubscriptionID == "" {
		cfg.Zone.SubscriptionID = cfg.Zone.Name + "-changes"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	var errs []error

	if err := validation.ValidateBaseURL(c.Remote.URL); err != nil {
		errs = append(errs, err)
	}
	if c.Remote.Timeout < 0 {
		errs = append(errs, fmt.Errorf("remote.timeout must not be negative"))
	}
	if c.Remote.PageLimit < 0 {
		errs = append(errs, fmt.Errorf("remote.page_limit must not be negative"))
	}
	if err := validation.ValidateZoneName(c.Zone.Name); err != nil {
		errs = append(errs, err)
	}
	if err := validation.ValidateSubscriptionID(c.Zone.SubscriptionID); err != nil {
		errs = append(errs, err)
	}
	if c.State.Path == "" {
		errs = append(errs, fmt.Errorf("state.path cannot be empty"))
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		errs = append(errs, fmt.Errorf("journal.path cannot be empty when the journal is enabled"))
	}
	if c.Retry.BaseDelay <= 0 {
		errs = append(errs, fmt.Errorf("retry.base_delay must be positive"))
	}
	if c.Retry.MaxDelay < c.Retry.BaseDelay {
		errs = append(errs, fmt.Errorf("retry.max_delay must not be less than retry.base_delay"))
	}
	if c.Retry.MaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("retry.max_attempts must not be negative"))
	}
	if c.Upload.MaxBatch < 0 {
		errs = append(errs, fmt.Errorf("upload.max_batch must not be negative"))
	}
	if _, err := conflict.ByName(c.Conflict.Strategy); err != nil {
		errs = append(errs, err)
	}
	if c.Events.ThrottleRate < 0 || c.Events.ThrottleWindow < 0 {
		errs = append(errs, fmt.Errorf("events throttle must not be negative"))
	}
	if c.Events.PollInterval < 0 {
		errs = append(errs, fmt.Errorf("events.poll_interval must not be negative"))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case LogFormatAuto, LogFormatText, LogFormatJSON:
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// SlogLevel разбирает уровень логирования
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", l.Level)
	}
	return level, nil
}
