package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type contextKey string

func (c contextKey) String() string {
	return "langstore/config/" + string(c)
}

const ctxKeyConfiguration = contextKey("configurationKey")

// ToContext adds service configuration to the current supplied context.
func ToContext(ctx context.Context, config any) context.Context {
	return context.WithValue(ctx, ctxKeyConfiguration, config)
}

// FromContext extracts service configuration from the supplied context if any exist.
func FromContext[T any](ctx context.Context) T {
	if cfg, ok := ctx.Value(ctxKeyConfiguration).(T); ok {
		return cfg
	}
	var zero T
	return zero
}

// FromEnv convenience method to process configs.
func FromEnv[T any]() (T, error) {
	return env.ParseAs[T]()
}

// FillEnv convenience method to fill a config object with environment data.
func FillEnv(v any) error {
	return env.Parse(v)
}

// FromFile loads defaults and environment values first, then overrides them with the YAML
// document at path.
func FromFile[T any](path string) (T, error) {
	cfg, err := FromEnv[T]()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

type ConfigurationDefault struct {
	LogLevel          string `envDefault:"info"                      env:"LOG_LEVEL"            yaml:"log_level"`
	LogTimeFormat     string `envDefault:"2006-01-02T15:04:05Z07:00" env:"LOG_TIME_FORMAT"      yaml:"log_time_format"`
	LogColored        bool   `envDefault:"true"                      env:"LOG_COLORED"          yaml:"log_colored"`
	LogShowStackTrace bool   `envDefault:"false"                     env:"LOG_SHOW_STACK_TRACE" yaml:"log_show_stack_trace"`

	ServiceName string `envDefault:"" env:"SERVICE_NAME" yaml:"service_name"`

	// Number of open translation stores kept by a service.
	StoreCacheSizeValue int `envDefault:"256" env:"STORE_CACHE_SIZE"    yaml:"store_cache_size"`
	// Number of stores opened in parallel while preloading.
	PreloadConcurrencyValue int `envDefault:"4" env:"PRELOAD_CONCURRENCY" yaml:"preload_concurrency"`

	EventsEnabledValue bool   `envDefault:"false"                        env:"EVENTS_ENABLED"   yaml:"events_enabled"`
	EventsQueueURL     string `envDefault:"mem://langstore.missing_keys" env:"EVENTS_QUEUE_URL" yaml:"events_queue_url"`
	EventsRetries      int    `envDefault:"3"                            env:"EVENTS_RETRIES"   yaml:"events_retries"`

	WorkerPoolCapacity       int    `envDefault:"100" env:"WORKER_POOL_CAPACITY"        yaml:"worker_pool_capacity"`
	WorkerPoolCount          int    `envDefault:"1"   env:"WORKER_POOL_COUNT"           yaml:"worker_pool_count"`
	WorkerPoolExpiryDuration string `envDefault:"1s"  env:"WORKER_POOL_EXPIRY_DURATION" yaml:"worker_pool_expiry_duration"`
}

type ConfigurationService interface {
	Name() string
}

var _ ConfigurationService = new(ConfigurationDefault)

func (c *ConfigurationDefault) Name() string {
	return c.ServiceName
}

type ConfigurationLogLevel interface {
	LoggingLevel() string
	LoggingTimeFormat() string
	LoggingShowStackTrace() bool
	LoggingColored() bool
	LoggingLevelIsDebug() bool
}

var _ ConfigurationLogLevel = new(ConfigurationDefault)

func (c *ConfigurationDefault) LoggingLevel() string {
	return c.LogLevel
}

func (c *ConfigurationDefault) LoggingTimeFormat() string {
	return c.LogTimeFormat
}

func (c *ConfigurationDefault) LoggingColored() bool {
	return c.LogColored
}

func (c *ConfigurationDefault) LoggingShowStackTrace() bool {
	return c.LogShowStackTrace
}

func (c *ConfigurationDefault) LoggingLevelIsDebug() bool {
	return c.LoggingLevel() == "debug" || c.LoggingLevel() == "trace"
}

const (
	defaultStoreCacheSize     = 256
	defaultPreloadConcurrency = 4
)

type ConfigurationStore interface {
	StoreCacheSize() int
	PreloadConcurrency() int
}

var _ ConfigurationStore = new(ConfigurationDefault)

func (c *ConfigurationDefault) StoreCacheSize() int {
	if c.StoreCacheSizeValue <= 0 {
		return defaultStoreCacheSize
	}
	return c.StoreCacheSizeValue
}

func (c *ConfigurationDefault) PreloadConcurrency() int {
	if c.PreloadConcurrencyValue <= 0 {
		return defaultPreloadConcurrency
	}
	return c.PreloadConcurrencyValue
}

type ConfigurationEvents interface {
	EventsEnabled() bool
	GetEventsQueueURL() string
	GetEventsRetries() int
}

var _ ConfigurationEvents = new(ConfigurationDefault)

func (c *ConfigurationDefault) EventsEnabled() bool {
	return c.EventsEnabledValue
}

func (c *ConfigurationDefault) GetEventsQueueURL() string {
	return c.EventsQueueURL
}

func (c *ConfigurationDefault) GetEventsRetries() int {
	if c.EventsRetries < 0 {
		return 0
	}
	return c.EventsRetries
}

type ConfigurationWorkerPool interface {
	GetCapacity() int
	GetCount() int
	GetExpiryDuration() time.Duration
}

var _ ConfigurationWorkerPool = new(ConfigurationDefault)

func (c *ConfigurationDefault) GetCapacity() int {
	return c.WorkerPoolCapacity
}

func (c *ConfigurationDefault) GetCount() int {
	return c.WorkerPoolCount
}

func (c *ConfigurationDefault) GetExpiryDuration() time.Duration {
	if c.WorkerPoolExpiryDuration != "" {
		duration, err := time.ParseDuration(c.WorkerPoolExpiryDuration)
		if err == nil {
			return duration
		}
	}

	return time.Second
}
