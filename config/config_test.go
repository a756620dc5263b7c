package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ConfigSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

func (s *ConfigSuite) TestContextHelpersAndKeyString() {
	ctx := context.Background()
	cfg := ConfigurationDefault{ServiceName: "svc"}

	s.Equal("langstore/config/configurationKey", ctxKeyConfiguration.String())

	ctx = ToContext(ctx, cfg)
	fromCtx := FromContext[ConfigurationDefault](ctx)
	s.Equal("svc", fromCtx.ServiceName)

	missing := FromContext[*ConfigurationDefault](context.Background())
	s.Nil(missing)
}

func (s *ConfigSuite) TestFromEnvAndFillEnv() {
	type envCfg struct {
		Value string `env:"LANGSTORE_TEST_VALUE"`
	}

	s.T().Setenv("LANGSTORE_TEST_VALUE", "abc")

	fromEnv, err := FromEnv[envCfg]()
	s.Require().NoError(err)
	s.Equal("abc", fromEnv.Value)

	var target envCfg
	s.Require().NoError(FillEnv(&target))
	s.Equal("abc", target.Value)
}

func (s *ConfigSuite) TestDefaults() {
	cfg, err := FromEnv[ConfigurationDefault]()
	s.Require().NoError(err)

	s.Equal("info", cfg.LoggingLevel())
	s.True(cfg.LoggingColored())
	s.False(cfg.LoggingLevelIsDebug())
	s.Equal(256, cfg.StoreCacheSize())
	s.Equal(4, cfg.PreloadConcurrency())
	s.False(cfg.EventsEnabled())
	s.Equal("mem://langstore.missing_keys", cfg.GetEventsQueueURL())
	s.Equal(3, cfg.GetEventsRetries())
	s.Equal(100, cfg.GetCapacity())
	s.Equal(1, cfg.GetCount())
	s.Equal(time.Second, cfg.GetExpiryDuration())
}

func (s *ConfigSuite) TestWorkerPoolExpiryDuration() {
	testCases := []struct {
		name     string
		value    string
		expected time.Duration
	}{
		{name: "parsed", value: "1500ms", expected: 1500 * time.Millisecond},
		{name: "invalid falls back", value: "invalid", expected: time.Second},
		{name: "empty falls back", value: "", expected: time.Second},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			cfg := &ConfigurationDefault{WorkerPoolExpiryDuration: tc.value}
			s.Equal(tc.expected, cfg.GetExpiryDuration())
		})
	}
}

func (s *ConfigSuite) TestEnvOverrides() {
	s.T().Setenv("LOG_LEVEL", "debug")
	s.T().Setenv("STORE_CACHE_SIZE", "8")
	s.T().Setenv("EVENTS_ENABLED", "true")

	cfg, err := FromEnv[ConfigurationDefault]()
	s.Require().NoError(err)

	s.True(cfg.LoggingLevelIsDebug())
	s.Equal(8, cfg.StoreCacheSize())
	s.True(cfg.EventsEnabled())
}

func (s *ConfigSuite) TestNonPositiveSizesFallBack() {
	cfg := &ConfigurationDefault{StoreCacheSizeValue: -1, EventsRetries: -2}
	s.Equal(defaultStoreCacheSize, cfg.StoreCacheSize())
	s.Equal(defaultPreloadConcurrency, cfg.PreloadConcurrency())
	s.Equal(0, cfg.GetEventsRetries())
}

func (s *ConfigSuite) TestFromFile() {
	s.T().Setenv("SERVICE_NAME", "from-env")
	s.T().Setenv("LOG_LEVEL", "warn")

	path := filepath.Join(s.T().TempDir(), "langstore.yaml")
	s.Require().NoError(os.WriteFile(path, []byte("service_name: from-file\npreload_concurrency: 2\n"), 0o600))

	cfg, err := FromFile[ConfigurationDefault](path)
	s.Require().NoError(err)

	s.Equal("from-file", cfg.Name())
	s.Equal("warn", cfg.LoggingLevel())
	s.Equal(2, cfg.PreloadConcurrency())
	s.Equal(256, cfg.StoreCacheSize())

	_, err = FromFile[ConfigurationDefault](filepath.Join(s.T().TempDir(), "missing.yaml"))
	s.Require().Error(err)

	s.Require().NoError(os.WriteFile(path, []byte("service_name: [unterminated"), 0o600))
	_, err = FromFile[ConfigurationDefault](path)
	s.Require().Error(err)
}
