package langstore

import (
	"context"

	"github.com/pitabwire/langstore/config"
)

// WithConfig Option that helps to specify or override the configuration object of our service.
func WithConfig(cfg any) Option {
	return func(ctx context.Context, s *Service) {
		s.configuration = cfg

		serviceCfg, ok := cfg.(config.ConfigurationService)
		if ok && serviceCfg.Name() != "" {
			WithName(serviceCfg.Name())(ctx, s)
		}

		WithLogger()(ctx, s)

		if storeCfg, sok := cfg.(config.ConfigurationStore); sok {
			WithStoreCacheSize(storeCfg.StoreCacheSize())(ctx, s)
		}

		if eventsCfg, eok := cfg.(config.ConfigurationEvents); eok && eventsCfg.EventsEnabled() {
			WithMissingKeyEvents(eventsCfg.GetEventsQueueURL())(ctx, s)
		}
	}
}

func (s *Service) Config() any {
	return s.configuration
}
