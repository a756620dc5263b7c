package langstore

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pitabwire/langstore/scope"
	"github.com/pitabwire/langstore/translation"
)

const defaultStoreCacheSize = 256

// WithStoreCacheSize bounds the number of open stores kept by the service. Evicted stores
// are dropped without side effects; their saved state is on disk.
func WithStoreCacheSize(size int) Option {
	return func(_ context.Context, s *Service) {
		if size <= 0 {
			size = defaultStoreCacheSize
		}

		cache, err := lru.New[string, *translation.Store](size)
		if err != nil {
			s.addSetupError(fmt.Errorf("could not create store cache: %w", err))
			return
		}

		if s.stores != nil {
			for _, path := range s.stores.Keys() {
				if store, ok := s.stores.Peek(path); ok {
					cache.Add(path, store)
				}
			}
		}
		s.stores = cache
	}
}

// WithScopeRegistry shares an existing capability table with the service.
func WithScopeRegistry(registry *scope.Registry) Option {
	return func(_ context.Context, s *Service) {
		if registry != nil {
			s.scopes = registry
		}
	}
}
