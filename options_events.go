package langstore

import (
	"context"

	"github.com/pitabwire/langstore/events"
)

// WithMissingKeyEvents publishes every self-healing insert to queueURL. An empty url uses
// the in-memory default.
func WithMissingKeyEvents(queueURL string) Option {
	return func(_ context.Context, s *Service) {
		s.publisher = events.NewPublisher(queueURL)
	}
}

// MissingKeyPublisher returns the publisher configured for missing keys, if any.
func (s *Service) MissingKeyPublisher() *events.Publisher {
	return s.publisher
}
