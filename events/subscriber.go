package events

import (
	"context"
	"encoding/json"
	"fmt"

	"gocloud.dev/pubsub"

	"github.com/pitabwire/langstore/translation"
)

// Subscribe opens a subscription on queueURL. For mem:// urls the publisher must have
// been initialised first.
func Subscribe(ctx context.Context, queueURL string) (*pubsub.Subscription, error) {
	if queueURL == "" {
		queueURL = DefaultQueueURL
	}
	return pubsub.OpenSubscription(ctx, queueURL)
}

// Decode reads a missing key event from msg.
func Decode(msg *pubsub.Message) (translation.MissingKey, error) {
	var event translation.MissingKey

	if name := msg.Metadata[HeaderEventName]; name != EventMissingKey {
		return event, fmt.Errorf("unexpected event %q", name)
	}

	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return event, fmt.Errorf("decode %s: %w", EventMissingKey, err)
	}
	return event, nil
}
