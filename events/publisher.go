// Package events publishes missing translation keys to a gocloud.dev pubsub topic so that
// translators can be told about text that still needs work.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/pitabwire/util"
	"github.com/rs/xid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"gocloud.dev/pubsub"
	_ "gocloud.dev/pubsub/mempubsub" // required for in-memory pubsub driver registration

	"github.com/pitabwire/langstore/localization"
	"github.com/pitabwire/langstore/translation"
)

const (
	// HeaderEventName carries the event name in message metadata.
	HeaderEventName = "langstore.event"
	// HeaderEventID carries the unique id of the event.
	HeaderEventID = "langstore.event_id"

	// EventMissingKey is emitted after a key was stored as its own translation.
	EventMissingKey = "translation.missing_key"

	// DefaultQueueURL is used when no queue url is configured.
	DefaultQueueURL = "mem://langstore.missing_keys"

	defaultPublisherShutdownTimeoutSeconds = 30
)

// Publisher sends missing key events to a pubsub topic.
type Publisher struct {
	url string

	mu    sync.RWMutex
	topic *pubsub.Topic
}

var _ translation.MissingKeyNotifier = (*Publisher)(nil)

// NewPublisher creates a publisher for queueURL. Init must be called before use.
func NewPublisher(queueURL string) *Publisher {
	if queueURL == "" {
		queueURL = DefaultQueueURL
	}
	return &Publisher{url: queueURL}
}

// URL is the topic the publisher sends to.
func (p *Publisher) URL() string {
	return p.url
}

// Init opens the topic. Calling it again is a no-op.
func (p *Publisher) Init(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.topic != nil {
		return nil
	}

	topic, err := pubsub.OpenTopic(ctx, p.url)
	if err != nil {
		return err
	}

	p.topic = topic
	return nil
}

// Initiated reports whether Init succeeded and Stop has not been called since.
func (p *Publisher) Initiated() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.topic != nil
}

// NotifyMissingKey publishes event as JSON.
func (p *Publisher) NotifyMissingKey(ctx context.Context, event translation.MissingKey) error {
	return p.Publish(ctx, EventMissingKey, event)
}

// Publish sends payload as JSON under the given event name.
func (p *Publisher) Publish(ctx context.Context, name string, payload any) error {
	p.mu.RLock()
	topic := p.topic
	p.mu.RUnlock()

	if topic == nil {
		return errors.New("publisher is not initialized")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	metadata := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, metadata)

	maps.Copy(metadata, map[string]string{
		HeaderEventName: name,
		HeaderEventID:   xid.New().String(),
	})

	if language := localization.FromContext(ctx); len(language) > 0 {
		metadata = localization.ToMap(metadata, language)
	}

	err = topic.Send(ctx, &pubsub.Message{
		Body:     body,
		Metadata: metadata,
	})
	if err != nil {
		util.Log(ctx).WithError(err).WithField("name", name).Error("could not publish event")
		return err
	}

	return nil
}

// Stop shuts the topic down.
func (p *Publisher) Stop(ctx context.Context) error {
	var sctx context.Context
	var cancelFunc context.CancelFunc

	select {
	case <-ctx.Done():
		sctx = context.Background()
	default:
		sctx = ctx
	}

	sctx, cancelFunc = context.WithTimeout(sctx, time.Second*defaultPublisherShutdownTimeoutSeconds)
	defer cancelFunc()

	p.mu.Lock()
	topic := p.topic
	p.topic = nil
	p.mu.Unlock()

	if topic == nil {
		return nil
	}

	// mem:// topics are shared by url inside the process, shutting one down breaks every
	// later user of the same url.
	if strings.HasPrefix(strings.ToLower(p.url), "mem://") {
		return nil
	}

	return topic.Shutdown(sctx)
}
