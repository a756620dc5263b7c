package translation

import (
	"context"
	"time"
)

// MissingKey describes a key that was inserted as its own placeholder translation.
type MissingKey struct {
	Unit       string    `json:"unit"`
	Owner      string    `json:"owner"`
	Culture    string    `json:"culture"`
	Key        string    `json:"key"`
	Normalized string    `json:"normalized"`
	Path       string    `json:"path"`
	OccurredAt time.Time `json:"occurred_at"`
}

// MissingKeyNotifier is told about every self-healing insert that reached the disk.
type MissingKeyNotifier interface {
	NotifyMissingKey(ctx context.Context, event MissingKey) error
}

// MissingKeyNotifierFunc adapts a function to MissingKeyNotifier.
type MissingKeyNotifierFunc func(ctx context.Context, event MissingKey) error

func (f MissingKeyNotifierFunc) NotifyMissingKey(ctx context.Context, event MissingKey) error {
	return f(ctx, event)
}
