// Package notify delivers bulletin alerts to the configured channels.
// Delivery is best effort: there is no retry queue and a channel failure is
// recorded and swallowed, never propagated to the poll pipeline.
package notify

import (
	"context"

	"github.com/okutsev/certwatch/app/bulletin"
)

// Channel is one independently configured outbound notification mechanism.
// Message formatting is each channel's own concern.
type Channel interface {
	Name() string
	// Enabled reports whether the channel has the configuration it needs.
	// Disabled channels are skipped silently, counted neither as success
	// nor as failure.
	Enabled() bool
	Send(ctx context.Context, b bulletin.Bulletin) error
}
