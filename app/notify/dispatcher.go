package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/okutsev/certwatch/app/bulletin"
	"github.com/okutsev/certwatch/app/metrics"
)

const (
	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Outcome is the per-channel result of one dispatch.
type Outcome struct {
	Channel string
	Status  string
	Err     error
}

// Dispatcher fans a bulletin out to every configured channel concurrently
// and joins all deliveries before returning. One channel's failure never
// blocks or cancels another's delivery.
type Dispatcher struct {
	channels []Channel
	timeout  time.Duration
}

func NewDispatcher(timeout time.Duration, channels ...Channel) *Dispatcher {
	return &Dispatcher{channels: channels, timeout: timeout}
}

// Dispatch delivers the bulletin to all enabled channels and returns once
// every channel has either succeeded, failed, or been skipped. Failures are
// logged with the bulletin reference and counted, then swallowed.
func (d *Dispatcher) Dispatch(ctx context.Context, b bulletin.Bulletin) []Outcome {
	outcomes := make([]Outcome, len(d.channels))

	var wg sync.WaitGroup
	for i, ch := range d.channels {
		if !ch.Enabled() {
			outcomes[i] = Outcome{Channel: ch.Name(), Status: StatusSkipped}
			continue
		}

		wg.Add(1)
		go func(i int, ch Channel) {
			defer wg.Done()

			sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
			defer cancel()

			if err := ch.Send(sendCtx, b); err != nil {
				slog.Error("Alert delivery failed",
					"channel", ch.Name(), "reference", b.Reference, "error", err)
				metrics.AlertsSentTotal.WithLabelValues(ch.Name(), StatusFailed).Inc()
				outcomes[i] = Outcome{Channel: ch.Name(), Status: StatusFailed, Err: err}
				return
			}

			metrics.AlertsSentTotal.WithLabelValues(ch.Name(), StatusSent).Inc()
			outcomes[i] = Outcome{Channel: ch.Name(), Status: StatusSent}
		}(i, ch)
	}
	wg.Wait()

	return outcomes
}
