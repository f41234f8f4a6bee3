package tasks

import (
	"context"
	"log/slog"

	"github.com/okutsev/certwatch/app/bulletin"
	"github.com/okutsev/certwatch/app/database"
	"github.com/okutsev/certwatch/app/feed"
	"github.com/okutsev/certwatch/app/metrics"
	"github.com/okutsev/certwatch/app/notify"
)

// PollFeedTask runs the pipeline for one feed: poll, match against the
// watchlist, persist, and dispatch alerts for matched bulletins.
type PollFeedTask struct {
	Task
	Source     feed.Source
	poller     *feed.Poller
	store      database.BulletinStore
	dispatcher *notify.Dispatcher
	watchlist  []string
}

func NewPollFeedTask(source feed.Source, poller *feed.Poller, store database.BulletinStore,
	dispatcher *notify.Dispatcher, watchlist []string) *PollFeedTask {
	return &PollFeedTask{
		Task:       NewTask(TaskTypePollFeed, source.Label),
		Source:     source,
		poller:     poller,
		store:      store,
		dispatcher: dispatcher,
		watchlist:  watchlist,
	}
}

func (t *PollFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	bulletins := t.poller.Poll(ctx, t.Source)

	newCount := 0
	alertCount := 0

	for _, b := range bulletins {
		// Honor cancellation between bulletins, never mid-write.
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		b.MatchedProducts = bulletin.MatchProducts(t.watchlist, b.Title, b.Summary)
		b.Alerted = bulletin.ShouldAlert(b.MatchedProducts)

		if err := t.store.Insert(ctx, toRecord(b)); err != nil {
			slog.Error("Failed to store bulletin",
				"feed", t.FeedLabel, "reference", b.Reference, "error", err)
			continue
		}

		metrics.BulletinsTotal.WithLabelValues(t.FeedLabel, string(b.Category)).Inc()
		newCount++

		if !b.Alerted {
			continue
		}

		metrics.MatchesTotal.WithLabelValues(string(b.Category)).Inc()
		alertCount++
		t.dispatcher.Dispatch(ctx, b)
	}

	slog.Info("Task completed",
		"type", "PollFeed",
		"feed", t.FeedLabel,
		"duration", t.GetDuration(),
		"new", newCount,
		"alerted", alertCount)

	return nil
}

func toRecord(b bulletin.Bulletin) database.Bulletin {
	return database.Bulletin{
		Reference:       b.Reference,
		Category:        string(b.Category),
		Title:           b.Title,
		Link:            b.Link,
		Published:       b.Published,
		Summary:         b.Summary,
		MatchedProducts: b.MatchedProducts,
		Alerted:         b.Alerted,
	}
}
