package feed

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/okutsev/certwatch/app/bulletin"
	"github.com/okutsev/certwatch/app/database"
	"github.com/okutsev/certwatch/app/metrics"
)

// Poller fetches one feed per call and turns its entries into new bulletins.
type Poller struct {
	httpClient *http.Client
	parser     *gofeed.Parser
	store      database.BulletinStore
	userAgent  string
	timeout    time.Duration
}

func NewPoller(httpClient *http.Client, store database.BulletinStore, userAgent string, timeout time.Duration) *Poller {
	return &Poller{
		httpClient: httpClient,
		parser:     gofeed.NewParser(),
		store:      store,
		userAgent:  userAgent,
		timeout:    timeout,
	}
}

// Poll fetches and parses the feed and returns bulletins not yet present in
// the store, in feed entry order. Fetch and parse failures are absorbed here:
// they are logged and yield an empty result, so one broken feed never
// prevents the remaining feeds from being polled. The poll-count metric and
// last-poll timestamp are emitted on every invocation, failed ones included.
func (p *Poller) Poll(ctx context.Context, src Source) []bulletin.Bulletin {
	metrics.PollsTotal.WithLabelValues(src.Label).Inc()
	metrics.LastPollTimestamp.WithLabelValues(src.Label).SetToCurrentTime()

	parsed, err := p.fetch(ctx, src.URL)
	if err != nil {
		slog.Warn("Feed poll failed", "feed", src.Label, "url", src.URL, "error", err)
		return nil
	}

	var bulletins []bulletin.Bulletin
	seenInBatch := make(map[string]struct{})

	for _, item := range parsed.Items {
		if item == nil {
			continue
		}

		ref := bulletin.Extract(item.Link, item.Title)
		if ref == "" {
			// Not a bulletin (index entry, digest, ...), drop silently.
			continue
		}

		if _, dup := seenInBatch[ref]; dup {
			continue
		}
		seenInBatch[ref] = struct{}{}

		exists, err := p.store.Exists(ctx, ref)
		if err != nil {
			slog.Warn("Failed to check bulletin reference", "feed", src.Label, "reference", ref, "error", err)
			continue
		}
		if exists {
			continue
		}

		bulletins = append(bulletins, bulletin.Bulletin{
			Reference: ref,
			Category:  bulletin.Classify(ref),
			Title:     item.Title,
			Link:      item.Link,
			Published: bulletin.ParsePublished(item.PublishedParsed),
			Summary:   Summarize(cmp.Or(item.Description, item.Content)),
		})
	}

	return bulletins
}

func (p *Poller) fetch(ctx context.Context, url string) (*gofeed.Feed, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	parsed, err := p.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	return parsed, nil
}
