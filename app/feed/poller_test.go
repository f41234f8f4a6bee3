package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okutsev/certwatch/app/bulletin"
	"github.com/okutsev/certwatch/app/database"
)

type fakeStore struct {
	existing map[string]bool
	inserted []database.Bulletin
	failWith error
}

func newFakeStore(existing ...string) *fakeStore {
	s := &fakeStore{existing: make(map[string]bool)}
	for _, ref := range existing {
		s.existing[ref] = true
	}
	return s
}

func (s *fakeStore) Exists(_ context.Context, reference string) (bool, error) {
	if s.failWith != nil {
		return false, s.failWith
	}
	return s.existing[reference], nil
}

func (s *fakeStore) Insert(_ context.Context, b database.Bulletin) error {
	if !s.existing[b.Reference] {
		s.existing[b.Reference] = true
		s.inserted = append(s.inserted, b)
	}
	return nil
}

func (s *fakeStore) GetRecent(context.Context, database.Filter, int) ([]database.Bulletin, error) {
	return nil, nil
}

func (s *fakeStore) GetStats(context.Context) (database.Stats, error) {
	return database.Stats{}, nil
}

const testFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Security Alerts</title>
<link>https://www.cert.example.fr/alerte/</link>
<item>
  <title>Critical flaw in Nginx</title>
  <link>https://www.cert.example.fr/alerte/CERTFR-2024-ALE-007/</link>
  <description>&lt;p&gt;A critical vulnerability affects &lt;b&gt;nginx&lt;/b&gt; deployments.&lt;/p&gt;</description>
  <pubDate>Mon, 15 Apr 2024 10:00:00 GMT</pubDate>
</item>
<item>
  <title>Multiple vulnerabilities in OpenSSL</title>
  <link>https://www.cert.example.fr/avis/CERTFR-2024-AVI-0321/</link>
  <description>Several flaws were fixed in OpenSSL.</description>
  <pubDate>Mon, 15 Apr 2024 09:00:00 GMT</pubDate>
</item>
<item>
  <title>Weekly digest</title>
  <link>https://www.cert.example.fr/actualite/digest-17/</link>
  <description>Not a bulletin.</description>
</item>
<item>
  <title>Indicators of compromise</title>
  <link>https://www.cert.example.fr/ioc/CERTFR-2024-IOC-004/</link>
  <description>Fresh indicators.</description>
</item>
</channel>
</rss>`

func newFeedServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(body))
	}))
}

func newTestPoller(store database.BulletinStore) *Poller {
	return NewPoller(&http.Client{}, store, "CertWatch/test", 5*time.Second)
}

func TestPoll_NewBulletins(t *testing.T) {
	server := newFeedServer(t, testFeedXML)
	defer server.Close()

	poller := newTestPoller(newFakeStore())
	bulletins := poller.Poll(context.Background(), Source{Label: "alerte", URL: server.URL})

	if len(bulletins) != 3 {
		t.Fatalf("Expected 3 bulletins (digest entry dropped), got %d", len(bulletins))
	}

	first := bulletins[0]
	if first.Reference != "CERTFR-2024-ALE-007" {
		t.Errorf("Expected reference CERTFR-2024-ALE-007, got %q", first.Reference)
	}
	if first.Category != bulletin.CategoryAlert {
		t.Errorf("Expected category alert, got %q", first.Category)
	}
	if first.Title != "Critical flaw in Nginx" {
		t.Errorf("Unexpected title: %q", first.Title)
	}
	if strings.Contains(first.Summary, "<") {
		t.Errorf("Expected HTML-stripped summary, got %q", first.Summary)
	}
	if !strings.Contains(first.Summary, "nginx") {
		t.Errorf("Expected summary text retained, got %q", first.Summary)
	}

	expected := time.Date(2024, 4, 15, 10, 0, 0, 0, time.UTC)
	if !first.Published.Equal(expected) {
		t.Errorf("Expected feed-supplied publish time %v, got %v", expected, first.Published)
	}

	if bulletins[1].Category != bulletin.CategoryAdvisory {
		t.Errorf("Expected category advisory, got %q", bulletins[1].Category)
	}
	if bulletins[2].Category != bulletin.CategoryIndicator {
		t.Errorf("Expected category indicator, got %q", bulletins[2].Category)
	}
}

func TestPoll_PublishedFallback(t *testing.T) {
	server := newFeedServer(t, testFeedXML)
	defer server.Close()

	before := time.Now().UTC()
	poller := newTestPoller(newFakeStore())
	bulletins := poller.Poll(context.Background(), Source{Label: "alerte", URL: server.URL})

	// The IOC entry has no pubDate, so it falls back to wall-clock time.
	last := bulletins[len(bulletins)-1]
	if last.Published.Before(before) {
		t.Errorf("Expected wall-clock fallback publish time, got %v", last.Published)
	}
}

func TestPoll_SkipsSeenReferences(t *testing.T) {
	server := newFeedServer(t, testFeedXML)
	defer server.Close()

	store := newFakeStore("CERTFR-2024-ALE-007", "CERTFR-2024-AVI-0321")
	poller := newTestPoller(store)
	bulletins := poller.Poll(context.Background(), Source{Label: "alerte", URL: server.URL})

	if len(bulletins) != 1 {
		t.Fatalf("Expected 1 new bulletin, got %d", len(bulletins))
	}
	if bulletins[0].Reference != "CERTFR-2024-IOC-004" {
		t.Errorf("Expected only the unseen reference, got %q", bulletins[0].Reference)
	}
}

func TestPoll_DuplicateReferenceWithinBatch(t *testing.T) {
	feedXML := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Alerts</title>
<item><title>First</title><link>https://cert.example.fr/alerte/CERTFR-2024-ALE-001/</link></item>
<item><title>Repeat</title><link>https://cert.example.fr/alerte/CERTFR-2024-ALE-001/</link></item>
</channel></rss>`

	server := newFeedServer(t, feedXML)
	defer server.Close()

	poller := newTestPoller(newFakeStore())
	bulletins := poller.Poll(context.Background(), Source{Label: "alerte", URL: server.URL})

	if len(bulletins) != 1 {
		t.Errorf("Expected duplicate reference collapsed to 1 bulletin, got %d", len(bulletins))
	}
}

func TestPoll_FetchFailure(t *testing.T) {
	server := newFeedServer(t, testFeedXML)
	server.Close() // unreachable endpoint

	poller := newTestPoller(newFakeStore())
	bulletins := poller.Poll(context.Background(), Source{Label: "alerte", URL: server.URL})

	if len(bulletins) != 0 {
		t.Errorf("Expected empty result for unreachable feed, got %d bulletins", len(bulletins))
	}
}

func TestPoll_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	poller := newTestPoller(newFakeStore())
	bulletins := poller.Poll(context.Background(), Source{Label: "alerte", URL: server.URL})

	if len(bulletins) != 0 {
		t.Errorf("Expected empty result for HTTP 500, got %d bulletins", len(bulletins))
	}
}

func TestPoll_MalformedFeed(t *testing.T) {
	server := newFeedServer(t, "this is not XML at all")
	defer server.Close()

	poller := newTestPoller(newFakeStore())
	bulletins := poller.Poll(context.Background(), Source{Label: "alerte", URL: server.URL})

	if len(bulletins) != 0 {
		t.Errorf("Expected empty result for malformed feed, got %d bulletins", len(bulletins))
	}
}

func TestPoll_EmptyFeed(t *testing.T) {
	server := newFeedServer(t, `<?xml version="1.0"?><rss version="2.0"><channel><title>Empty</title></channel></rss>`)
	defer server.Close()

	poller := newTestPoller(newFakeStore())
	bulletins := poller.Poll(context.Background(), Source{Label: "alerte", URL: server.URL})

	if len(bulletins) != 0 {
		t.Errorf("Expected empty result for feed with no entries, got %d", len(bulletins))
	}
}
