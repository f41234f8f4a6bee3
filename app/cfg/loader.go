package cfg

import (
	"cmp"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBHost     string `long:"db-host" env:"DB_HOST" default:"localhost" description:"Database host"`
	DBPort     string `long:"db-port" env:"DB_PORT" default:"5432" description:"Database port"`
	DBUser     string `long:"db-user" env:"DB_USER" default:"certwatch" description:"Database user"`
	DBPassword string `long:"db-password" env:"DB_PASSWORD" default:"certwatch" description:"Database password (required)" required:"true"`
	DBName     string `long:"db-name" env:"DB_NAME" default:"certwatch" description:"Database name (created on startup when missing)"`

	// Watcher configuration
	FeedURLs     string `long:"feed-urls" env:"FEED_URLS" description:"Comma-separated feed URLs, each entry either URL or label=URL"`
	FeedsFile    string `long:"feeds-file" env:"FEEDS_FILE" description:"Optional YAML file with feeds (label + url per entry)"`
	Watchlist    string `long:"watchlist" env:"WATCHLIST" description:"Comma-separated product terms to alert on"`
	PollInterval int    `long:"poll-interval" env:"POLL_INTERVAL" default:"300" description:"Poll interval in seconds"`
	HTTPTimeout  int    `long:"http-timeout" env:"HTTP_TIMEOUT" default:"15" description:"Timeout for outbound HTTP calls in seconds"`
	WorkerCount  int    `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of background workers for feed polling"`

	// Notification channels (a channel with missing settings is disabled)
	TelegramBotToken string `long:"telegram-bot-token" env:"TELEGRAM_BOT_TOKEN" description:"Telegram bot token"`
	TelegramChatID   string `long:"telegram-chat-id" env:"TELEGRAM_CHAT_ID" description:"Telegram chat ID"`
	AlertmanagerURL  string `long:"alertmanager-url" env:"ALERTMANAGER_URL" description:"Alertmanager webhook URL"`

	// HTTP server
	Port    string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (used as generator URL in alerts)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"CertWatch/1.0" description:"User agent string for HTTP requests"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	feeds := parseFeeds(raw.FeedURLs)

	if raw.FeedsFile != "" {
		fileFeeds, err := loadFeedsFile(raw.FeedsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load feeds file: %w", err)
		}
		feeds = append(feeds, fileFeeds...)
	}

	cfg := &Cfg{
		DBHost:           raw.DBHost,
		DBPort:           raw.DBPort,
		DBUser:           raw.DBUser,
		DBPassword:       raw.DBPassword,
		DBName:           raw.DBName,
		Feeds:            feeds,
		Watchlist:        parseWatchlist(raw.Watchlist),
		PollInterval:     raw.PollInterval,
		HTTPTimeout:      raw.HTTPTimeout,
		WorkerCount:      raw.WorkerCount,
		TelegramBotToken: raw.TelegramBotToken,
		TelegramChatID:   raw.TelegramChatID,
		AlertmanagerURL:  raw.AlertmanagerURL,
		Port:             raw.Port,
		BaseUrl:          raw.BaseUrl,
		UserAgent:        raw.UserAgent,
		Debug:            raw.Debug,
		Version:          GetVersion(),
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// parseFeeds splits a comma-separated feed list. Each entry is either a bare
// URL or "label=URL"; bare URLs get a label derived from the URL path.
func parseFeeds(s string) []Feed {
	var feeds []Feed
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if label, rest, found := strings.Cut(entry, "="); found && !strings.Contains(label, "/") {
			feeds = append(feeds, Feed{Label: strings.TrimSpace(label), URL: strings.TrimSpace(rest)})
			continue
		}

		feeds = append(feeds, Feed{Label: DeriveLabel(entry), URL: entry})
	}
	return feeds
}

// DeriveLabel falls back to the last-but-one path segment of the feed URL,
// e.g. https://www.cert.ssi.gouv.fr/alerte/feed/ yields "alerte".
func DeriveLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) >= 2 {
		return segments[len(segments)-2]
	}
	if len(segments) == 1 && segments[0] != "" {
		return segments[0]
	}
	return u.Host
}

// parseWatchlist splits and lowercases the comma-separated watchlist,
// preserving configuration order.
func parseWatchlist(s string) []string {
	var terms []string
	for _, term := range strings.Split(s, ",") {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		terms = append(terms, term)
	}
	return terms
}

type feedsFile struct {
	Feeds []Feed `yaml:"feeds"`
}

func loadFeedsFile(path string) ([]Feed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var parsed feedsFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	feeds := make([]Feed, 0, len(parsed.Feeds))
	for _, f := range parsed.Feeds {
		if f.URL == "" {
			return nil, fmt.Errorf("feed entry without url in %s", path)
		}
		if f.Label == "" {
			f.Label = DeriveLabel(f.URL)
		}
		feeds = append(feeds, f)
	}

	return feeds, nil
}
