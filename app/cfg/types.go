package cfg

// Feed is a single watched feed endpoint. Label identifies the feed in
// logs and metrics and stays stable even if the URL layout changes.
type Feed struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
}

type Cfg struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Watcher configuration
	Feeds        []Feed
	Watchlist    []string
	PollInterval int // seconds
	HTTPTimeout  int // seconds
	WorkerCount  int

	// Notification channels
	TelegramBotToken string
	TelegramChatID   string
	AlertmanagerURL  string

	// HTTP server
	Port    string
	BaseUrl string

	// Application metadata
	UserAgent string
	Debug     bool
	Version   string
}
