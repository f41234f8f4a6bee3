// Package metrics holds the process-wide Prometheus collectors. Operators
// observe the watcher exclusively through these and the logs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "certwatch_feed_polls_total",
		Help: "Number of poll attempts per feed, including failed ones.",
	}, []string{"feed"})

	LastPollTimestamp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "certwatch_feed_last_poll_timestamp_seconds",
		Help: "Unix timestamp of the last poll attempt per feed.",
	}, []string{"feed"})

	BulletinsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "certwatch_bulletins_total",
		Help: "Number of new bulletins ingested per feed and category.",
	}, []string{"feed", "category"})

	MatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "certwatch_watchlist_matches_total",
		Help: "Number of bulletins that matched the product watchlist, per category.",
	}, []string{"category"})

	AlertsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "certwatch_alerts_sent_total",
		Help: "Alert delivery outcomes per channel and status.",
	}, []string{"channel", "status"})
)
