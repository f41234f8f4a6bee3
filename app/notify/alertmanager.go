package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/okutsev/certwatch/app/bulletin"
)

// AlertmanagerChannel pushes bulletin alerts to an Alertmanager-compatible
// webhook as a JSON array of alert objects.
type AlertmanagerChannel struct {
	url          string
	generatorURL string
	client       *http.Client
}

var _ Channel = (*AlertmanagerChannel)(nil)

// NewAlertmanagerChannel targets the given webhook URL. generatorURL points
// back at this process's metrics endpoint for alert correlation.
func NewAlertmanagerChannel(client *http.Client, url, generatorURL string) *AlertmanagerChannel {
	return &AlertmanagerChannel{
		url:          url,
		generatorURL: generatorURL,
		client:       client,
	}
}

func (c *AlertmanagerChannel) Name() string {
	return "alertmanager"
}

func (c *AlertmanagerChannel) Enabled() bool {
	return c.url != ""
}

type alertmanagerAlert struct {
	Labels       map[string]string `json:"labels"`
	Annotations  map[string]string `json:"annotations"`
	GeneratorURL string            `json:"generatorURL,omitempty"`
}

func (c *AlertmanagerChannel) Send(ctx context.Context, b bulletin.Bulletin) error {
	alerts := []alertmanagerAlert{{
		Labels: map[string]string{
			"alertname": "SecurityBulletin",
			"severity":  severityFor(b.Category),
			"reference": b.Reference,
			"category":  string(b.Category),
			"service":   "certwatch",
		},
		Annotations: map[string]string{
			"summary":          b.Title,
			"description":      b.Summary,
			"matched_products": strings.Join(b.MatchedProducts, ","),
			"link":             b.Link,
		},
		GeneratorURL: c.generatorURL,
	}}

	body, err := json.Marshal(alerts)
	if err != nil {
		return fmt.Errorf("failed to marshal alerts: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to push alert: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("alertmanager error: %s", resp.Status)
	}

	return nil
}

// severityFor maps bulletin categories onto Alertmanager severities.
func severityFor(category bulletin.Category) string {
	switch category {
	case bulletin.CategoryAlert:
		return "critical"
	case bulletin.CategoryAdvisory:
		return "warning"
	default:
		return "info"
	}
}
