package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/okutsev/certwatch/app/bulletin"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramChannel posts bulletin alerts to a chat via the Telegram bot API.
type TelegramChannel struct {
	botToken string
	chatID   string
	client   *http.Client
	apiBase  string
}

var _ Channel = (*TelegramChannel)(nil)

func NewTelegramChannel(client *http.Client, botToken, chatID string) *TelegramChannel {
	return &TelegramChannel{
		botToken: botToken,
		chatID:   chatID,
		client:   client,
		apiBase:  telegramAPIBase,
	}
}

func (c *TelegramChannel) Name() string {
	return "telegram"
}

func (c *TelegramChannel) Enabled() bool {
	return c.botToken != "" && c.chatID != ""
}

type telegramMessage struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

func (c *TelegramChannel) Send(ctx context.Context, b bulletin.Bulletin) error {
	payload := telegramMessage{
		ChatID:                c.chatID,
		Text:                  formatTelegramMessage(b),
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.apiBase, c.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}

func formatTelegramMessage(b bulletin.Bulletin) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "<b>%s</b>\n\n", html.EscapeString(b.Title))
	fmt.Fprintf(&sb, "Reference: <code>%s</code>\n", html.EscapeString(b.Reference))
	fmt.Fprintf(&sb, "Category: %s\n", b.Category)
	if len(b.MatchedProducts) > 0 {
		fmt.Fprintf(&sb, "Products: %s\n", html.EscapeString(strings.Join(b.MatchedProducts, ", ")))
	}
	fmt.Fprintf(&sb, "\n%s", html.EscapeString(b.Link))

	return sb.String()
}
