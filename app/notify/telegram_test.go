package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTelegramChannel_Enabled(t *testing.T) {
	client := &http.Client{}

	if NewTelegramChannel(client, "", "").Enabled() {
		t.Error("Expected channel disabled without token and chat ID")
	}
	if NewTelegramChannel(client, "token", "").Enabled() {
		t.Error("Expected channel disabled without chat ID")
	}
	if NewTelegramChannel(client, "", "42").Enabled() {
		t.Error("Expected channel disabled without token")
	}
	if !NewTelegramChannel(client, "token", "42").Enabled() {
		t.Error("Expected channel enabled with full configuration")
	}
}

func TestTelegramChannel_Send(t *testing.T) {
	var captured telegramMessage
	var path string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("Failed to decode request body: %v", err)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	channel := NewTelegramChannel(server.Client(), "test-token", "42")
	channel.apiBase = server.URL

	b := testBulletin()
	b.Title = `Critical flaw in Nginx <script>`

	if err := channel.Send(context.Background(), b); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if path != "/bottest-token/sendMessage" {
		t.Errorf("Unexpected API path: %q", path)
	}
	if captured.ChatID != "42" {
		t.Errorf("Expected chat_id 42, got %q", captured.ChatID)
	}
	if captured.ParseMode != "HTML" {
		t.Errorf("Expected HTML parse mode, got %q", captured.ParseMode)
	}
	if !captured.DisableWebPagePreview {
		t.Error("Expected link preview suppressed")
	}
	if strings.Contains(captured.Text, "<script>") {
		t.Errorf("Expected title HTML-escaped, got %q", captured.Text)
	}
	if !strings.Contains(captured.Text, "CERTFR-2024-ALE-007") {
		t.Errorf("Expected reference in message, got %q", captured.Text)
	}
	if !strings.Contains(captured.Text, "nginx") {
		t.Errorf("Expected matched products in message, got %q", captured.Text)
	}
	if !strings.Contains(captured.Text, b.Link) {
		t.Errorf("Expected link in message, got %q", captured.Text)
	}
}

func TestTelegramChannel_SendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	channel := NewTelegramChannel(server.Client(), "test-token", "42")
	channel.apiBase = server.URL

	if err := channel.Send(context.Background(), testBulletin()); err == nil {
		t.Error("Expected error for non-200 response")
	}
}
