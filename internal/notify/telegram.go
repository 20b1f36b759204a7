package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xKaaZz/Waeleaks/pkg/httpclient"
)

// DefaultTelegramAPIBase is the public Bot API endpoint.
const DefaultTelegramAPIBase = "https://api.telegram.org"

// TelegramMessenger sends messages through the Telegram Bot API. The
// credential is the bot token and the recipient is the chat id.
type TelegramMessenger struct {
	client  httpclient.Client
	apiBase string
}

// NewTelegramMessenger builds a messenger posting to apiBase.
func NewTelegramMessenger(client httpclient.Client, apiBase string) *TelegramMessenger {
	apiBase = strings.TrimRight(strings.TrimSpace(apiBase), "/")
	if apiBase == "" {
		apiBase = DefaultTelegramAPIBase
	}
	return &TelegramMessenger{client: client, apiBase: apiBase}
}

// Send posts text to the chat. Any non-2xx response is an error.
func (t *TelegramMessenger) Send(ctx context.Context, recipientID, credential, text string) error {
	if t == nil || t.client == nil {
		return errors.New("telegram messenger is not configured")
	}
	if recipientID == "" || credential == "" {
		return errors.New("telegram recipient and credential are required")
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, credential)
	resp, err := t.client.PostForm(ctx, url, map[string]string{
		"chat_id": recipientID,
		"text":    text,
	})
	if err != nil {
		// transport errors carry the request URL, which embeds the token
		return fmt.Errorf("telegram send: %s", strings.ReplaceAll(err.Error(), credential, "<redacted>"))
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return fmt.Errorf("telegram send returned status %d: %s", resp.StatusCode(), snippet(resp.Body()))
	}
	return nil
}

func snippet(body []byte) string {
	const maxLen = 256
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
