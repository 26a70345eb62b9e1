// Package telegram is a minimal bot API client for channel messages.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const defaultAPIBase = "https://api.telegram.org"

// APIError is an error answered by the bot API itself, as opposed to a
// transport failure. Edit calls can fail recoverably this way, for example
// when the target message was deleted from the channel.
type APIError struct {
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram API error %d: %s", e.Code, e.Description)
}

// IsRecoverableEdit reports whether err is an API-level edit rejection that
// the caller can absorb by keeping only its own record fresh.
func IsRecoverableEdit(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// Bot sends and edits channel messages.
type Bot struct {
	token      string
	apiBase    string
	httpClient *http.Client
}

// NewBot builds a bot client for the given token.
func NewBot(token string) *Bot {
	return &Bot{
		token:   token,
		apiBase: defaultAPIBase,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type message struct {
	MessageID int64 `json:"message_id"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

func (b *Bot) call(ctx context.Context, method string, payload any) (*message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/bot%s/%s", b.apiBase, b.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", method, err)
	}
	defer resp.Body.Close()

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if !api.OK {
		return nil, &APIError{Code: api.ErrorCode, Description: api.Description}
	}

	var msg message
	if err := json.Unmarshal(api.Result, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode message: %w", err)
	}
	return &msg, nil
}

// SendMessage posts an HTML message to the channel and returns its ID.
func (b *Bot) SendMessage(ctx context.Context, channel, text string) (int64, error) {
	msg, err := b.call(ctx, "sendMessage", map[string]any{
		"chat_id":    channel,
		"text":       text,
		"parse_mode": "HTML",
	})
	if err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

// EditMessageText replaces the text of an existing channel message and
// returns the (unchanged) message ID. API-level rejections come back as
// *APIError.
func (b *Bot) EditMessageText(ctx context.Context, channel string, messageID int64, text string) (int64, error) {
	msg, err := b.call(ctx, "editMessageText", map[string]any{
		"chat_id":    channel,
		"message_id": messageID,
		"text":       text,
		"parse_mode": "HTML",
	})
	if err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}
