// Package telegram is a minimal Bot API client: long-polled updates plus
// the handful of send/edit methods the storefront needs. No third-party
// wrapper earns its keep for this surface.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.telegram.org"

// Client talks to the Bot API over HTTPS.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

func NewClient(token string) *Client {
	return &Client{
		token:   token,
		baseURL: defaultBaseURL,
		// Long-poll requests hold the connection open for up to the poll
		// timeout, so the client timeout must exceed it.
		http: &http.Client{Timeout: 90 * time.Second},
	}
}

// SetBaseURL points the client at a different API host. Used by tests.
func (c *Client) SetBaseURL(url string) { c.baseURL = url }

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
}

// call POSTs params as JSON to one Bot API method and decodes the result
// into out (which may be nil when the result doesn't matter).
func (c *Client) call(ctx context.Context, method string, params, out interface{}) error {
	payload, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("telegram: marshal %s: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("telegram: build %s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: %s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("telegram: read %s: %w", method, err)
	}

	var api apiResponse
	if err := json.Unmarshal(body, &api); err != nil {
		return fmt.Errorf("telegram: decode %s: %w", method, err)
	}
	if !api.OK {
		return fmt.Errorf("telegram: %s failed (%d): %s", method, api.ErrorCode, api.Description)
	}
	if out != nil {
		if err := json.Unmarshal(api.Result, out); err != nil {
			return fmt.Errorf("telegram: decode %s result: %w", method, err)
		}
	}
	return nil
}

// GetUpdates long-polls for new updates. timeout is in seconds; the call
// blocks server-side until an update arrives or the timeout elapses.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error) {
	params := struct {
		Offset         int64    `json:"offset,omitempty"`
		Timeout        int      `json:"timeout"`
		AllowedUpdates []string `json:"allowed_updates"`
	}{
		Offset:         offset,
		Timeout:        timeout,
		AllowedUpdates: []string{"message", "callback_query"},
	}

	var updates []Update
	if err := c.call(ctx, "getUpdates", params, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessageParams are the options for SendMessage.
type SendMessageParams struct {
	ChatID      int64                 `json:"chat_id"`
	Text        string                `json:"text"`
	ParseMode   string                `json:"parse_mode,omitempty"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// SendMessage sends a message and returns it as stored by Telegram.
func (c *Client) SendMessage(ctx context.Context, p SendMessageParams) (Message, error) {
	var msg Message
	if err := c.call(ctx, "sendMessage", p, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// SendText sends plain text without a keyboard.
func (c *Client) SendText(ctx context.Context, chatID int64, text string) (Message, error) {
	return c.SendMessage(ctx, SendMessageParams{ChatID: chatID, Text: text})
}

// EditMessageParams are the options for EditMessageText.
type EditMessageParams struct {
	ChatID      int64                 `json:"chat_id"`
	MessageID   int64                 `json:"message_id"`
	Text        string                `json:"text"`
	ParseMode   string                `json:"parse_mode,omitempty"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// EditMessageText rewrites a previously sent message in place. The menu
// navigation edits one message instead of flooding the chat.
func (c *Client) EditMessageText(ctx context.Context, p EditMessageParams) error {
	return c.call(ctx, "editMessageText", p, nil)
}

// AnswerCallbackQuery acknowledges a button press; text, when set, shows
// as a toast in the client.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	params := struct {
		CallbackQueryID string `json:"callback_query_id"`
		Text            string `json:"text,omitempty"`
	}{CallbackQueryID: callbackID, Text: text}
	return c.call(ctx, "answerCallbackQuery", params, nil)
}

// SendPhotoParams are the options for SendPhoto. Photo is a public URL;
// product images are served from the storage disk's public URL.
type SendPhotoParams struct {
	ChatID      int64                 `json:"chat_id"`
	Photo       string                `json:"photo"`
	Caption     string                `json:"caption,omitempty"`
	ParseMode   string                `json:"parse_mode,omitempty"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// SendPhoto sends an image by URL with an optional caption.
func (c *Client) SendPhoto(ctx context.Context, p SendPhotoParams) (Message, error) {
	var msg Message
	if err := c.call(ctx, "sendPhoto", p, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
