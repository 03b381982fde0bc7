// Package notification provides multi-channel notification fan-out.
// New orders reach the bakery admins over Telegram; the daily digest can
// additionally go out over mail, Slack, or a plain webhook.
//
// Define a Notification:
//
//	type OrderCreated struct { Order models.Order }
//	func (n *OrderCreated) Via() []string { return []string{"telegram"} }
//	func (n *OrderCreated) ToTelegram() notification.TelegramData {
//	    return notification.TelegramData{Text: renderOrder(n.Order)}
//	}
//
// Send to one recipient per call; fan-out loops live in the caller so one
// failing admin never stops the rest:
//
//	for _, chatID := range config.AdminChatIDs() {
//	    notification.Send(notification.Recipient{ChatID: chatID}, n)
//	}
package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shashiranjanraj/dulceria/pkg/logger"
	"github.com/shashiranjanraj/dulceria/pkg/mail"
)

// ------------------- Channel data structs -------------------

// TelegramData carries a Telegram message payload.
type TelegramData struct {
	ChatID int64  // overrides the recipient chat id if set
	Text   string // Markdown-formatted message body
}

// MailData carries the data needed to send an email notification.
type MailData struct {
	To      string // overrides the recipient address if set
	Subject string
	Body    string // HTML
	Text    string // plain-text fallback
}

// SlackData carries a Slack message payload.
type SlackData struct {
	WebhookURL  string // override default if set
	Text        string
	Attachments []SlackAttachment
}

// SlackAttachment is a single Slack message attachment block.
type SlackAttachment struct {
	Color  string `json:"color,omitempty"` // "good" | "warning" | "danger"
	Title  string `json:"title,omitempty"`
	Text   string `json:"text,omitempty"`
	Footer string `json:"footer,omitempty"`
}

// WebhookData carries an arbitrary JSON payload to POST to a URL.
type WebhookData struct {
	URL     string
	Payload interface{}
	Headers map[string]string
}

// ------------------- Notification interface -------------------

// Recipient identifies where a notification goes; only the fields needed
// by the notification's channels must be set.
type Recipient struct {
	ChatID int64  // telegram
	Email  string // mail
}

// Notification is the interface every notification must satisfy.
type Notification interface {
	// Via returns the channel names: "telegram", "mail", "slack", "webhook".
	Via() []string
}

// Telegramable can be implemented to support the Telegram channel.
type Telegramable interface {
	ToTelegram() TelegramData
}

// Mailable can be implemented to support the mail channel.
type Mailable interface {
	ToMail() MailData
}

// Slackable can be implemented to support the Slack channel.
type Slackable interface {
	ToSlack() SlackData
}

// Webhookable can be implemented to support the webhook channel.
type Webhookable interface {
	ToWebhook() WebhookData
}

// ------------------- Global config -------------------

var (
	defaultSlackWebhook string

	// telegramSender is injected at boot with the bot client's SendMessage,
	// keeping this package free of a dependency on internal/telegram.
	telegramSender func(chatID int64, text string) error
)

// SetSlackWebhook sets the default Slack incoming webhook URL.
func SetSlackWebhook(url string) { defaultSlackWebhook = url }

// SetTelegramSender wires the function used to deliver Telegram messages.
func SetTelegramSender(fn func(chatID int64, text string) error) {
	telegramSender = fn
}

// ------------------- Send -------------------

// Send dispatches the notification through all channels returned by Via().
// Channel failures are logged and collected; one bad channel never stops
// the others.
func Send(to Recipient, n Notification) []error {
	var errs []error
	for _, channel := range n.Via() {
		if err := dispatch(to, channel, n); err != nil {
			logger.Error("notification: channel failed",
				"channel", channel, "error", err)
			errs = append(errs, err)
		}
	}
	return errs
}

// SendAsync dispatches the notification in a background goroutine.
func SendAsync(to Recipient, n Notification) {
	go func() {
		if errs := Send(to, n); len(errs) > 0 {
			for _, e := range errs {
				logger.Error("notification: async error", "error", e)
			}
		}
	}()
}

func dispatch(to Recipient, channel string, n Notification) error {
	switch channel {
	case "telegram":
		t, ok := n.(Telegramable)
		if !ok {
			return fmt.Errorf("notification: %T does not implement Telegramable", n)
		}
		return sendTelegram(to, t.ToTelegram())

	case "mail":
		m, ok := n.(Mailable)
		if !ok {
			return fmt.Errorf("notification: %T does not implement Mailable", n)
		}
		return sendMail(to, m.ToMail())

	case "slack":
		s, ok := n.(Slackable)
		if !ok {
			return fmt.Errorf("notification: %T does not implement Slackable", n)
		}
		return sendSlack(s.ToSlack())

	case "webhook":
		wh, ok := n.(Webhookable)
		if !ok {
			return fmt.Errorf("notification: %T does not implement Webhookable", n)
		}
		return sendWebhook(wh.ToWebhook())

	default:
		return fmt.Errorf("notification: unknown channel %q", channel)
	}
}

// ------------------- Telegram channel -------------------

func sendTelegram(to Recipient, d TelegramData) error {
	if telegramSender == nil {
		return fmt.Errorf("notification: telegram sender not configured")
	}

	chatID := d.ChatID
	if chatID == 0 {
		chatID = to.ChatID
	}
	if chatID == 0 {
		return fmt.Errorf("notification: telegram recipient chat id is empty")
	}

	return telegramSender(chatID, d.Text)
}

// ------------------- Mail channel -------------------

func sendMail(to Recipient, d MailData) error {
	addr := d.To
	if addr == "" {
		addr = to.Email
	}
	if addr == "" {
		return fmt.Errorf("notification: mail recipient address is empty")
	}

	body := d.Body
	if body == "" {
		body = d.Text
	}

	return mail.To(addr).Subject(d.Subject).Body(body).Send()
}

// ------------------- Slack channel -------------------

type slackPayload struct {
	Text        string            `json:"text,omitempty"`
	Attachments []SlackAttachment `json:"attachments,omitempty"`
}

func sendSlack(d SlackData) error {
	url := d.WebhookURL
	if url == "" {
		url = defaultSlackWebhook
	}
	if url == "" {
		return fmt.Errorf("notification: slack webhook URL not configured")
	}

	payload := slackPayload{
		Text:        d.Text,
		Attachments: d.Attachments,
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notification: slack marshal: %w", err)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("notification: slack post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification: slack returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// ------------------- Webhook channel -------------------

func sendWebhook(d WebhookData) error {
	if d.URL == "" {
		return fmt.Errorf("notification: webhook URL is empty")
	}

	raw, err := json.Marshal(d.Payload)
	if err != nil {
		return fmt.Errorf("notification: webhook marshal: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, d.URL, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("notification: webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range d.Headers {
		req.Header.Set(k, v)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("notification: webhook send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification: webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}
