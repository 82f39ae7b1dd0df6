package notifier

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultAPIBase is the Telegram Bot API endpoint.
const DefaultAPIBase = "https://api.telegram.org"

const (
	defaultRetries = 3
	defaultBackoff = time.Second
	pollTimeout    = 30 // seconds, server side
)

// TelegramNotifier sends messages to one chat via the Telegram Bot API.
type TelegramNotifier struct {
	ChatID string

	token   string
	apiBase string
	client  *resty.Client // sendMessage, retried
	poller  *resty.Client // getUpdates, long timeout
}

type sendMessage struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string) *TelegramNotifier {
	t := &TelegramNotifier{
		ChatID:  chatID,
		token:   botToken,
		apiBase: DefaultAPIBase,
		client:  newClient(proxyURL, 30*time.Second),
		poller:  newClient(proxyURL, (pollTimeout+5)*time.Second),
	}
	t.client.
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil || r == nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		}).
		AddRetryHook(func(r *resty.Response, err error) {
			if err == nil {
				err = fmt.Errorf("status %d", r.StatusCode())
			}
			log.Printf("[WARN] Telegram send attempt failed: %v", err)
		})
	return t.SetRetry(defaultRetries, defaultBackoff)
}

func newClient(proxyURL string, timeout time.Duration) *resty.Client {
	c := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	if proxyURL != "" {
		c.SetProxy(proxyURL)
	}
	return c
}

// SetAPIBase points the notifier at another Bot API server.
func (t *TelegramNotifier) SetAPIBase(base string) *TelegramNotifier {
	t.apiBase = base
	return t
}

// SetRetry sets how often a failed send is retried. The wait starts at
// backoff and grows exponentially up to eight times backoff.
func (t *TelegramNotifier) SetRetry(retries int, backoff time.Duration) *TelegramNotifier {
	t.client.
		SetRetryCount(retries).
		SetRetryWaitTime(backoff).
		SetRetryMaxWaitTime(8 * backoff)
	return t
}

func (t *TelegramNotifier) method(name string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.apiBase, t.token, name)
}

// Notify renders msg as HTML and sends it to the configured chat.
func (t *TelegramNotifier) Notify(ctx context.Context, msg Message) error {
	if msg.Empty() {
		return nil
	}
	var res apiResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(sendMessage{ChatID: t.ChatID, Text: msg.HTML(), ParseMode: "HTML", DisableWebPagePreview: true}).
		SetResult(&res).
		ForceContentType("application/json").
		Post(t.method("sendMessage"))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("send message: %w", err)
	}
	if resp.IsError() || !res.OK {
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
