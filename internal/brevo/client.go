package brevo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"ticketdesk/lib/sl"
	"time"
)

const DefaultBaseURL = "https://api.brevo.com/v3"

type Client struct {
	hc      *http.Client
	baseURL string
	apiKey  string
	log     *slog.Logger
}

type Config struct {
	ApiKey  string
	BaseURL string
	Timeout time.Duration
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		hc:      &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.ApiKey,
		log:     logger.With(sl.Module("brevo")),
	}
}

// request posts a JSON payload with the api-key header and decodes a 2xx answer into out.
func (c *Client) request(ctx context.Context, path string, payload, out interface{}) error {
	endpoint := c.baseURL + path
	log := c.log.With(slog.String("endpoint", endpoint))

	status := "ERROR"
	t1 := time.Now()
	defer func() {
		t2 := time.Now()
		log.Debug("brevo API request completed",
			slog.String("duration", fmt.Sprintf("%.3fms", float64(t2.Sub(t1))/float64(time.Millisecond))),
			slog.String("status", status))
	}()

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	status = resp.Status
	if resp.StatusCode >= 300 {
		apiErr := &Error{StatusCode: resp.StatusCode}
		if json.Unmarshal(body, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = string(body)
		}
		return apiErr
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err = json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// SendSms sends a transactional SMS; recipient is a number with country code, with or without '+'.
func (c *Client) SendSms(ctx context.Context, sms *Sms) (*SmsResponse, error) {
	if sms.Type == "" {
		sms.Type = SmsTransactional
	}
	sms.Recipient = strings.TrimPrefix(sms.Recipient, "+")
	var resp SmsResponse
	if err := c.request(ctx, "/transactionalSMS/sms", sms, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SendWhatsApp sends a pre-approved WhatsApp template message.
func (c *Client) SendWhatsApp(ctx context.Context, msg *WhatsAppMessage) (*WhatsAppResponse, error) {
	for i, number := range msg.ContactNumbers {
		msg.ContactNumbers[i] = strings.TrimPrefix(number, "+")
	}
	var resp WhatsAppResponse
	if err := c.request(ctx, "/whatsapp/sendMessage", msg, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
