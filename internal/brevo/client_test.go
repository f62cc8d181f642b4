package brevo

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{ApiKey: "test-key", BaseURL: server.URL}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSendSms(t *testing.T) {
	var got Sms
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transactionalSMS/sms", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"reference":"ab1","messageId":1511882900176220,"smsCount":2}`))
	})

	resp, err := client.SendSms(context.Background(), &Sms{
		Sender:    "Roses",
		Recipient: "+233244123456",
		Content:   "Your Ticket Code: ROS-0001",
	})
	require.NoError(t, err)
	assert.Equal(t, "ab1", resp.Reference)
	assert.Equal(t, 2, resp.SmsCount)

	assert.Equal(t, "233244123456", got.Recipient)
	assert.Equal(t, SmsTransactional, got.Type)
	assert.Equal(t, "Roses", got.Sender)
}

func TestSendWhatsApp(t *testing.T) {
	var got WhatsAppMessage
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/whatsapp/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"messageId":"wa-1"}`))
	})

	resp, err := client.SendWhatsApp(context.Background(), &WhatsAppMessage{
		SenderNumber:   "233200000000",
		ContactNumbers: []string{"+233244123456"},
		TemplateId:     12,
		Params:         map[string]string{"TICKET": "ROS-0001"},
	})
	require.NoError(t, err)
	assert.Equal(t, "wa-1", resp.MessageId)
	assert.Equal(t, []string{"233244123456"}, got.ContactNumbers)
	assert.Equal(t, 12, got.TemplateId)
	assert.Equal(t, "ROS-0001", got.Params["TICKET"])
}

func TestRequest_ApiError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"unauthorized","message":"Key not found"}`))
	})

	_, err := client.SendSms(context.Background(), &Sms{Recipient: "233244123456"})
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "unauthorized", apiErr.Code)
	assert.Contains(t, err.Error(), "Key not found")
}

func TestRequest_PlainTextError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	_, err := client.SendSms(context.Background(), &Sms{Recipient: "233244123456"})
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Contains(t, apiErr.Message, "bad gateway")
}
