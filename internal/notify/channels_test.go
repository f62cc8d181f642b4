package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"ticketdesk/internal/brevo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

type mockBrevo struct {
	mock.Mock
}

func (m *mockBrevo) SendSms(ctx context.Context, sms *brevo.Sms) (*brevo.SmsResponse, error) {
	args := m.Called(ctx, sms)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*brevo.SmsResponse), args.Error(1)
}

func (m *mockBrevo) SendWhatsApp(ctx context.Context, msg *brevo.WhatsAppMessage) (*brevo.WhatsAppResponse, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*brevo.WhatsAppResponse), args.Error(1)
}

func TestSms_Send(t *testing.T) {
	client := new(mockBrevo)
	client.On("SendSms", mock.Anything, mock.MatchedBy(func(sms *brevo.Sms) bool {
		return sms.Sender == "Roses" &&
			sms.Recipient == "+233244123456" &&
			sms.Type == brevo.SmsTransactional &&
			bytes.Contains([]byte(sms.Content), []byte("ROS-0007"))
	})).Return(&brevo.SmsResponse{Reference: "r1"}, nil)

	channel := NewSms(client, "Roses")
	assert.Equal(t, "sms", channel.Name())
	require.NoError(t, channel.Send(context.Background(), testMessage()))
	client.AssertExpectations(t)
}

func TestSms_PropagatesVendorError(t *testing.T) {
	client := new(mockBrevo)
	client.On("SendSms", mock.Anything, mock.Anything).Return(nil, errors.New("quota exceeded"))

	err := NewSms(client, "Roses").Send(context.Background(), testMessage())
	assert.EqualError(t, err, "quota exceeded")
}

func TestWhatsApp_Template(t *testing.T) {
	client := new(mockBrevo)
	client.On("SendWhatsApp", mock.Anything, mock.MatchedBy(func(msg *brevo.WhatsAppMessage) bool {
		return msg.TemplateId == 4 &&
			msg.Text == "" &&
			msg.Params["TICKET"] == "ROS-0007" &&
			msg.Params["NAME"] == "Ama Mensah" &&
			msg.ContactNumbers[0] == "+233244123456"
	})).Return(&brevo.WhatsAppResponse{MessageId: "w1"}, nil)

	channel := NewWhatsApp(client, "233200000000", 4)
	assert.Equal(t, "whatsapp", channel.Name())
	require.NoError(t, channel.Send(context.Background(), testMessage()))
	client.AssertExpectations(t)
}

func TestWhatsApp_PlainText(t *testing.T) {
	client := new(mockBrevo)
	client.On("SendWhatsApp", mock.Anything, mock.MatchedBy(func(msg *brevo.WhatsAppMessage) bool {
		return msg.TemplateId == 0 && bytes.Contains([]byte(msg.Text), []byte("Your Ticket Code: ROS-0007"))
	})).Return(&brevo.WhatsAppResponse{}, nil)

	require.NoError(t, NewWhatsApp(client, "233200000000", 0).Send(context.Background(), testMessage()))
	client.AssertExpectations(t)
}

func TestPhoneChannels_SkipWithoutPhone(t *testing.T) {
	client := new(mockBrevo)
	msg := testMessage()
	msg.Registrant.Phone = ""

	assert.ErrorIs(t, NewSms(client, "Roses").Send(context.Background(), msg), ErrSkipped)
	assert.ErrorIs(t, NewWhatsApp(client, "1", 0).Send(context.Background(), msg), ErrSkipped)
	client.AssertNotCalled(t, "SendSms", mock.Anything, mock.Anything)
}

func TestEmail_Send(t *testing.T) {
	e := NewEmail(EmailConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "tickets@example.com",
		FromName: "Roses of Sharon Team",
	}, discard())
	assert.Equal(t, "email", e.Name())

	var sent *mail.Msg
	e.send = func(_ context.Context, m *mail.Msg) error {
		sent = m
		return nil
	}
	require.NoError(t, e.Send(context.Background(), testMessage()))
	require.NotNil(t, sent)

	var buf bytes.Buffer
	_, err := sent.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, "ama@example.com")
	assert.Contains(t, raw, "tickets@example.com")
	assert.Contains(t, raw, "ROS-0007")
	assert.Contains(t, raw, "ticket.png")
}

func TestEmail_SkipsWithoutAddress(t *testing.T) {
	e := NewEmail(EmailConfig{Host: "smtp.example.com", Username: "tickets@example.com"}, discard())
	e.send = func(context.Context, *mail.Msg) error {
		t.Fatal("send must not be called")
		return nil
	}
	msg := testMessage()
	msg.Registrant.Email = ""
	assert.ErrorIs(t, e.Send(context.Background(), msg), ErrSkipped)
}

func TestEmail_WrapsSendError(t *testing.T) {
	e := NewEmail(EmailConfig{Host: "smtp.example.com", Username: "tickets@example.com"}, discard())
	e.send = func(context.Context, *mail.Msg) error {
		return errors.New("535 authentication failed")
	}
	err := e.Send(context.Background(), testMessage())
	assert.ErrorContains(t, err, "smtp send")
}
