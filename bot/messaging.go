package bot

import (
	"context"
	"fmt"
	"log/slog"
	"ticketdesk/internal/notify"
)

// SendMessageWithLevel forwards a log record to the admins when it is at or above the minimum level.
func (t *TgBot) SendMessageWithLevel(msg string, level slog.Level) {
	if level < t.minLogLevel {
		return
	}
	t.notifyAdmins(msg)
}

// RegistrationNotice tells the admins about a new registrant, batched when a digest interval is set.
func (t *TgBot) RegistrationNotice(msg *notify.Message) {
	text := formatRegistration(msg)
	if t.digest != nil {
		t.digest.Add(text, slog.LevelInfo)
		return
	}
	t.notifyAdmins(text)
}

func formatRegistration(msg *notify.Message) string {
	r := msg.Registrant
	text := fmt.Sprintf("New registration `%s`\n%s, %s", Sanitize(r.TicketCode), Sanitize(r.Name), Sanitize(r.Phone))
	if r.Email != "" {
		text += ", " + Sanitize(r.Email)
	}
	return text
}

// Channel is the notify.Channel view of the bot.
type Channel struct {
	bot *TgBot
}

func (t *TgBot) Channel() *Channel {
	return &Channel{bot: t}
}

func (c *Channel) Name() string {
	return "telegram"
}

func (c *Channel) Send(_ context.Context, msg *notify.Message) error {
	if len(c.bot.admins()) == 0 {
		return notify.ErrSkipped
	}
	c.bot.RegistrationNotice(msg)
	return nil
}
