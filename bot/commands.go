package bot

import (
	"context"
	"fmt"
	"strings"
	"ticketdesk/entity"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

const commandTimeout = 10 * time.Second

func (t *TgBot) start(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	if t.isAdmin(chatId) {
		t.plainResponse(chatId, "Welcome back\\. Use /status to see the registrations\\.")
		return nil
	}
	t.plainResponse(chatId, fmt.Sprintf(
		"This bot is for event operators\\.\nYour chat id is `%d`; ask an admin to add it to the configuration\\.",
		chatId))
	return nil
}

func (t *TgBot) status(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	if !t.isAdmin(chatId) || t.core == nil {
		return nil
	}

	c, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	summary, err := t.core.Summary(c)
	if err != nil {
		t.reportError(chatId, "/status", err)
		return nil
	}
	t.plainResponse(chatId, formatSummary(summary))
	return nil
}

// reset only asks for confirmation; the work is done in onResetCallback.
func (t *TgBot) reset(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	if !t.isAdmin(chatId) || t.core == nil {
		return nil
	}
	t.sendWithKeyboard(chatId,
		"Delete *all* registrants and restart ticket numbering at 1?",
		buildResetKeyboard())
	return nil
}

func (t *TgBot) help(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	var sb strings.Builder
	sb.WriteString("*Available commands*\n\n")
	sb.WriteString("`/start` \\- Show your chat id\n")
	if t.isAdmin(chatId) {
		sb.WriteString("`/status` \\- Tickets left and registrants\n")
		sb.WriteString("`/reset` \\- Clear registrations and reset the counter\n")
	}
	sb.WriteString("`/help` \\- Show this message\n")
	t.plainResponse(chatId, sb.String())
	return nil
}

func formatSummary(summary *entity.Summary) string {
	issued := summary.Total - summary.Left
	return fmt.Sprintf("*Tickets*\nIssued: `%d` of `%d`\nLeft: `%d`\nRegistrants: `%d`",
		issued, summary.Total, summary.Left, summary.Registrants)
}
