package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

// Telegram limits callback data to 64 bytes, so prefixes are kept short.
const (
	cbReset       = "rs:"
	cbResetOk     = cbReset + "ok"
	cbResetCancel = cbReset + "no"
)

func buildResetKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{
			{
				{Text: "Reset ✓", CallbackData: cbResetOk},
				{Text: "Cancel ✗", CallbackData: cbResetCancel},
			},
		},
	}
}

// onResetCallback handles the buttons of the /reset confirmation.
// The keyboard is replaced with the outcome so it cannot be pressed twice.
func (t *TgBot) onResetCallback(_ *tgbotapi.Bot, ctx *ext.Context) error {
	cq := ctx.CallbackQuery
	chatId := cq.From.Id

	if !t.isAdmin(chatId) || t.core == nil {
		_, _ = cq.Answer(t.bot, &tgbotapi.AnswerCallbackQueryOpts{Text: "Admin access required", ShowAlert: true})
		return nil
	}

	result := "Reset cancelled"
	if strings.TrimPrefix(cq.Data, cbReset) == "ok" {
		c, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		by := "telegram:" + strconv.FormatInt(chatId, 10)
		if cq.From.Username != "" {
			by = "telegram:@" + cq.From.Username
		}
		deleted, err := t.core.Reset(c, by)
		if err != nil {
			t.reportError(chatId, "reset:callback", err)
			_, _ = cq.Answer(t.bot, &tgbotapi.AnswerCallbackQueryOpts{Text: "Error occurred"})
			return nil
		}
		result = fmt.Sprintf("Reset done, %d registrants deleted", deleted)
		t.notifyAdmins(fmt.Sprintf("Registrations reset by %s", Sanitize(by)))
	}

	if msg := cq.Message; msg != nil {
		if im, ok := msg.(tgbotapi.Message); ok {
			_, _, _ = t.bot.EditMessageText(
				fmt.Sprintf("%s\n\n%s", Sanitize(im.Text), Sanitize(result)),
				&tgbotapi.EditMessageTextOpts{
					ChatId:    chatId,
					MessageId: im.MessageId,
					ParseMode: "MarkdownV2",
				},
			)
		}
	}

	_, _ = cq.Answer(t.bot, &tgbotapi.AnswerCallbackQueryOpts{
		Text: result,
	})
	return nil
}
