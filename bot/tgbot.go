// Package bot implements the operator side of ticketdesk on Telegram.
//
//   - tgbot.go     TgBot struct, lifecycle (Start/Stop), admin list
//   - commands.go  /start, /status, /reset, /help
//   - callbacks.go inline confirmation of /reset
//   - menus.go     per-chat command menus
//   - messaging.go log forwarding and registration notices
//   - digest.go    batched registration notices
//   - helpers.go   Sanitize, plainResponse, notifyAdmins, reportError
//
// Only chats listed in telegram.admin_ids may use the bot; everybody else gets their chat id back.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"ticketdesk/entity"
	"ticketdesk/lib/sl"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/callbackquery"
)

// Core is the part of the registration service operators can reach from the bot.
type Core interface {
	Summary(ctx context.Context) (*entity.Summary, error)
	Reset(ctx context.Context, by string) (int64, error)
}

type messenger interface {
	SendMessage(chatId int64, text string, opts *tgbotapi.SendMessageOpts) (*tgbotapi.Message, error)
}

type BotConfig struct {
	AdminIds       []int64
	MinLogLevel    slog.Level
	DigestInterval time.Duration
}

type TgBot struct {
	log         *slog.Logger
	bot         *tgbotapi.Bot
	api         messenger
	core        Core
	mu          sync.RWMutex // guards adminIds
	adminIds    []int64
	minLogLevel slog.Level
	updater     *ext.Updater
	digest      *DigestBuffer
	config      BotConfig
}

func NewTgBot(apiKey string, log *slog.Logger, cfg BotConfig) (*TgBot, error) {
	tgBot := newTgBot(log, cfg)

	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	tgBot.bot = api
	tgBot.api = api

	return tgBot, nil
}

func newTgBot(log *slog.Logger, cfg BotConfig) *TgBot {
	adminIds := make([]int64, len(cfg.AdminIds))
	copy(adminIds, cfg.AdminIds)
	t := &TgBot{
		log:         log.With(sl.Module("tgbot")),
		adminIds:    adminIds,
		minLogLevel: cfg.MinLogLevel,
		config:      cfg,
	}
	// notices may arrive before Start, so the buffer exists from the beginning
	if cfg.DigestInterval > 0 {
		t.digest = NewDigestBuffer(t, cfg.DigestInterval)
	}
	return t
}

func (t *TgBot) startDigest() {
	if t.digest != nil {
		t.digest.StartTicker()
	}
}

func (t *TgBot) SetCore(core Core) {
	t.core = core
}

// Start blocks while polling for updates.
func (t *TgBot) Start() error {
	t.startDigest()

	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(b *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			t.log.Error("handling update:", sl.Err(err))
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	t.updater = ext.NewUpdater(dispatcher, nil)

	dispatcher.AddHandler(handlers.NewCommand("start", t.start))
	dispatcher.AddHandler(handlers.NewCommand("status", t.status))
	dispatcher.AddHandler(handlers.NewCommand("reset", t.reset))
	dispatcher.AddHandler(handlers.NewCommand("help", t.help))

	dispatcher.AddHandler(handlers.NewCallback(callbackquery.Prefix(cbReset), t.onResetCallback))

	t.setDefaultCommands()
	t.syncAdminMenus()

	err := t.updater.StartPolling(t.bot, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}

	t.log.Info("telegram bot started", slog.Int("admins", len(t.adminIds)))
	t.updater.Idle()
	return nil
}

func (t *TgBot) Stop() {
	if t.digest != nil {
		t.digest.Stop()
	}
	if t.updater != nil {
		t.log.Info("stopping telegram bot")
		_ = t.updater.Stop()
	}
}

func (t *TgBot) isAdmin(chatId int64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, id := range t.adminIds {
		if id == chatId {
			return true
		}
	}
	return false
}
