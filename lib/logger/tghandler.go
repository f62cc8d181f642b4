package logger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Sender delivers a formatted log line to operators. Implemented by bot.TgBot.
type Sender interface {
	SendMessageWithLevel(msg string, level slog.Level)
}

// Escape is applied to message text, e.g. bot.Sanitize for MarkdownV2.
type Escape func(string) string

// botModule records are never forwarded, a failing bot would otherwise feed itself.
const botModule = "tgbot"

// TelegramHandler is a slog.Handler that sends log messages to Telegram
type TelegramHandler struct {
	handler  slog.Handler
	sender   Sender
	escape   Escape
	minLevel slog.Level
	mu       *sync.Mutex
	attrs    []slog.Attr
	group    string
}

func NewTelegramHandler(handler slog.Handler, sender Sender, escape Escape, minLevel slog.Level) *TelegramHandler {
	if escape == nil {
		escape = func(s string) string { return s }
	}
	return &TelegramHandler{
		handler:  handler,
		sender:   sender,
		escape:   escape,
		minLevel: minLevel,
		mu:       &sync.Mutex{},
		attrs:    make([]slog.Attr, 0),
	}
}

// Enabled reports whether the wrapped handler wants the record; forwarding is decided in Handle.
func (h *TelegramHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *TelegramHandler) Handle(ctx context.Context, record slog.Record) error {
	if err := h.handler.Handle(ctx, record); err != nil {
		return err
	}
	if record.Level < h.minLevel || h.sender == nil || h.fromBot(record) {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var msg string
	if h.group != "" {
		msg = fmt.Sprintf("*%s* `%s.%s`", record.Level.String(), h.group, record.Message)
	} else {
		msg = fmt.Sprintf("*%s* `%s`", record.Level.String(), record.Message)
	}

	for _, attr := range h.attrs {
		if attr.Key == "error" {
			msg += fmt.Sprintf("\n%s: ```error %v ```", attr.Key, attr.Value)
		} else {
			msg += h.escape(fmt.Sprintf("\n%s: %v", attr.Key, attr.Value))
		}
	}
	record.Attrs(func(attr slog.Attr) bool {
		msg += h.escape(fmt.Sprintf("\n%s: %v", attr.Key, attr.Value))
		return true
	})

	h.sender.SendMessageWithLevel(msg, record.Level)
	return nil
}

func (h *TelegramHandler) fromBot(record slog.Record) bool {
	for _, attr := range h.attrs {
		if attr.Key == "mod" && attr.Value.String() == botModule {
			return true
		}
	}
	found := false
	record.Attrs(func(attr slog.Attr) bool {
		if attr.Key == "mod" && attr.Value.String() == botModule {
			found = true
			return false
		}
		return true
	})
	return found
}

func (h *TelegramHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)

	return &TelegramHandler{
		handler:  h.handler.WithAttrs(attrs),
		sender:   h.sender,
		escape:   h.escape,
		minLevel: h.minLevel,
		mu:       h.mu,
		attrs:    newAttrs,
		group:    h.group,
	}
}

func (h *TelegramHandler) WithGroup(name string) slog.Handler {
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}

	return &TelegramHandler{
		handler:  h.handler.WithGroup(name),
		sender:   h.sender,
		escape:   h.escape,
		minLevel: h.minLevel,
		mu:       h.mu,
		attrs:    h.attrs,
		group:    group,
	}
}
