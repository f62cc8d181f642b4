package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"ticketdesk/bot"
	"ticketdesk/impl/auth"
	"ticketdesk/impl/core"
	"ticketdesk/impl/tickets"
	"ticketdesk/internal/brevo"
	"ticketdesk/internal/config"
	"ticketdesk/internal/database"
	"ticketdesk/internal/events"
	"ticketdesk/internal/http-server/api"
	"ticketdesk/internal/http-server/middleware/ratelimit"
	"ticketdesk/internal/metrics"
	"ticketdesk/internal/notify"
	"ticketdesk/lib/logger"
	"ticketdesk/lib/sl"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	// .env is optional, real environment variables take precedence
	_ = godotenv.Load()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, *logPath)
	lg.Info("starting ticketdesk",
		slog.String("config", *configPath),
		slog.String("env", conf.Env),
		slog.String("store", conf.Store),
	)

	var tgBot *bot.TgBot
	if conf.Telegram.Enabled {
		level := logger.ParseLevel(conf.Telegram.LogLevel)
		b, err := bot.NewTgBot(conf.Telegram.ApiKey, lg, bot.BotConfig{
			AdminIds:       conf.Telegram.AdminIds,
			MinLogLevel:    level,
			DigestInterval: conf.Telegram.DigestInterval,
		})
		if err != nil {
			lg.Error("telegram bot", sl.Err(err))
		} else {
			tgBot = b
			lg = slog.New(logger.NewTelegramHandler(lg.Handler(), tgBot, bot.Sanitize, level))
			lg.Info("telegram log forwarding enabled", slog.String("level", level.String()))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	normalizer, err := conf.PhoneNormalizer()
	if err != nil {
		lg.Error("phone normalizer", sl.Err(err))
		os.Exit(1)
	}
	lg.Info("phone numbers", slog.String("country_code", normalizer.CountryCode()))

	store, err := database.New(ctx, conf, lg)
	if err != nil {
		lg.Error("store connect", sl.Err(err))
		os.Exit(1)
	}

	allocator := tickets.New(store, conf.Tickets.CounterKey, conf.Tickets.Total, lg)
	if err = allocator.Init(ctx); err != nil {
		lg.Error("ticket counter", sl.Err(err))
		_ = store.Close(context.Background())
		os.Exit(1)
	}

	m := metrics.New(prometheus.NewRegistry())

	breaker := notify.ProtectedConfig{
		Timeout:          conf.Notify.Timeout,
		FailureThreshold: conf.Notify.Breaker.FailureThreshold,
		Cooldown:         conf.Notify.Breaker.Cooldown,
		HalfOpenMaxCalls: 1,
	}
	var channels []notify.Channel
	if conf.Notify.Email.Enabled {
		channels = append(channels, notify.NewProtected(notify.NewEmail(notify.EmailConfig{
			Host:     conf.Notify.Email.Host,
			Port:     conf.Notify.Email.Port,
			Username: conf.Notify.Email.Username,
			Password: conf.Notify.Email.Password,
			From:     conf.Notify.Email.From,
			FromName: conf.Notify.Email.FromName,
			Timeout:  conf.Notify.Timeout,
		}, lg), breaker))
	}
	if conf.Notify.Sms.Enabled || conf.Notify.WhatsApp.Enabled {
		brevoClient := brevo.NewClient(brevo.Config{
			ApiKey:  conf.Notify.Brevo.ApiKey,
			BaseURL: conf.Notify.Brevo.BaseUrl,
			Timeout: conf.Notify.Timeout,
		}, lg)
		if conf.Notify.Sms.Enabled {
			channels = append(channels, notify.NewProtected(
				notify.NewSms(brevoClient, conf.Notify.Sms.Sender), breaker))
		}
		if conf.Notify.WhatsApp.Enabled {
			channels = append(channels, notify.NewProtected(
				notify.NewWhatsApp(brevoClient, conf.Notify.WhatsApp.SenderNumber, conf.Notify.WhatsApp.TemplateId), breaker))
		}
	}
	var producer *events.Producer
	if conf.Kafka.Enabled {
		producer = events.NewProducer(conf.Kafka.Brokers, conf.Kafka.Topic)
		channels = append(channels, notify.NewProtected(producer, breaker))
	}
	if tgBot != nil && conf.Telegram.Notify {
		channels = append(channels, tgBot.Channel())
	}

	dispatcher := notify.NewDispatcher(conf.Notify.Workers, conf.Notify.QueueSize, lg, channels...)
	dispatcher.SetObserver(m)
	lg.Info("notifications", slog.Any("channels", dispatcher.Channels()))

	handler := core.New(store, allocator, normalizer, lg)
	handler.SetDispatcher(dispatcher)
	handler.SetAuthService(auth.New(conf.Operators))
	handler.SetMetrics(m)
	handler.SetEvent(conf.EventDetails())
	handler.SetRequireEmail(conf.Registration.RequireEmail)

	var limiter ratelimit.Limiter
	if conf.RateLimit.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     conf.RateLimit.Addr,
			Password: conf.RateLimit.Password,
			DB:       conf.RateLimit.DB,
		})
		defer func() {
			_ = rdb.Close()
		}()
		limiter = ratelimit.NewRedis(rdb, conf.RateLimit.Limit, conf.RateLimit.Window)
	}

	server := api.New(conf, lg, handler, m, limiter)
	go func() {
		if err := server.Start(); err != nil {
			lg.Error("server start", sl.Err(err))
			stop()
		}
	}()

	if tgBot != nil {
		tgBot.SetCore(handler)
		go func() {
			if err := tgBot.Start(); err != nil {
				lg.Error("telegram bot", sl.Err(err))
			}
		}()
	}

	<-ctx.Done()
	lg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err = server.Shutdown(shutdownCtx); err != nil {
		lg.Error("server shutdown", sl.Err(err))
	}
	if err = dispatcher.Stop(shutdownCtx); err != nil {
		lg.Warn("notifications not drained", sl.Err(err))
	}
	if producer != nil {
		if err = producer.Close(); err != nil {
			lg.Error("kafka producer close", sl.Err(err))
		}
	}
	if tgBot != nil {
		tgBot.Stop()
	}
	if err = store.Close(shutdownCtx); err != nil {
		lg.Error("store close", sl.Err(err))
	}
	lg.Info("stopped")
}
