package main

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"vibeshift/api/internal/app"
	"vibeshift/api/internal/config"
	"vibeshift/api/internal/handle"
	"vibeshift/api/internal/httpserver"
	"vibeshift/api/internal/logging"
	"vibeshift/api/internal/store"
	"vibeshift/api/internal/telegram"
	"vibeshift/api/internal/util"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "bot:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	if err := cfg.RequireBot(); err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel, false)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	promReg := prometheus.NewRegistry()
	pipe, err := app.NewPipeline(cfg, log, promReg)
	if err != nil {
		return err
	}

	state, closeState, err := openState(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer closeState()

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	bot.Debug = false
	log.Info("telegram authorized", zap.String("bot", bot.Self.UserName))

	r := &telegram.Router{
		Bot:   bot,
		Pipe:  pipe,
		State: state,
		Limits: telegram.Limits{
			MaxInputLength: cfg.UIMaxInputLength,
			WarnLength:     cfg.UIWarnLength,
		},
		Log: log.Named("telegram"),
	}

	h := handle.New(pipe, handle.Limits{
		UIMaxInputLength: cfg.UIMaxInputLength,
		UIWarnLength:     cfg.UIWarnLength,
	}, log, state)
	mux := httpserver.Routes(h, log, promReg)
	addr := "0.0.0.0:" + cfg.Port

	// Chats run in parallel; each chat's updates stay in order.
	d := telegram.NewDispatcher(r.HandleUpdate, cfg.BotWorkers, log.Named("dispatch"))

	g, gctx := errgroup.WithContext(ctx)
	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		if err := startWebhookMode(gctx, g, bot, d, mux, webhookURL, log); err != nil {
			return err
		}
	} else {
		startPollingMode(gctx, g, bot, d, log)
	}
	g.Go(func() error { return httpserver.Run(gctx, addr, mux, log) })

	return g.Wait()
}

// openState uses Postgres when a DSN is configured and process memory otherwise.
func openState(ctx context.Context, dsn string, log *zap.Logger) (store.ChatState, func(), error) {
	if strings.TrimSpace(dsn) == "" {
		log.Info("chat state: memory")
		return store.NewMemory(), func() {}, nil
	}
	db, err := store.OpenPG(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	repo := store.NewPGRepo(db)
	if err := repo.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info("chat state: postgres", zap.String("db", safeDSNSummary(dsn)))
	return repo, func() { _ = db.Close() }, nil
}

// ---------------- Modes -----------------

func startWebhookMode(ctx context.Context, g *errgroup.Group, bot *tgbotapi.BotAPI, d *telegram.Dispatcher,
	mux chi.Router, baseURL string, log *zap.Logger) error {
	// Secret path: only Telegram knows the token hash.
	path := telegram.WebhookPath(util.ShortHash(bot.Token))
	public := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}

	handler, updates := telegram.WebhookHandler(64)
	mux.Post(path, handler)
	log.Info("webhook mode", zap.String("path", path))

	g.Go(func() error {
		defer d.Wait()
		for {
			select {
			case <-ctx.Done():
				return nil
			case upd := <-updates:
				d.Dispatch(ctx, upd)
			}
		}
	})
	return nil
}

func startPollingMode(ctx context.Context, g *errgroup.Group, bot *tgbotapi.BotAPI, d *telegram.Dispatcher, log *zap.Logger) {
	// A leftover webhook makes getUpdates fail with 409.
	if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		log.Warn("delete webhook", zap.Error(err))
	}
	log.Info("polling mode")
	g.Go(func() error {
		telegram.Poll(ctx, bot, log, func(upd tgbotapi.Update) {
			d.Dispatch(ctx, upd)
		})
		d.Wait()
		return nil
	})
}

// ---------------- Helpers -----------------

func safeDSNSummary(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "dsn: parse error"
	}
	user := u.User.Username()
	host := u.Host
	port := ""
	if h, p, err := net.SplitHostPort(u.Host); err == nil {
		host, port = h, p
	}
	db := strings.TrimPrefix(u.Path, "/")
	if port == "" {
		return fmt.Sprintf("host=%s db=%s user=%s", host, db, user)
	}
	return fmt.Sprintf("host=%s port=%s db=%s user=%s", host, port, db, user)
}
