package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"LockIn/internal/adapter/augmentos"
	"LockIn/internal/app/session"
	"LockIn/internal/config"
	"LockIn/internal/service/assets"
	"LockIn/internal/service/events/webhook"

	"go.uber.org/zap"
)

func main() {
	cfg := config.NewConfig()

	// создаём предустановленный регистратор zap
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.DebugMode {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}

	// делаем регистратор SugaredLogger
	sugar := logger.Sugar()
	//сброс буфера логгера
	defer func() {
		if err := logger.Sync(); err != nil && !errors.Is(err, syscall.EINVAL) {
			sugar.Errorw("Failed to sync logger", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sugar.Infow(
		"Starting app",
		"DebugMode", cfg.DebugMode,
		"PackageName", cfg.PackageName,
		"Addr", cfg.Addr(),
		"WebsocketURL", cfg.WebsocketURL,
	)
	if cfg.APIKey == "" {
		sugar.Warnw("AUGMENTOS_API_KEY is empty, cloud will probably reject connections")
	}

	// картинки читаются один раз и общие для всех сессий
	images := assets.Load(cfg.AssetsDir, cfg.ActiveImage, cfg.EmptyImage, sugar)

	dial := func(ctx context.Context, req session.Request) (session.Connection, error) {
		url := req.WebsocketURL
		if url == "" {
			url = cfg.WebsocketURL
		}
		client, err := augmentos.Dial(ctx, augmentos.Config{
			WebsocketURL:     url,
			PackageName:      cfg.PackageName,
			APIKey:           cfg.APIKey,
			HandshakeTimeout: cfg.HandshakeTimeout,
		}, req.SessionID, sugar)
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	manager := session.NewManager(ctx, dial, session.Options{
		Images:      images,
		WelcomeText: cfg.WelcomeText,
	}, sugar)

	srv := webhook.New(webhook.Config{
		BindAddr:    cfg.Addr(),
		Path:        cfg.WebhookPath,
		PackageName: cfg.PackageName,
	}, manager, sugar)
	if err := srv.Start(ctx); err != nil {
		sugar.Errorw("Failed to start webhook server", "error", err)
		return
	}

	<-ctx.Done()
	sugar.Infow("Shutting down", "sessions", manager.Len())

	shutdownCtx, cancel := context.WithTimeoutCause(context.Background(), 5*time.Second, errors.New("shutdown timeout"))
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		sugar.Warnw("Webhook server stop error", "error", err)
	}
	manager.Shutdown()
	sugar.Infow("Stopped")
}
