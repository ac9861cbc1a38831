package main

import (
	"context"
	"os"

	"github.com/example/linguamem/internal/bot"
	"github.com/example/linguamem/internal/clock"
	"github.com/example/linguamem/internal/config"
	"github.com/example/linguamem/internal/database"
	"github.com/example/linguamem/internal/lessoncontext"
	"github.com/example/linguamem/internal/logger"
	"github.com/example/linguamem/internal/recorder"
	"github.com/example/linguamem/internal/scheduler"
	"github.com/example/linguamem/internal/tracing"
	"github.com/example/linguamem/internal/transfer"
)

// app holds the wired components shared by every command
type app struct {
	cfg      *config.Config
	store    *database.Store
	engine   *transfer.Engine
	builder  *lessoncontext.Builder
	recorder *recorder.Recorder

	shutdownTracing func(context.Context) error
}

func loadApp(ctx context.Context, envFile string) (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	a := &app{cfg: cfg}
	if cfg.TraceStdout {
		shutdown, err := tracing.Setup(os.Stderr)
		if err != nil {
			return nil, err
		}
		a.shutdownTracing = shutdown
	}

	families := transfer.DefaultFamilies()
	if cfg.LanguageFamiliesFile != "" {
		families, err = transfer.LoadFamilies(cfg.LanguageFamiliesFile)
		if err != nil {
			return nil, err
		}
		logger.Infof(ctx, "Loaded %d language families from %s", len(families), cfg.LanguageFamiliesFile)
	}
	a.engine, err = transfer.NewEngine(families)
	if err != nil {
		return nil, err
	}

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	clk := clock.SystemClock{}
	a.store = database.NewStore(db, clk)

	a.builder, err = lessoncontext.NewBuilder(lessoncontext.PortsFrom(a.store), a.engine, clk, cfg.Limits)
	if err != nil {
		a.store.Close()
		return nil, err
	}
	a.recorder = recorder.New(a.store, clk)
	return a, nil
}

// language validates a code and maps it to the ISO 639-3 code rows are stored under
func (a *app) language(code string) (string, error) {
	normalized, err := lessoncontext.NormalizeLanguageCode(code)
	if err != nil {
		return "", err
	}
	return a.engine.Canonical(normalized), nil
}

// notifier sends reminders through Telegram when a token is configured
func (a *app) notifier(ctx context.Context) (scheduler.Notifier, error) {
	if a.cfg.TelegramToken == "" {
		logger.Infof(ctx, "TELEGRAM_BOT_TOKEN is not set, reminders will only be logged")
		return bot.LogNotifier{}, nil
	}
	return bot.NewTelegramNotifier(a.cfg.TelegramToken)
}

func (a *app) close(ctx context.Context) {
	if err := a.store.Close(); err != nil {
		logger.Errorf(ctx, "Error closing database: %v", err)
	}
	if a.shutdownTracing != nil {
		if err := a.shutdownTracing(ctx); err != nil {
			logger.Errorf(ctx, "Error flushing traces: %v", err)
		}
	}
}
