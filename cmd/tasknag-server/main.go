package main

import (
	"context"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tray3forse/tasknag/internal/command"
	contactrepo "github.com/tray3forse/tasknag/internal/contact/repositoryimpl"
	"github.com/tray3forse/tasknag/internal/config"
	"github.com/tray3forse/tasknag/internal/eventbus"
	"github.com/tray3forse/tasknag/internal/linebot"
	pushsubrepo "github.com/tray3forse/tasknag/internal/pushsubscription/repositoryimpl"
	"github.com/tray3forse/tasknag/internal/reminder"
	"github.com/tray3forse/tasknag/internal/sweep"
	taskrepo "github.com/tray3forse/tasknag/internal/task/repositoryimpl"
	"github.com/tray3forse/tasknag/internal/webapi"
	"github.com/tray3forse/tasknag/internal/webpush"
	"github.com/tray3forse/tasknag/pkg/clog"
	"github.com/tray3forse/tasknag/pkg/storage"

	server "github.com/tray3forse/tasknag/internal"
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewHTTPTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	// Setup storage
	var store storage.Storage
	switch env.StorageEnv.Type {
	case "s3":
		store, err = storage.NewS3Storage(context.Background(), env.StorageEnv.S3Bucket, env.StorageEnv.S3Prefix, env.StorageEnv.S3Region)
		if err != nil {
			slog.Error("failed to create S3 storage", "error", err)
			os.Exit(1)
		}
	default:
		store, err = storage.NewLocalStorage(env.StorageEnv.BaseDir)
		if err != nil {
			slog.Error("failed to create local storage", "error", err)
			os.Exit(1)
		}
	}

	loc, err := env.ReminderEnv.Location()
	if err != nil {
		slog.Error("failed to resolve timezone", "error", err)
		os.Exit(1)
	}

	// Setup event bus
	bus := eventbus.New()

	// Setup repositories
	taskRepo := taskrepo.NewYAMLRepository(store)
	contactRepo := contactrepo.NewYAMLRepository(store)
	pushSubRepo := pushsubrepo.NewYAMLRepository(store)

	// Setup LINE messaging
	lineClient, err := linebot.NewClient(config.LINEEnvFromEnv(env))
	if err != nil {
		slog.Error("failed to create LINE client", "error", err)
		os.Exit(1)
	}

	// Setup reminder pipeline
	classifier := reminder.NewClassifier(loc, env.ReminderEnv.NearWindow)
	selector := reminder.NewSelector(rand.New(rand.NewSource(time.Now().UnixNano())))
	evaluator := reminder.NewEvaluator(classifier, selector, lineClient, taskRepo, bus)

	// Setup chat command handling
	cmdHandler := command.NewHandler(taskRepo, contactRepo, evaluator, lineClient, bus)
	webhookHandler := linebot.NewWebhookHandler(config.LINEEnvFromEnv(env), cmdHandler)

	// Setup browser push mirror
	vapidEnv := config.VAPIDEnvFromEnv(env)
	pushSender := webpush.NewSender(vapidEnv, pushSubRepo)
	pushDispatcher := webpush.NewDispatcher(bus, pushSender)

	apiServer := webapi.NewServer(taskRepo, pushSubRepo, bus)
	srv := server.NewServer(env, webhookHandler, apiServer)

	// Setup sweep
	driver := sweep.NewDriver(taskRepo, evaluator)
	scheduler := sweep.NewTickerScheduler(loc)

	// Graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	go pushDispatcher.Start(ctx)
	go driver.Start(ctx, scheduler, &env.ReminderEnv)

	go func() {
		if err := srv.ListenAndServe(ctx); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
