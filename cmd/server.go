package cmd

import (
	"context"
	"log"
	httpNet "net/http"
	"os"
	"os/signal"
	"syscall"

	"golang-stock-tracker/internal/delivery/http"
	"golang-stock-tracker/internal/delivery/telegram"
	"golang-stock-tracker/internal/repository"
	"golang-stock-tracker/internal/service"
	"golang-stock-tracker/pkg/logger"

	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the stock tracker API, scheduler and notifier",
	Run:   Start,
}

func Start(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appDep, err := NewAppDependency(ctx)
	if err != nil {
		log.Fatalf("Failed to create app dependency: %v", err)
	}

	repo, err := repository.NewRepository(ctx, appDep.cfg, appDep.db.DB, appDep.log)
	if err != nil {
		log.Fatalf("Failed to create repository: %v", err)
	}

	services := service.NewService(
		appDep.cfg,
		appDep.log,
		repo,
		appDep.cache,
		appDep.telegram,
	)

	// Workers outlive the signal context so queued notifications drain on shutdown.
	services.NotificationService.Start(context.WithoutCancel(ctx))
	if appDep.telegram != nil {
		appDep.telegram.StartCleanupExpired(ctx)
	}
	if err := services.SchedulerService.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	httpHandler := http.NewHttpAPIHandler(ctx, appDep.cfg, appDep.log, appDep.echo, appDep.validator, services, appDep.db)
	apiServer := NewHTTPServer(ctx, appDep, httpHandler)
	go func() {
		if err := apiServer.Start(); err != nil && err != httpNet.ErrServerClosed {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	var telegramHandler *telegram.TelegramBotHandler
	if appDep.telegramBot != nil && appDep.cfg.Telegram.Polling {
		telegramHandler = telegram.NewTelegramBotHandler(ctx, appDep.cfg, appDep.log, appDep.telegramBot, appDep.telegram, services)
		go telegramHandler.Start()
	}

	<-ctx.Done()
	appDep.log.Info("Shutting down gracefully...")

	if telegramHandler != nil {
		telegramHandler.Stop()
	}

	if err := apiServer.Stop(); err != nil {
		appDep.log.Error("Failed to stop HTTP server", logger.ErrorField(err))
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), appDep.cfg.API.ShutdownTimeout)
	services.SchedulerService.Stop(stopCtx)
	cancel()
	services.NotificationService.Stop()
	if appDep.telegram != nil {
		appDep.telegram.StopCleanupExpired()
	}

	if err := appDep.Close(); err != nil {
		log.Fatalf("Failed to close app dependency: %v", err)
	}
}
