package cmd

import (
	"context"
	"reflect"
	"strings"

	"golang-stock-tracker/config"
	"golang-stock-tracker/pkg/cache"
	"golang-stock-tracker/pkg/logger"
	"golang-stock-tracker/pkg/postgres"
	"golang-stock-tracker/pkg/telegram"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gopkg.in/telebot.v3"
)

type AppDependency struct {
	db          *postgres.DB
	cfg         *config.Config
	log         *logger.Logger
	validator   *goValidator.Validate
	echo        *echo.Echo
	cache       cache.Cache
	telegram    *telegram.TelegramRateLimiter
	telegramBot *telebot.Bot
}

func newValidator() *goValidator.Validate {
	v := goValidator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

func NewAppDependency(ctx context.Context) (*AppDependency, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return nil, err
	}

	var (
		bot            *telebot.Bot
		telegramClient *telegram.TelegramRateLimiter
	)
	if cfg.Telegram.Enabled {
		bot, err = telegram.NewBot(&cfg.Telegram, log)
		if err != nil {
			log.Error("Failed to create telegram bot", zap.Error(err))
			return nil, err
		}
		telegramClient = telegram.NewTelegramRateLimiter(&cfg.Telegram, log, bot)

		// Error entries marked for alerting are forwarded to the ops chat.
		log, err = logger.NewWithAlert(cfg.Log.Level, cfg.Log.Encoding, telegramClient)
		if err != nil {
			return nil, err
		}
	}

	db, err := postgres.NewDB(cfg.DB, log)
	if err != nil {
		log.Error("Failed to connect to database", zap.Error(err))
		return nil, err
	}

	return &AppDependency{
		cfg:         cfg,
		log:         log,
		validator:   newValidator(),
		db:          db,
		echo:        echo.New(),
		cache:       cache.NewCache(cfg.Cache.DefaultExpiration, cfg.Cache.CleanupInterval),
		telegram:    telegramClient,
		telegramBot: bot,
	}, nil
}

func (d *AppDependency) Close() error {
	d.log.Info("Closing app dependency")
	_ = d.log.Sync()
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}
