package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/tutor_market/internal/app"
	"github.com/Freeeeeet/tutor_market/internal/config"
	"github.com/Freeeeeet/tutor_market/internal/controller"
	"github.com/Freeeeeet/tutor_market/internal/controller/handlers"
	"github.com/Freeeeeet/tutor_market/internal/controller/state"
	"github.com/Freeeeeet/tutor_market/internal/notify"
	"github.com/Freeeeeet/tutor_market/internal/repository"
	"github.com/Freeeeeet/tutor_market/internal/repository/memory"
	"github.com/Freeeeeet/tutor_market/internal/service"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		envFile     string
		migrateOnly bool
	)

	flagSet := pflag.NewFlagSet("tutor-market-bot", pflag.ContinueOnError)
	flagSet.StringVar(&envFile, "env-file", ".env", "path to env file, skipped when missing")
	flagSet.BoolVar(&migrateOnly, "migrate-only", false, "apply database migrations and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		fmt.Fprintln(os.Stderr, "Usage: bot [flags]")
		flagSet.PrintDefaults()
		return nil
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := app.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("Starting tutor market bot",
		zap.String("storage", cfg.StorageDriver),
		zap.Bool("env_file_loaded", cfg.EnvFileLoaded),
		zap.Bool("bot_enabled", cfg.BotEnabled()),
		zap.Bool("publishing_enabled", cfg.PublishingEnabled()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	if migrateOnly {
		logger.Info("Migrations applied, exiting")
		return nil
	}

	capacityService := service.NewCapacityService(store, logger)
	userService := service.NewUserService(store, logger)

	// Подписчики событий бронирований
	var publishers notify.Multi

	if cfg.PublishingEnabled() {
		rdb, err := notify.NewRedisClient(ctx, cfg.RedisAddr, logger)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()
		publishers = append(publishers, notify.NewRedisPublisher(rdb, cfg.RedisChannel, logger))
	}

	var botInstance *bot.Bot
	if cfg.BotEnabled() {
		botInstance, err = bot.New(cfg.TelegramToken)
		if err != nil {
			return fmt.Errorf("create bot: %w", err)
		}
		publishers = append(publishers, handlers.NewNotifier(botInstance, userService, logger))
	}

	postService := service.NewPostService(store, capacityService, time.Now, logger)
	bookingService := service.NewBookingService(store, capacityService, publishers, time.Now, logger)
	reviewService := service.NewReviewService(store, logger)

	reconciler := app.NewReconciler(capacityService, cfg.ReconcileInterval, logger)
	reconciler.Start(ctx)
	defer reconciler.Stop()

	if botInstance == nil {
		logger.Warn("TELEGRAM_TOKEN is empty, running only the capacity reconciler")
		<-ctx.Done()
		logger.Info("Shutting down")
		return nil
	}

	cmdHandlers := handlers.NewHandlers(
		userService,
		postService,
		bookingService,
		reviewService,
		capacityService,
		state.NewManager(),
		time.Now,
		logger,
	)

	botController := controller.NewBotController(botInstance, cmdHandlers, logger)
	if err := botController.RegisterHandlers(ctx); err != nil {
		logger.Warn("Bot commands menu not set", zap.Error(err))
	}

	if err := botController.Start(ctx); err != nil {
		return fmt.Errorf("run bot: %w", err)
	}

	logger.Info("Shutting down")
	return nil
}

// openStore открывает хранилище и применяет миграции для PostgreSQL
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Store, func(), error) {
	if cfg.StorageDriver == config.DriverMemory {
		logger.Warn("Using in-memory storage, data is lost on restart")
		return memory.NewStore(time.Now), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	migrator, err := app.NewMigrator(pool, logger)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("create migrator: %w", err)
	}
	defer migrator.Close()

	if err := migrator.Run(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	return repository.NewPgStore(pool), pool.Close, nil
}
