// Package cmd wires configuration, storage, providers and transports into
// the tasteit process.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"tasteit/internal/bot"
	"tasteit/internal/config"
	"tasteit/internal/console"
	"tasteit/internal/db"
	"tasteit/internal/dispatch"
	"tasteit/internal/model"
	"tasteit/internal/observability"
	"tasteit/internal/places"
	"tasteit/internal/telegram"
)

var (
	dbPath      string
	driverFlag  string
	consoleMode bool
	devMode     bool
	logFile     string
	groupChat   bool
)

const shutdownTimeout = 10 * time.Second

// NewRootCmd builds the top-level command.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "tasteit",
		Short:         "Telegram bot that finds restaurants near you",
		Long:          "tasteit finds restaurants around a place, keeps favorite lists per chat and starts group polls.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cmd, version)
		},
	}
	root.Flags().StringVarP(&dbPath, "db", "d", "", "SQLite database path (default: $DB_PATH or ~/.tasteit/tasteit.db)")
	root.Flags().StringVar(&driverFlag, "driver", "", "Database driver: sqlite or postgres (default: $DB_DRIVER)")
	root.Flags().BoolVar(&consoleMode, "console", false, "Chat with the bot in this terminal instead of Telegram")
	root.Flags().BoolVar(&devMode, "dev", false, "Use TELEGRAM_DEV_TOKEN")
	root.Flags().StringVar(&logFile, "log-file", "", "Log file in console mode (default: ~/.tasteit/tasteit.log)")
	root.Flags().BoolVar(&groupChat, "group", false, "Console chat behaves as a group chat")
	return root
}

// Execute runs the root command.
func Execute(version string) error {
	return NewRootCmd(version).Execute()
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("db") {
		cfg.Database.Path = dbPath
	}
	if cmd.Flags().Changed("driver") {
		cfg.Database.Driver = driverFlag
	}
	if cmd.Flags().Changed("log-file") {
		cfg.Logging.File = logFile
	}
	cfg.Console = consoleMode
	cfg.Dev = cfg.Dev || devMode

	if cfg.Console {
		if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			return nil, errors.New("--console needs an interactive terminal")
		}
		if cfg.Places.APIKey == "" {
			key, err := resolveGoogleKey(cfg.HomeDir)
			if err != nil {
				return nil, err
			}
			cfg.Places.APIKey = key
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cmd *cobra.Command, version string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.HomeDir, 0700); err != nil {
		return fmt.Errorf("failed to create home directory: %w", err)
	}
	var out io.Writer = os.Stdout
	if cfg.Console {
		f, err := os.OpenFile(cfg.LogFile(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	logger := observability.New(observability.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: out,
	})
	logger.Info("starting tasteit", "version", version, "console", cfg.Console, "driver", cfg.Database.Driver)

	if cfg.Database.Driver == config.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath()), 0700); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	store, err := db.Open(ctx, db.Options{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.DSN(),
		MaxOpenConns:       cfg.Database.MaxConnections,
		MaxIdleConns:       cfg.Database.MaxIdleConnections,
		DefaultWalkRadius:  cfg.Bot.DefaultWalkRadius,
		DefaultDriveRadius: cfg.Bot.DefaultDriveRadius,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	provider, err := places.NewClient(places.Options{
		APIKey:    cfg.Places.APIKey,
		BaseURL:   cfg.Places.APIBase,
		Timeout:   time.Duration(cfg.Places.Timeout) * time.Second,
		CacheSize: cfg.Places.GeocodeCacheSize,
		Retries:   3,
		Logger:    logger.With("component", "places"),
	})
	if err != nil {
		return fmt.Errorf("failed to create places client: %w", err)
	}

	var (
		client    *telegram.Client
		reporter  bot.Reporter
		transport dispatch.Transport
		term      *console.Transport
	)
	if cfg.Console {
		term = console.NewTransport()
		transport = term
		reporter = bot.ReporterFunc(func(_ context.Context, in bot.Incident) {
			logger.Error("incident", "id", in.ID, "chat_id", in.ChatID, "flow", in.Flow, "op", in.Op, "error", in.Err)
		})
	} else {
		client = telegram.NewClient(telegram.Options{
			Token:  cfg.BotToken(),
			Logger: logger.With("component", "telegram"),
		})
		transport = telegram.NewTransport(client)
		reporter = telegram.NewReporter(client, cfg.Telegram.OperatorChatID, logger)
	}

	engine := bot.New(bot.Options{
		Places:             provider,
		Repo:               store,
		Reporter:           reporter,
		Logger:             logger,
		DefaultLanguage:    cfg.Bot.DefaultLanguage,
		DefaultWalkRadius:  cfg.Bot.DefaultWalkRadius,
		DefaultDriveRadius: cfg.Bot.DefaultDriveRadius,
		PollDuration:       time.Duration(cfg.Bot.PollDuration) * time.Second,
		TravelConcurrency:  4,
	})
	dispatcher := dispatch.New(dispatch.Options{
		Engine:      engine,
		Transport:   transport,
		FlowTimeout: time.Duration(cfg.Bot.FlowTimeout) * time.Second,
		Logger:      logger.With("component", "dispatch"),
	})
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := dispatcher.Shutdown(shutdownCtx); err != nil {
			logger.Warn("dispatcher shutdown", "error", err)
		}
	}()

	switch {
	case cfg.Console:
		kind := model.ChatPrivate
		if groupChat {
			kind = model.ChatGroup
		}
		return console.Run(ctx, term, console.Options{
			Sink:     dispatcher,
			ChatKind: kind,
			Language: cfg.Bot.DefaultLanguage,
		})
	case cfg.Telegram.Mode == config.ModeWebhook:
		return serveWebhook(ctx, cfg, client, dispatcher, version, logger)
	default:
		logger.Info("polling for updates")
		return telegram.NewPoller(client, dispatcher, 30*time.Second, logger.With("component", "poller")).Run(ctx)
	}
}

func serveWebhook(ctx context.Context, cfg *config.Config, client *telegram.Client, sink telegram.Sink, version string, logger *slog.Logger) error {
	gin.SetMode(cfg.Server.GinMode)
	if err := client.SetWebhook(ctx, cfg.Telegram.WebhookURL+telegram.WebhookPath, cfg.Telegram.WebhookSecret); err != nil {
		return fmt.Errorf("failed to register webhook: %w", err)
	}
	srv := telegram.NewServer(telegram.ServerOptions{
		Addr:           cfg.ServerAddr(),
		Secret:         cfg.Telegram.WebhookSecret,
		AllowedOrigins: telegram.ParseOrigins(cfg.Server.AllowedOrigins),
		Version:        version,
		Client:         client,
		Sink:           sink,
		Logger:         logger.With("component", "webhook"),
	})
	return srv.Run(ctx)
}
