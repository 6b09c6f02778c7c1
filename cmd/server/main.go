package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/xaenox/docdesk/internal/assistant"
	"github.com/xaenox/docdesk/internal/auth"
	"github.com/xaenox/docdesk/internal/bot"
	"github.com/xaenox/docdesk/internal/chat"
	"github.com/xaenox/docdesk/internal/classifier"
	"github.com/xaenox/docdesk/internal/documents"
	"github.com/xaenox/docdesk/internal/httpapi"
	"github.com/xaenox/docdesk/internal/leads"
	"github.com/xaenox/docdesk/internal/metrics"
	"github.com/xaenox/docdesk/internal/notify"
	"github.com/xaenox/docdesk/internal/storage"
	"github.com/xaenox/docdesk/pkg/config"
	"go.uber.org/zap"
)

func newLogger(development bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if development {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return logger
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		zap.NewExample().Fatal("Failed to load config", zap.Error(err), zap.String("path", *configPath))
	}

	// Initialize logger
	logger := newLogger(cfg.Log.Development)
	defer logger.Sync()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			logger.Error("Failed to initialize Sentry", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	var store storage.Storage
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory storage")
		store = storage.NewMemoryStorage()
	} else {
		logger.Info("Using PostgreSQL storage")
		dbConfig := storage.DatabaseConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		}
		store, err = storage.NewPostgresStorage(dbConfig, logger)
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
	}
	defer store.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	ai := assistant.NewOpenAIAssistant(assistant.Config{
		APIKey:      cfg.OpenAI.APIKey,
		Model:       cfg.OpenAI.Model,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Temperature: cfg.OpenAI.Temperature,
	}, logger)

	authSvc := auth.NewService(store, auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), cfg.Auth.AdminEmails, logger)
	docSvc := documents.NewService(store, cfg.Documents.MaxSize, m, logger)
	chatSvc := chat.NewService(store, ai, classifier.New(classifier.DefaultRules(), cfg.Classifier.LongConversation), m, logger)
	leadSvc := leads.NewService(store, leads.Config{
		MineLimit:   cfg.Leads.MineLimit,
		PageSize:    cfg.Leads.PageSize,
		MaxPageSize: cfg.Leads.MaxPageSize,
	}, m, logger)

	if cfg.SMTP.Host != "" {
		leadSvc.AddNotifier(notify.NewEmail(notify.EmailConfig{
			Host:             cfg.SMTP.Host,
			Port:             cfg.SMTP.Port,
			Username:         cfg.SMTP.Username,
			Password:         cfg.SMTP.Password,
			From:             cfg.SMTP.From,
			SalesTo:          cfg.SMTP.SalesTo,
			SendConfirmation: cfg.SMTP.SendConfirmation,
		}))
		logger.Info("Email notifications enabled", zap.String("host", cfg.SMTP.Host))
	}

	if len(cfg.Kafka.Brokers) > 0 {
		crm := notify.NewCRM(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer crm.Close()
		leadSvc.AddNotifier(crm)
		logger.Info("CRM events enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	if cfg.Telegram.Token != "" {
		b, err := bot.New(bot.Config{
			Token:           cfg.Telegram.Token,
			SalesChatID:     cfg.Telegram.SalesChatID,
			OperatorChatIDs: cfg.Telegram.OperatorChatIDs,
		}, leadSvc, logger)
		if err != nil {
			logger.Fatal("Failed to create bot", zap.Error(err))
		}
		leadSvc.AddNotifier(b)
		go func() {
			if err := b.Start(ctx); err != nil {
				logger.Error("Bot error", zap.Error(err))
			}
		}()
	}

	handler := httpapi.NewHandler(authSvc, docSvc, chatSvc, leadSvc, m, logger)
	handler.LimitAuth(cfg.Server.AuthRatePerMinute, cfg.Server.AuthBurst)
	srv := httpapi.NewHTTPServer(httpapi.ServerConfig{
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}, handler.Router(registry))

	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}
