// Package userservice assembles the HTTP backend: storage, caches, the
// notification broker, external providers and the router.
package userservice

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/daon-labs/user-subscription-backend/internal/cache"
	"github.com/daon-labs/user-subscription-backend/internal/config"
	"github.com/daon-labs/user-subscription-backend/internal/googleoauth"
	"github.com/daon-labs/user-subscription-backend/internal/lib/jwt"
	"github.com/daon-labs/user-subscription-backend/internal/migrations"
	"github.com/daon-labs/user-subscription-backend/internal/rabbitmq"
	"github.com/daon-labs/user-subscription-backend/internal/smsprovider"
	"github.com/daon-labs/user-subscription-backend/internal/storage"

	authservice "github.com/daon-labs/user-subscription-backend/internal/services/auth"
	subscriptionservice "github.com/daon-labs/user-subscription-backend/internal/services/subscription"
	verificationservice "github.com/daon-labs/user-subscription-backend/internal/services/verification"
)

type App struct {
	server        *http.Server
	logger        *slog.Logger
	db            *storage.Storage
	broker        *amqp.Connection
	ch            *amqp.Channel
	subscriptions *subscriptionservice.Service
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(cfg.StorageConnectionString, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	brokerConn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(brokerConn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = brokerConn.Close()
		return nil, err
	}
	publisher := rabbitmq.NewPublisher(ch)

	smsClient := smsprovider.NewClient(cfg.AccountSID, cfg.AuthToken, cfg.FromNumber)
	googleClient := googleoauth.NewClient(cfg.ClientID, cfg.ClientSecret, cfg.RedirectURI)
	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.AccessTTL, cfg.RefreshTTL)

	verificationService := verificationservice.New(cacheRedis, smsClient, logger)
	authService := authservice.New(db, cacheRedis, verificationService, googleClient,
		jwtMaker, cfg.RefreshTTL, logger)
	subscriptionService := subscriptionservice.New(db, publisher, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, authService, verificationService, subscriptionService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:        srv,
		logger:        logger,
		db:            db,
		broker:        brokerConn,
		ch:            ch,
		subscriptions: subscriptionService,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	go a.subscriptions.RunRenewals(ctx, 12*time.Hour)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.ch.Close(); closeErr != nil {
			a.logger.Error("failed to close broker channel", slog.Any("err", closeErr))
		}
		if closeErr := a.broker.Close(); closeErr != nil {
			a.logger.Error("failed to close broker connection", slog.Any("err", closeErr))
		}
		a.db.Close()
		return err
	}
}
