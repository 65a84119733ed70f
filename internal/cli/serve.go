package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"expenses/internal/amqp"
	"expenses/internal/auth"
	"expenses/internal/cache"
	apphttp "expenses/internal/http"
	"expenses/internal/log"
	"expenses/internal/services"
)

const userCacheSize = 1024

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

// serve runs the API until ctx is done, then drains in-flight requests
// within the configured shutdown timeout.
func (a *app) serve(ctx context.Context) error {
	repo, err := OpenRepository(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer repo.Close()

	g, gctx := errgroup.WithContext(ctx)

	var publisher services.EventPublisher
	if a.cfg.AMQPURL != "" {
		client := a.connectEvents(gctx, g)
		defer client.Close()
		publisher = client
	}

	tokens := auth.NewTokens(a.cfg.JWTSecret, a.cfg.JWTIssuer, a.cfg.TokenTTL)
	authSvc := auth.NewService(repo, tokens, a.logger)
	if ttl := a.cfg.AuthCacheTTL; ttl > 0 {
		known := cache.NewLRUCache[struct{}](userCacheSize, ttl)
		authSvc.WithUserCache(known)
		g.Go(func() error {
			return cache.NewJanitor(a.logger, known).Run(gctx, ttl)
		})
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:       ":" + a.cfg.Port,
		Categories: services.NewCategoryService(repo, publisher, a.logger),
		Expenses:   services.NewExpenseService(repo, publisher, a.logger),
		Auth:       authSvc,
		DB:         repo,
		Logger:     a.logger,
		RateLimit:  a.cfg.RateLimit,
	})

	g.Go(func() error {
		a.logger.Info("Starting expenses server",
			log.FieldOperation, log.OpStartup,
			"port", a.cfg.Port,
			"driver", a.cfg.DBDriver,
			"events", publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
	return nil
}

// connectEvents dials the broker. When it is down the client starts
// disconnected and keeps retrying in the background; the API serves
// regardless, since change events are best-effort.
func (a *app) connectEvents(ctx context.Context, g *errgroup.Group) *amqp.Client {
	client, err := amqp.NewClient(a.cfg.AMQPURL, a.cfg.AMQPExchange, a.logger)
	if err == nil {
		a.logger.Info("Connected to AMQP broker", "exchange", a.cfg.AMQPExchange)
		return client
	}

	a.logger.Warn("AMQP broker unavailable, retrying in background",
		log.FieldError, err.Error(),
		"exchange", a.cfg.AMQPExchange)
	client = amqp.NewDisconnected(a.cfg.AMQPURL, a.cfg.AMQPExchange, a.logger)
	g.Go(func() error {
		if err := client.Reconnect(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn("AMQP reconnect abandoned", log.FieldError, err.Error())
		}
		return nil
	})
	return client
}
