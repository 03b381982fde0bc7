// Package server boots the whole application: config, logging sinks,
// database, cache, storage, queue workers, the scheduler, the Telegram
// bot, the gRPC health server, and the HTTP admin API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/shashiranjanraj/dulceria/app/controllers"
	"github.com/shashiranjanraj/dulceria/app/jobs"
	"github.com/shashiranjanraj/dulceria/app/models"
	"github.com/shashiranjanraj/dulceria/app/repositories"
	"github.com/shashiranjanraj/dulceria/app/routes"
	"github.com/shashiranjanraj/dulceria/app/services"
	"github.com/shashiranjanraj/dulceria/config"
	"github.com/shashiranjanraj/dulceria/internal/bot"
	"github.com/shashiranjanraj/dulceria/internal/telegram"
	"github.com/shashiranjanraj/dulceria/pkg/cache"
	"github.com/shashiranjanraj/dulceria/pkg/database"
	"github.com/shashiranjanraj/dulceria/pkg/event"
	pkggrpc "github.com/shashiranjanraj/dulceria/pkg/grpc"
	"github.com/shashiranjanraj/dulceria/pkg/logger"
	"github.com/shashiranjanraj/dulceria/pkg/notification"
	"github.com/shashiranjanraj/dulceria/pkg/queue"
	"github.com/shashiranjanraj/dulceria/pkg/router"
	"github.com/shashiranjanraj/dulceria/pkg/schedule"
	"github.com/shashiranjanraj/dulceria/pkg/storage"
	"github.com/shashiranjanraj/dulceria/pkg/workerpool"
	"github.com/shashiranjanraj/dulceria/pkg/ws"
)

const (
	queueWorkers = 4
	botPoolSize  = 16
)

// Run boots everything and blocks until SIGINT/SIGTERM.
func Run() error {
	if err := config.Load(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional Mongo log sink, fanned out next to the console handler.
	var mongoSink *logger.MongoHandler
	if uri := config.MongoLogURI(); uri != "" {
		h, err := logger.NewMongoHandler(uri, "dulceria", "logs")
		if err != nil {
			logger.Warn("mongo log sink unavailable", "error", err)
		} else {
			mongoSink = h
			logger.UseHandler(logger.NewMultiHandler(logger.L.Handler(), h))
		}
	}
	defer func() {
		if mongoSink != nil {
			mongoSink.Close()
		}
	}()

	if err := database.Connect(); err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := cache.Connect(); err != nil {
		logger.Warn("redis unavailable, caching disabled", "error", err)
	}
	storage.Connect()

	// Repositories and services.
	productRepo := repositories.NewProductRepository(database.DB)
	orderRepo := repositories.NewOrderRepository(database.DB)
	adminRepo := repositories.NewAdminRepository(database.DB)

	cartSvc := services.NewCartService(productRepo)
	orderSvc := services.NewOrderService(cartSvc, orderRepo)
	checkoutSvc := services.NewCheckoutService(cartSvc, orderSvc)
	assistantSvc := services.NewAssistantService(services.NewGeminiClient(), productRepo)

	// Queue: Redis-backed when available, in-memory otherwise.
	if cache.RDB != nil {
		queue.SetDriver(queue.NewRedisDriver(cache.RDB))
	}
	jobs.Configure(orderRepo)
	jobs.RegisterAll()
	queue.StartWorkers(ctx, queueWorkers)

	// Telegram delivery for admin notifications.
	tg := telegram.NewClient(config.TelegramToken())
	notification.SetTelegramSender(func(chatID int64, text string) error {
		sendCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, err := tg.SendText(sendCtx, chatID, text)
		return err
	})
	if hook := config.Get("SLACK_WEBHOOK_URL", ""); hook != "" {
		notification.SetSlackWebhook(hook)
	}

	// Order events feed the admin websocket and the notification queue.
	orderHub := ws.NewHub()
	go orderHub.Run()
	registerOrderListeners(orderHub)

	// Daily digest of unconfirmed orders, 8am shop time.
	schedule.Cron("0 8 * * *").Name("daily-digest").WithoutOverlapping().Run(func() {
		if err := queue.Dispatch(jobs.DailyDigestJob{}); err != nil {
			logger.Error("schedule: digest dispatch failed", "error", err)
		}
	})
	go schedule.Start(ctx)

	// gRPC health endpoint for orchestration probes.
	if port := config.GRPCPort(); port != "" {
		srv, _, err := pkggrpc.Start(port)
		if err != nil {
			return fmt.Errorf("start grpc: %w", err)
		}
		defer pkggrpc.Stop(srv)
	}

	// The bot is the customer storefront.
	pool := workerpool.New(botPoolSize)
	defer pool.Shutdown()
	if config.TelegramToken() != "" {
		storefront := bot.New(bot.Deps{
			API:       tg,
			Products:  productRepo,
			Cart:      cartSvc,
			Checkout:  checkoutSvc,
			Orders:    orderSvc,
			Assistant: assistantSvc,
			Pool:      pool,
		})
		go storefront.Run(ctx)
	} else {
		logger.Warn("TELEGRAM_TOKEN not set, bot disabled")
	}

	// HTTP admin API.
	graphqlCtl, err := controllers.NewGraphQLController(productRepo, orderSvc)
	if err != nil {
		return fmt.Errorf("build graphql schema: %w", err)
	}

	r := router.New()
	routes.Register(r, routes.Controllers{
		Auth:     controllers.NewAuthController(adminRepo),
		Products: controllers.NewProductController(productRepo),
		Orders:   controllers.NewOrderController(orderSvc, orderRepo),
		GraphQL:  graphqlCtl,
		OrderHub: orderHub,
	})

	// Locally stored product images are served straight off the disk root.
	if config.StorageDefault() == "local" {
		fs := http.StripPrefix("/storage/", http.FileServer(http.Dir(config.StorageLocalRoot())))
		r.Handle("/storage/*", "storage.files", fs)
	}

	httpSrv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", httpSrv.Addr, "env", config.AppEnv())
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	return nil
}

// registerOrderListeners pushes order lifecycle events to the admin feed
// and queues the new-order notification.
func registerOrderListeners(hub *ws.Hub) {
	event.Listen(services.EventOrderCreated, func(payload interface{}) {
		order, ok := payload.(models.Order)
		if !ok {
			return
		}
		if err := queue.Dispatch(jobs.NotifyAdminsJob{OrderID: order.ID}); err != nil {
			logger.Error("order created: notify dispatch failed", "order_id", order.ID, "error", err)
		}
		hub.BroadcastJSON(map[string]interface{}{
			"event": services.EventOrderCreated,
			"order": order,
		})
	})

	event.Listen(services.EventOrderStatusChanged, func(payload interface{}) {
		order, ok := payload.(models.Order)
		if !ok {
			return
		}
		hub.BroadcastJSON(map[string]interface{}{
			"event": services.EventOrderStatusChanged,
			"order": order,
		})
	})
}
