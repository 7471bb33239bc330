package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MartinusAaD/maad-makes-orders/internal/adapter/logger"
	"github.com/MartinusAaD/maad-makes-orders/internal/adapter/postgres"
	"github.com/MartinusAaD/maad-makes-orders/internal/adapter/rabbitmq"
	"github.com/MartinusAaD/maad-makes-orders/internal/app/cart"
	"github.com/MartinusAaD/maad-makes-orders/internal/app/inventory"
	"github.com/MartinusAaD/maad-makes-orders/internal/app/order"
	"github.com/MartinusAaD/maad-makes-orders/internal/app/ratelimit"
	"github.com/MartinusAaD/maad-makes-orders/internal/app/sequence"
	"github.com/MartinusAaD/maad-makes-orders/internal/config"

	amqpAdapter "github.com/MartinusAaD/maad-makes-orders/internal/adapter/amqp"
	httpAdapter "github.com/MartinusAaD/maad-makes-orders/internal/adapter/http"
)

func main() {
	mode := flag.String("mode", "", "Service mode: order-service, notification-subscriber")
	port := flag.Int("port", 3000, "HTTP port")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	prefetch := flag.Int("prefetch", 1, "RabbitMQ prefetch count")
	flag.Parse()

	if *mode == "" {
		log.Fatal("--mode flag is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	lgr := logger.New(*mode)

	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer mqConn.Close()

	lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
		"host": cfg.RabbitMQ.Host,
	})

	switch *mode {
	case "order-service":
		db, err := postgres.Connect(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		defer db.Close()

		lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
			"host": cfg.Database.Host,
			"db":   cfg.Database.Database,
		})

		runOrderService(db, mqConn, lgr, cfg, *port)

	case "notification-subscriber":
		runNotificationSubscriber(ctx, mqConn, lgr, *prefetch)

	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}
}

func runOrderService(db postgres.DB, mqConn rabbitmq.Connection, lgr logger.Logger, cfg *config.Config, port int) {
	orderRepo := postgres.NewOrderRepository(db)
	productRepo := postgres.NewProductRepository(db)
	counterRepo := postgres.NewCounterRepository(db)
	cartStore := postgres.NewCartRepository(db)

	publisher := rabbitmq.NewPublisher(mqConn)

	reconciler := inventory.NewService(productRepo, lgr)
	sequencer := sequence.NewService(counterRepo)
	limiter := ratelimit.NewService(orderRepo, lgr, cfg.Orders.AnonymousDailyLimit)
	hub := order.NewHub()

	orderService := order.NewService(orderRepo, reconciler, sequencer, limiter, publisher, hub, lgr, cfg.Orders.ShippingCost)
	cartService := cart.NewService(productRepo, cartStore, publisher, lgr)

	orderHandler := httpAdapter.NewOrderHandler(orderService, cartService, hub, lgr)
	adminHandler := httpAdapter.NewAdminHandler(orderService, hub, lgr)
	cartHandler := httpAdapter.NewCartHandler(cartService, cfg.Orders.ShippingCost, lgr)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /orders", orderHandler.Checkout)
	mux.HandleFunc("GET /orders/{id}", orderHandler.GetOrder)
	mux.HandleFunc("GET /orders/{id}/events", orderHandler.StreamOrder)
	mux.HandleFunc("POST /orders/{id}/cancel", orderHandler.CancelOrder)
	mux.HandleFunc("GET /my/orders", orderHandler.MyOrders)

	mux.HandleFunc("GET /cart/{key}", cartHandler.GetCart)
	mux.HandleFunc("POST /cart/{key}/items", cartHandler.AddItem)
	mux.HandleFunc("PUT /cart/{key}/items/{productId}", cartHandler.UpdateItem)
	mux.HandleFunc("DELETE /cart/{key}/items/{productId}", cartHandler.RemoveItem)
	mux.HandleFunc("DELETE /cart/{key}", cartHandler.ClearCart)

	mux.HandleFunc("GET /admin/orders", adminHandler.ListOrders)
	mux.HandleFunc("GET /admin/orders/events", adminHandler.StreamOrders)
	mux.HandleFunc("GET /admin/orders/{id}/history", adminHandler.GetHistory)
	mux.HandleFunc("PUT /admin/orders/{id}/status", adminHandler.UpdateStatus)
	mux.HandleFunc("PUT /admin/orders/{id}/payment", adminHandler.UpdatePayment)
	mux.HandleFunc("PUT /admin/orders/{id}/notes", adminHandler.UpdateNotes)
	mux.HandleFunc("PUT /admin/orders/{id}/customer", adminHandler.UpdateCustomer)
	mux.HandleFunc("PUT /admin/orders/{id}/shipping", adminHandler.UpdateShipping)
	mux.HandleFunc("PUT /admin/orders/{id}/tracking", adminHandler.UpdateTracking)
	mux.HandleFunc("PUT /admin/orders/{id}/items", adminHandler.UpdateItems)
	mux.HandleFunc("POST /admin/orders/{id}/acknowledge", adminHandler.AcknowledgeCancellation)
	mux.HandleFunc("DELETE /admin/orders/{id}", adminHandler.DeleteOrder)

	handler := httpAdapter.AuthMiddleware(mux)
	handler = httpAdapter.LoggingMiddleware(lgr)(handler)
	handler = httpAdapter.RecoveryMiddleware(lgr)(handler)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", port),
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the event-stream endpoints hold their
		// connections open indefinitely.
		IdleTimeout: 60 * time.Second,
	}

	lgr.Info("service_started", fmt.Sprintf("Order Service started on port %d", port), "startup", map[string]interface{}{
		"port": port,
	})

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		lgr.Info("shutdown_initiated", "Shutting down Order Service", "shutdown", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		lgr.Error("server_error", "Server error", "runtime", nil, err)
	}
}

func runNotificationSubscriber(ctx context.Context, mqConn rabbitmq.Connection, lgr logger.Logger, prefetch int) {
	consumer := rabbitmq.NewConsumer(mqConn, prefetch)
	notificationHandler := amqpAdapter.NewNotificationHandler(lgr)

	lgr.Info("service_started", "Notification Subscriber started", "startup", nil)

	go func() {
		if err := consumer.ConsumeNotifications(ctx, notificationHandler.HandleNotification); err != nil {
			lgr.Error("consumer_error", "Error consuming notifications", "runtime", nil, err)
		}
	}()

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	<-sigint

	lgr.Info("shutdown_initiated", "Shutting down Notification Subscriber", "shutdown", nil)
}
