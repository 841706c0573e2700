package main

import (
	"log"
	"net/http"

	"partyfantasy-be/internal/config"
	"partyfantasy-be/internal/db"
	"partyfantasy-be/internal/httpapi"
	"partyfantasy-be/internal/logger"
	"partyfantasy-be/internal/middleware"
	"partyfantasy-be/internal/notify"
	"partyfantasy-be/internal/order"
	"partyfantasy-be/internal/paynow"
	"partyfantasy-be/internal/reconcile"

	"github.com/shopspring/decimal"
)

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	deliveryFee, err := decimal.NewFromString(cfg.DeliveryFee)
	if err != nil {
		log.Fatalf("invalid DELIVERY_FEE %q: %v", cfg.DeliveryFee, err)
	}

	orderRepo := order.NewRepository(database)
	orderSvc := order.NewService(orderRepo, deliveryFee)

	gateway := paynow.NewGateway(cfg)

	var dispatcher notify.Dispatcher = notify.Nop{}
	if cfg.SMTPHost != "" {
		dispatcher = notify.NewMailer(cfg)
	} else {
		logger.L().Warn("SMTP not configured, order notifications disabled")
	}

	engine := reconcile.NewEngine(orderRepo, gateway, dispatcher)

	handler := httpapi.NewHandler(orderSvc, engine, gateway, cfg.SessionSecret)

	mux := http.NewServeMux()
	handler.Register(mux)

	srv := logger.RequestIDMiddleware(
		logger.LoggingMiddleware(
			middleware.RateLimitMiddleware(mux),
		),
	)

	log.Printf("server running at http://localhost:%s/", cfg.AppPort)
	log.Fatal(http.ListenAndServe(":"+cfg.AppPort, srv))
}
