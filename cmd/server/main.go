package main

import (
	"log"
	"net/http"

	"paynetgw/internal/capture"
	"paynetgw/internal/checkout"
	"paynetgw/internal/config"
	"paynetgw/internal/db"
	"paynetgw/internal/handler"
	"paynetgw/internal/ledger"
	"paynetgw/internal/lock"
	"paynetgw/internal/logger"
	"paynetgw/internal/middleware"
	"paynetgw/internal/order"
	"paynetgw/internal/paynet"
	"paynetgw/internal/reconcile"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	var locker lock.Locker
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		locker = lock.NewRedisLocker(rdb)
	} else {
		locker = lock.NewMemoryLocker()
	}

	gateway := paynet.NewClient(cfg.Paynet)

	ledgerRepo := ledger.NewRepository(database)
	orderStore := order.NewStore(database)
	recorder := capture.NewRecorder(capture.NewRepository(database))

	checkoutSvc := checkout.NewService(cfg.Paynet, cfg.BaseURL, gateway, ledgerRepo, orderStore)
	engine := reconcile.NewEngine(
		cfg.Paynet, gateway, orderStore, ledgerRepo, recorder, locker,
		cfg.ThreeDSecure, order.PaymentState(cfg.CancelableState),
	)

	h := handler.New(orderStore, checkoutSvc, engine, cfg.ThreeDSecure)

	mux := http.NewServeMux()
	mux.HandleFunc("/payneteasy/payment/redirect", h.Redirect)
	mux.HandleFunc("/payneteasy/payment/handle-response", h.HandleResponse)
	mux.HandleFunc("/payneteasy/payment/cancel", h.Cancel)

	srv := middleware.RateLimitMiddleware(middleware.LoggingMiddleware(mux))

	logger.L().Info("payment service listening", zap.String("port", cfg.AppPort))
	log.Fatal(http.ListenAndServe(":"+cfg.AppPort, srv))
}
