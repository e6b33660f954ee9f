package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookstore/internal/config"
	"bookstore/internal/domain/model"
	"bookstore/internal/handler"
	"bookstore/internal/infra/cache"
	"bookstore/internal/infra/db"
	"bookstore/internal/infra/logger"
	"bookstore/internal/infra/metrics"
	infraRepo "bookstore/internal/infra/repository"
	"bookstore/internal/repository"
	"bookstore/internal/server"
	"bookstore/internal/usecase"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func main() {
	//.envは任意（本番は環境変数）
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.GoEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		zl.Fatal("db connect", zap.Error(err))
	}
	if err := db.Migrate(gormDB); err != nil {
		zl.Fatal("db migrate", zap.Error(err))
	}

	//冪等キーの保存先。REDIS_ADDRが無ければ覚えない
	var idem repository.IdempotencyStore = cache.NopIdempotencyStore{}
	if cfg.RedisAddr != "" {
		rdb := cache.NewRedisClient(cfg)
		defer func() { _ = rdb.Close() }()
		idem = cache.NewRedisIdempotencyStore(rdb)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	//Repository（GORM実装）生成
	txm := infraRepo.NewTxManagerGorm(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}

	registry := model.DefaultPaymentRegistry()
	registry.Fallback = model.PaymentStatus(cfg.PaymentFallbackStatus)
	shipping := usecase.ShippingPolicy{
		FreeThreshold: cfg.ShippingFreeThreshold,
		FlatRate:      cfg.ShippingFlatRate,
	}

	//Usecase生成
	pricing := usecase.NewPricingEngine(productRepo, shipping, zl)
	payments := usecase.NewPaymentStatusResolver(registry, zl)
	orderUC := usecase.NewOrderUsecase(txm, pricing, payments, clock, collector, zl, usecase.OrderOptions{
		ReserveStock: cfg.ReserveStock,
	})
	syncer := usecase.NewOrderStatusSynchronizer(txm, clock, collector, zl)
	shipmentUC := usecase.NewShipmentUsecase(txm, syncer, clock, zl)
	fulfillmentUC := usecase.NewFulfillmentUsecase(orderUC, shipmentUC, syncer, idem, cfg.IdempotencyTTL, idGen, collector, zl)

	//Handler生成
	e := server.New(cfg, zl, userRepo, reg, server.Handlers{
		Checkout:   handler.NewCheckoutHandler(pricing),
		Order:      handler.NewOrderHandler(orderUC),
		Shipment:   handler.NewShipmentHandler(shipmentUC),
		AdminOrder: handler.NewAdminOrderHandler(fulfillmentUC, orderUC),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx, e, ":"+cfg.Port, zl); err != nil {
		zl.Fatal("http server", zap.Error(err))
	}
}
