package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/maddiebeagley/Concert-Booking-System/internal/api"
	"github.com/maddiebeagley/Concert-Booking-System/internal/api/handler"
	custommiddleware "github.com/maddiebeagley/Concert-Booking-System/internal/api/middleware"
	"github.com/maddiebeagley/Concert-Booking-System/internal/application"
	"github.com/maddiebeagley/Concert-Booking-System/internal/config"
	"github.com/maddiebeagley/Concert-Booking-System/internal/domain/venue"
	"github.com/maddiebeagley/Concert-Booking-System/internal/infrastructure/postgres"
	"github.com/maddiebeagley/Concert-Booking-System/internal/infrastructure/rabbitmq"
	redisinfra "github.com/maddiebeagley/Concert-Booking-System/internal/infrastructure/redis"
	"github.com/maddiebeagley/Concert-Booking-System/internal/pkg/logger"
	"github.com/maddiebeagley/Concert-Booking-System/internal/pkg/metrics"
	"github.com/maddiebeagley/Concert-Booking-System/internal/worker"
)

func main() {
	cfg := config.Load()

	// ロガー初期化
	logger.Set(logger.New(os.Getenv("APP_ENV")))
	defer logger.Sync()

	// メトリクス初期化
	m := metrics.Init()

	// データベース接続
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("データベース接続に失敗", zap.Error(err))
	}
	defer db.Close()

	// マイグレーション実行
	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "migrations"
	}
	if err := postgres.RunMigrations(db.DB, migrationsPath); err != nil {
		logger.Fatal("マイグレーションに失敗", zap.Error(err))
	}

	// Redis接続（空席数キャッシュ用。接続できなくてもDB直読みで動作する）
	var cache *redisinfra.AvailabilityCache
	redisClient := redisinfra.NewClient(&cfg.Redis)
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Warn("Redis接続に失敗、キャッシュなしで起動", zap.Error(err))
		redisClient = nil
	} else {
		cache = redisinfra.NewAvailabilityCache(redisClient)
		defer redisClient.Close()
	}
	pingCancel()

	// RabbitMQ接続（予約確定イベントの発行用。URL未設定なら無効）
	var publisher application.EventPublisher
	if cfg.RabbitMQ.URL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL)
		if err != nil {
			logger.Warn("RabbitMQ接続に失敗、イベント発行なしで起動", zap.Error(err))
		} else {
			publisher = pub
			defer pub.Close()
		}
	}

	// リポジトリ
	txManager := postgres.NewTxManager(db)
	seatRepo := postgres.NewSeatRepository(db)
	reservationRepo := postgres.NewReservationRepository(db)
	concertRepo := postgres.NewConcertRepository(db)
	userRepo := postgres.NewUserRepository(db)

	// サービス
	inventoryService := application.NewInventoryService(seatRepo, venue.DefaultTheatre(), cache)
	concertService := application.NewConcertService(concertRepo, inventoryService)
	reservationService := application.NewReservationService(
		txManager, reservationRepo, seatRepo, concertRepo, userRepo,
		inventoryService, publisher,
		application.ReservationEngineConfig{
			ExpiryWindow:          cfg.Reservation.ExpiryWindow,
			MaxAllocationAttempts: cfg.Reservation.MaxAllocationAttempts,
			RetryBackoff:          cfg.Reservation.AllocationRetryBackoff,
		},
	)

	// ハンドラー
	healthHandler := handler.NewHealthHandler()
	concertHandler := handler.NewConcertHandler(concertService)
	reservationHandler := handler.NewReservationHandler(reservationService)

	// Echo設定
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	custommiddleware.SetupMiddleware(e)
	e.Use(custommiddleware.PrometheusMiddleware(m))

	// ルーティング
	v1 := e.Group("/api/v1")
	v1.GET("/health", healthHandler.Check)
	v1.GET("/concerts", concertHandler.List)
	v1.GET("/concerts/:id", concertHandler.GetByID)
	v1.GET("/concerts/:id/availability", concertHandler.GetAvailability)

	auth := v1.Group("", custommiddleware.JWTAuth(cfg.Auth.JWTSecret))
	auth.POST("/reservations", reservationHandler.Reserve)
	auth.GET("/reservations/:id", reservationHandler.GetByID)
	auth.POST("/reservations/:id/confirm", reservationHandler.Confirm)
	auth.GET("/bookings", reservationHandler.ListBookings)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), custommiddleware.MetricsBasicAuth())

	// 期限切れ予約リーパー起動
	reaperCtx, reaperCancel := context.WithCancel(context.Background())
	reaper := worker.NewExpiredReservationReaper(reservationService, cfg.Reservation.SweepInterval)
	go reaper.Start(reaperCtx)

	// サーバー起動
	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています...")

	reaperCancel()
	reaper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("サーバーシャットダウンエラー", zap.Error(err))
	}

	logger.Info("サーバーが正常にシャットダウンしました")
}
