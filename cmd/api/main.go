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

	"github.com/hamzasaleh12/stadium-booking-system/internal/api"
	"github.com/hamzasaleh12/stadium-booking-system/internal/api/handler"
	custommw "github.com/hamzasaleh12/stadium-booking-system/internal/api/middleware"
	"github.com/hamzasaleh12/stadium-booking-system/internal/application"
	"github.com/hamzasaleh12/stadium-booking-system/internal/config"
	"github.com/hamzasaleh12/stadium-booking-system/internal/domain/booking"
	"github.com/hamzasaleh12/stadium-booking-system/internal/infrastructure/postgres"
	redisinfra "github.com/hamzasaleh12/stadium-booking-system/internal/infrastructure/redis"
	"github.com/hamzasaleh12/stadium-booking-system/internal/pkg/logger"
	"github.com/hamzasaleh12/stadium-booking-system/internal/pkg/metrics"
	"github.com/hamzasaleh12/stadium-booking-system/internal/worker"
)

func main() {
	cfg := config.Load()
	defer logger.Sync()

	// メトリクス
	m := metrics.New()

	// データベース接続とマイグレーション
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("データベース接続に失敗しました", zap.Error(err))
	}
	defer db.Close()

	if err := postgres.RunMigrations(db.DB, cfg.Database.MigrationsPath); err != nil {
		logger.Fatal("マイグレーションに失敗しました", zap.Error(err))
	}

	// Redis（任意。接続できない場合はロックとキャッシュなしで継続する）
	var lockManager *redisinfra.LockManager
	var scheduleCache *redisinfra.ScheduleCache
	redisClient, err := redisinfra.NewClient(&redisinfra.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Warn("Redis接続に失敗しました。ロックとキャッシュなしで起動します", zap.Error(err))
	} else {
		defer redisClient.Close()
		lockManager = redisinfra.NewLockManager(redisClient)
		scheduleCache = redisinfra.NewScheduleCache(redisClient)
	}

	// リポジトリとサービス
	bookingRepo := postgres.NewBookingRepository(db)
	stadiumRepo := postgres.NewStadiumRepository(db)
	txManager := postgres.NewTxManager(db)

	policy := booking.DurationPolicy{
		MinHours:           cfg.Booking.MinHours,
		MaxHours:           cfg.Booking.MaxHours,
		GranularityMinutes: cfg.Booking.GranularityMinutes,
	}
	bookingService := application.NewBookingService(
		txManager, bookingRepo, stadiumRepo, lockManager, scheduleCache, m, policy)
	stadiumService := application.NewStadiumService(stadiumRepo)

	// 完了スイーパー
	completer := worker.NewBookingCompleter(bookingService, cfg.Booking.SweepInterval)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	go completer.Start(workerCtx)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	e.Validator = api.NewValidator()
	custommw.SetupMiddleware(e)
	e.Use(custommw.PrometheusMiddleware(m))

	// ハンドラー
	bookingHandler := handler.NewBookingHandler(bookingService)
	stadiumHandler := handler.NewStadiumHandler(stadiumService)
	healthHandler := handler.NewHealthHandler()

	v1 := e.Group("/api/v1")
	v1.GET("/health", healthHandler.Check)

	v1.POST("/bookings", bookingHandler.Create)
	v1.GET("/bookings", bookingHandler.List)
	v1.GET("/bookings/:id", bookingHandler.GetByID)
	v1.PUT("/bookings/:id", bookingHandler.Update)
	v1.POST("/bookings/:id/cancel", bookingHandler.Cancel)

	v1.POST("/stadiums", stadiumHandler.Create)
	v1.GET("/stadiums", stadiumHandler.List)
	v1.GET("/stadiums/:id", stadiumHandler.GetByID)
	v1.PUT("/stadiums/:id", stadiumHandler.Update)
	v1.DELETE("/stadiums/:id", stadiumHandler.Delete)
	v1.GET("/stadiums/:id/schedule", bookingHandler.Schedule)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), custommw.MetricsBasicAuth())

	// サーバー起動
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("サーバー起動", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています...")

	// ワーカーを先に止めてからHTTPを閉じる
	workerCancel()
	completer.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("サーバーシャットダウンエラー", zap.Error(err))
	}

	logger.Info("サーバーが正常にシャットダウンしました")
}
