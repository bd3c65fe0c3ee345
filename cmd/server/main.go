package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/langchou/parkspot/internal/api/geocoder"
	"github.com/langchou/parkspot/internal/api/handlers"
	"github.com/langchou/parkspot/internal/api/places"
	"github.com/langchou/parkspot/internal/config"
	"github.com/langchou/parkspot/internal/enrich"
	"github.com/langchou/parkspot/internal/repository"
	"github.com/langchou/parkspot/internal/service"
	"github.com/langchou/parkspot/pkg/ws"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger := initLogger(cfg.Debug)
	defer logger.Sync()

	logger.Info("Starting Parkspot", zap.String("port", cfg.ServerPort))

	// 创建 context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 连接数据库（可选）
	var (
		searchRepo *repository.SearchRepository
		placeRepo  *repository.PlaceRepository
	)
	if cfg.DatabaseURL != "" {
		db, err := repository.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("Failed to connect database", zap.Error(err))
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
		logger.Info("Database migrated successfully")

		searchRepo = repository.NewSearchRepository(db)
		placeRepo = repository.NewPlaceRepository(db)
	} else {
		logger.Info("DATABASE_URL not set, search history disabled")
	}

	// 创建 Places API 客户端
	placesClient := places.NewClient(places.Options{
		APIKey:       cfg.GoogleMapsAPIKey,
		Host:         cfg.PlacesAPIHost,
		RegionCode:   cfg.RegionCode,
		LanguageCode: cfg.LanguageCode,
		MaxResults:   cfg.MaxResults,
		BiasRadius:   cfg.SearchRadiusMeters,
		Timeout:      cfg.PlacesTimeout,
		CacheTTL:     cfg.PlacesCacheTTL,

		PhotoProxyBase: cfg.PhotoProxyBase,
	}, logger.Named("places"))
	if !placesClient.IsConfigured() {
		logger.Warn("GOOGLE_MAPS_API_KEY not set, searches will return no results")
	}

	// 数据增强管道
	pipeline := enrich.NewPipeline(placesClient, enrich.NewSyntheticSource(), enrich.Options{
		PhotoMaxPx:  cfg.PhotoMaxPx,
		GallerySize: cfg.PhotoGallerySize,
		Concurrency: cfg.EnrichConcurrency,
		MaxGeocodes: cfg.MaxGeocodes,
	}, logger.Named("enrich"))
	if cfg.ReverseGeocode {
		pipeline.SetAddressResolver(geocoder.NewClient(cfg.NominatimHost, cfg.LanguageCode, logger.Named("geocoder")))
		logger.Info("Reverse geocoding enabled for missing addresses", zap.String("host", cfg.NominatimHost))
	}

	// 创建 WebSocket Hub
	wsHub := ws.NewHub(logger.Named("ws"))
	go wsHub.Run()

	// 创建停车场服务
	parkingService := service.NewParkingService(cfg, logger, placesClient, pipeline, wsHub)
	if searchRepo != nil {
		parkingService.SetRecorders(searchRepo, placeRepo)
	}
	wsHub.SetInitDataProvider(parkingService.InitView)
	wsHub.SetInboundHandler(parkingService.HandleWSMessage)

	if err := parkingService.Start(ctx); err != nil {
		logger.Fatal("Failed to start parking service", zap.Error(err))
	}

	// 创建 HTTP 处理器
	handler := handlers.NewHandler(logger, parkingService, searchRepo, placeRepo, wsHub)

	// 设置 Gin 模式
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// 注册路由
	handler.RegisterRoutes(router)

	// 启动 HTTP 服务器
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", server.Addr))

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// 停止服务
	parkingService.Stop()

	// 优雅关闭
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// initLogger 初始化日志
func initLogger(debug bool) *zap.Logger {
	var config zap.Config
	if debug {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}

	logger, _ := config.Build()
	return logger
}

// corsMiddleware CORS 中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
