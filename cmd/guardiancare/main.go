package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"guardiancare/internal/cache"
	"guardiancare/internal/config"
	"guardiancare/internal/feed"
	"guardiancare/internal/httpapi"
	"guardiancare/internal/logger"
	"guardiancare/internal/notify"
	"guardiancare/internal/repository"
	"guardiancare/internal/service"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. 初始化日志
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "guardiancare")
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer log.Sync()

	// 3. 创建监护服务
	careService := service.NewCareService(cfg, log)

	// 阈值覆盖文件（可选）
	overrides, err := cfg.LoadThresholds()
	if err != nil {
		log.Fatal("Failed to load threshold overrides", zap.Error(err))
	}
	if len(overrides) > 0 {
		if err := careService.ApplyThresholdOverrides(overrides); err != nil {
			log.Fatal("Failed to apply threshold overrides", zap.Error(err))
		}
		log.Info("Threshold overrides applied", zap.Int("count", len(overrides)))
	}

	// 4. 可选依赖：PostgreSQL 持久化
	if os.Getenv("DB_DISABLED") != "true" {
		db, err := sql.Open("postgres", cfg.Database.GetDSN())
		if err != nil {
			log.Fatal("Failed to open database", zap.Error(err))
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			log.Warn("Database not reachable, persistence disabled", zap.Error(err))
		} else {
			careService.SetRepository(repository.NewAlertsRepository(db, log))
			log.Info("Alert persistence enabled")
		}
	}

	// 5. 可选依赖：Redis 缓存
	if os.Getenv("REDIS_DISABLED") != "true" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Warn("Redis not reachable, caching disabled", zap.Error(err))
		} else {
			careService.SetCache(cache.NewManager(cfg, redisClient, log))
			log.Info("Status caching enabled")
		}
	}

	// 6. 可选依赖：报警外发通道
	if cfg.MQTT.Broker != "" {
		mqttNotifier, err := notify.NewMQTTNotifier(&cfg.MQTT, log)
		if err != nil {
			log.Warn("MQTT broker not reachable, MQTT notifications disabled", zap.Error(err))
		} else {
			defer mqttNotifier.Close()
			careService.RegisterNotifier("mqtt", mqttNotifier)
			log.Info("MQTT notifications enabled", zap.String("topic", cfg.MQTT.Topic))
		}
	}
	if cfg.Care.WebhookURL != "" {
		careService.RegisterNotifier("webhook", notify.NewWebhookNotifier(cfg.Care.WebhookURL, log))
		log.Info("Webhook notifications enabled", zap.String("url", cfg.Care.WebhookURL))
	}

	// 7. 可选：回放历史数据集（预热阈值趋势与提醒计划）
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Care.DatasetDir != "" {
		replayer := feed.NewReplayer(careService, log)
		if err := replayer.ReplayDir(ctx, cfg.Care.DatasetDir); err != nil {
			log.Error("Dataset replay failed", zap.String("dir", cfg.Care.DatasetDir), zap.Error(err))
		}
	}

	// 8. 启动调度循环
	careService.Start(ctx)
	defer careService.Stop()

	// 9. 启动 HTTP 服务
	router := httpapi.NewRouter(log)
	router.RegisterCareRoutes(httpapi.NewCareHandler(careService, log))

	httpServer := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: router,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	// 10. 等待信号（优雅关闭）
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down",
			zap.String("signal", sig.String()),
		)
	case err := <-serverErrChan:
		log.Fatal("HTTP server error",
			zap.Error(err),
		)
	}

	if err := httpServer.Shutdown(context.Background()); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}

	log.Info("Care service stopped")
}
