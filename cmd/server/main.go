// 电商服务入口：用户、商品目录、购物车、订单支付与行为事件采集
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

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	cartapp "github.com/wyfcoding/ecommerce/internal/cart/application"
	cartdomain "github.com/wyfcoding/ecommerce/internal/cart/domain"
	cartmysql "github.com/wyfcoding/ecommerce/internal/cart/infrastructure/persistence/mysql"
	carthttp "github.com/wyfcoding/ecommerce/internal/cart/interfaces/http"
	catalogapp "github.com/wyfcoding/ecommerce/internal/catalog/application"
	catalogdomain "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/internal/catalog/infrastructure/media"
	catalogmysql "github.com/wyfcoding/ecommerce/internal/catalog/infrastructure/persistence/mysql"
	"github.com/wyfcoding/ecommerce/internal/catalog/infrastructure/recommender"
	cataloghttp "github.com/wyfcoding/ecommerce/internal/catalog/interfaces/http"
	eventapp "github.com/wyfcoding/ecommerce/internal/event/application"
	eventdomain "github.com/wyfcoding/ecommerce/internal/event/domain"
	eventmysql "github.com/wyfcoding/ecommerce/internal/event/infrastructure/persistence/mysql"
	eventhttp "github.com/wyfcoding/ecommerce/internal/event/interfaces/http"
	orderapp "github.com/wyfcoding/ecommerce/internal/order/application"
	orderdomain "github.com/wyfcoding/ecommerce/internal/order/domain"
	"github.com/wyfcoding/ecommerce/internal/order/infrastructure/payment"
	ordermysql "github.com/wyfcoding/ecommerce/internal/order/infrastructure/persistence/mysql"
	orderhttp "github.com/wyfcoding/ecommerce/internal/order/interfaces/http"
	userapp "github.com/wyfcoding/ecommerce/internal/user/application"
	userdomain "github.com/wyfcoding/ecommerce/internal/user/domain"
	"github.com/wyfcoding/ecommerce/internal/user/infrastructure/google"
	usermysql "github.com/wyfcoding/ecommerce/internal/user/infrastructure/persistence/mysql"
	userhttp "github.com/wyfcoding/ecommerce/internal/user/interfaces/http"

	"github.com/wyfcoding/ecommerce/pkg/auth"
	"github.com/wyfcoding/ecommerce/pkg/cache"
	"github.com/wyfcoding/ecommerce/pkg/config"
	"github.com/wyfcoding/ecommerce/pkg/db"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/metrics"
	"github.com/wyfcoding/ecommerce/pkg/middleware"
	"github.com/wyfcoding/ecommerce/pkg/mq"
	"github.com/wyfcoding/ecommerce/pkg/ratelimit"
)

func main() {
	configPath := flag.String("config", "configs/server/config.toml", "配置文件路径")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}

	ctx := context.Background()
	logger.Info(ctx, "Starting service",
		"service", cfg.ServiceName,
		"version", cfg.Version,
		"environment", cfg.Environment,
	)

	if err := metrics.Register(); err != nil {
		logger.Fatal(ctx, "注册指标失败", "error", err)
	}
	if cfg.Metrics.Enabled {
		if err := metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Fatal(ctx, "启动指标服务失败", "error", err)
		}
	}

	// 数据库
	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		logger.Fatal(ctx, "初始化数据库失败", "error", err)
	}
	defer database.Close()

	if err := database.AutoMigrate(
		&userdomain.User{},
		&userdomain.Address{},
		&catalogdomain.Product{},
		&cartdomain.CartItem{},
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
		&eventdomain.Event{},
	); err != nil {
		logger.Fatal(ctx, "数据库迁移失败", "error", err)
	}

	// Redis
	redisCache, err := cache.New(cache.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxPoolSize:  cfg.Redis.MaxPoolSize,
		ConnTimeout:  cfg.Redis.ConnTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		logger.Fatal(ctx, "初始化 Redis 失败", "error", err)
	}
	defer redisCache.Close()

	// Kafka（可选）
	var producer *mq.KafkaProducer
	if cfg.Kafka.Enabled {
		producer, err = mq.NewProducer(mq.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			MaxRetries:   cfg.Kafka.MaxRetries,
			RetryBackoff: cfg.Kafka.RetryBackoff,
		})
		if err != nil {
			logger.Fatal(ctx, "初始化 Kafka 生产者失败", "error", err)
		}
		defer producer.Close()
	}

	// 对象存储
	mediaStore, err := media.NewStore(ctx, cfg.Media)
	if err != nil {
		logger.Fatal(ctx, "初始化对象存储失败", "error", err)
	}

	// token 管理
	tokens := auth.NewManager(
		cfg.Auth.AccessTokenSecret,
		cfg.Auth.RefreshTokenSecret,
		time.Duration(cfg.Auth.AccessTokenTTL)*time.Minute,
		time.Duration(cfg.Auth.RefreshTokenTTL)*time.Hour,
	)

	// 仓储
	userRepo := usermysql.NewUserRepository(database.DB)
	productRepo := catalogmysql.NewProductRepository(database.DB)
	cartRepo := cartmysql.NewCartRepository(database.DB)
	orderRepo := ordermysql.NewOrderRepository(database.DB)
	eventRepo := eventmysql.NewEventRepository(database.DB)

	// 应用服务
	userService := userapp.NewUserService(userRepo, tokens, google.NewVerifier(cfg.Auth.GoogleClientID))
	productService := catalogapp.NewProductService(
		productRepo,
		mediaStore,
		recommender.NewClient(cfg.Recommender),
		redisCache,
	)
	cartService := cartapp.NewCartService(cartRepo, productService)
	orderService := orderapp.NewOrderService(
		orderRepo,
		cartService,
		productRepo,
		payment.NewStripeGateway(cfg.Stripe),
		decimal.NewFromInt(cfg.Stripe.DeliveryCharge),
	)

	var publisher eventapp.EventPublisher
	if producer != nil {
		publisher = producer
	}
	eventService := eventapp.NewEventService(eventRepo, publisher, cfg.Kafka.EventTopic)

	// HTTP
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.GinRecoveryMiddleware(),
		middleware.GinLoggingMiddleware(),
		middleware.GinMetricsMiddleware(),
		middleware.GinCORSMiddleware(cfg.HTTP.AllowedOrigins),
	)
	if cfg.RateLimit.Enabled {
		limiter := ratelimit.NewRedisRateLimiter(redisCache.GetClient())
		router.Use(middleware.RateLimitMiddleware(limiter, cfg.RateLimit))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.ServiceName})
	})

	authed := middleware.AuthMiddleware(tokens, userService)
	adminOnly := middleware.RequireRoles(string(userdomain.RoleAdmin))

	api := router.Group("/api/v1")
	userhttp.NewUserHandler(userService, userhttp.CookiePolicy{
		Secure:     cfg.IsProduction(),
		AccessTTL:  time.Duration(cfg.Auth.AccessTokenTTL) * time.Minute,
		RefreshTTL: time.Duration(cfg.Auth.RefreshTokenTTL) * time.Hour,
	}).RegisterRoutes(api, authed)
	cataloghttp.NewProductHandler(productService).RegisterRoutes(api, authed, adminOnly)
	carthttp.NewCartHandler(cartService).RegisterRoutes(api, authed)
	orderhttp.NewOrderHandler(orderService).RegisterRoutes(api, authed, adminOnly)
	eventhttp.NewEventHandler(eventService).RegisterRoutes(api, authed, adminOnly)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info(ctx, "HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "HTTP 服务启动失败", "error", err)
		}
	}()

	// 优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "服务关闭异常", "error", err)
	}
	logger.Info(ctx, "Server stopped")
}
