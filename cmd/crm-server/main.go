package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DavidCLumin/estate-agent-crm/internal/api"
	"github.com/DavidCLumin/estate-agent-crm/internal/api/handlers"
	"github.com/DavidCLumin/estate-agent-crm/internal/config"
	"github.com/DavidCLumin/estate-agent-crm/internal/domain"
	"github.com/DavidCLumin/estate-agent-crm/internal/infrastructure/leader"
	"github.com/DavidCLumin/estate-agent-crm/internal/infrastructure/mysql"
	crmredis "github.com/DavidCLumin/estate-agent-crm/internal/infrastructure/redis"
	"github.com/DavidCLumin/estate-agent-crm/internal/infrastructure/websocket"
	"github.com/DavidCLumin/estate-agent-crm/internal/services"
	"github.com/DavidCLumin/estate-agent-crm/pkg/logger"

	redisClient "github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (overrides the default search paths)")
	flag.Parse()

	log := logger.New()
	log.Info("Starting estate agent CRM server")

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize Redis
	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to Redis", "address", cfg.Redis.Address)

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		log.Error("Failed to connect to MySQL", "error", err)
		os.Exit(1)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			log.Error("Failed to close MySQL connection", "error", err)
		}
	}(db)

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		log.Error("Failed to ping MySQL", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to MySQL")

	// Initialize repositories
	txManager := mysql.NewTxManager(db, log)
	propertyRepo := mysql.NewPropertyRepository(db)
	bidRepo := mysql.NewBidRepository(db)
	auditRepo := mysql.NewAuditRepository(db)
	schedulerRepo := mysql.NewSchedulerRepository(db)

	// Initialize Redis based components
	eventPublisher := crmredis.NewEventPublisher(rdb)
	eventSubscriber := crmredis.NewEventSubscriber(rdb, log)
	leaderElection := leader.NewRedisLeaderElection(rdb, cfg.Scheduler.LeaderTTL, cfg.Scheduler.LeaderHeartbeat)

	// Initialize deadline scheduler
	deadlineScheduler := services.NewCronDeadlineScheduler(
		schedulerRepo,
		auditRepo,
		eventPublisher,
		leaderElection,
		cfg.Instance.ID,
		cfg.Scheduler.SweepInterval,
		log,
	)

	// Initialize services
	bidService := services.NewBidService(
		txManager,
		propertyRepo,
		bidRepo,
		auditRepo,
		eventPublisher,
		cfg.Bidding.HashSecret,
		log,
	)
	propertyService := services.NewPropertyService(
		txManager,
		propertyRepo,
		bidRepo,
		auditRepo,
		eventPublisher,
		deadlineScheduler,
		log,
	)

	// Live bid feed: redis events fan out to websocket watchers.
	hub := websocket.NewHub(log)
	subscriberCtx, stopSubscriber := context.WithCancel(context.Background())
	defer stopSubscriber()
	go func() {
		err := eventSubscriber.Subscribe(subscriberCtx, func(event *domain.BidEvent) {
			hub.BroadcastToProperty(event.PropertyID, event)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Bid event subscriber exited", "error", err)
		}
	}()

	if err := deadlineScheduler.Start(subscriberCtx); err != nil {
		log.Error("Failed to start deadline scheduler", "error", err)
		os.Exit(1)
	}
	defer deadlineScheduler.Stop()

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = api.NewHTTPErrorHandler(log)

	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: `{"time":"${time_rfc3339}","id":"${id}","remote_ip":"${remote_ip}","host":"${host}","method":"${method}","uri":"${uri}","user_agent":"${user_agent}","status":${status},"error":"${error}","latency":${latency},"latency_human":"${latency_human}","bytes_in":${bytes_in},"bytes_out":${bytes_out}}` + "\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			echo.GET, echo.HEAD, echo.PUT, echo.PATCH,
			echo.POST, echo.DELETE, echo.OPTIONS,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			echo.HeaderXRequestedWith,
		},
	}))

	propertyHandler := handlers.NewPropertyHandler(propertyService, log)
	bidHandler := handlers.NewBidHandler(bidService, log)
	auditHandler := handlers.NewAuditHandler(auditRepo, log)
	feedHandler := handlers.NewWebSocketHandler(propertyService, hub, log)

	api.RegisterRoutes(e, propertyHandler, bidHandler, auditHandler, feedHandler, cfg.Bidding)

	// Start server
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Info("HTTP server listening", "address", address)
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	stopSubscriber()
	if err := leaderElection.ReleaseLeadership(shutdownCtx, cfg.Instance.ID); err != nil {
		log.Warn("Failed to release leadership", "error", err)
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", "error", err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}
