package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"player-auction/internal/api/handlers"
	apimiddleware "player-auction/internal/api/middleware"
	"player-auction/internal/catalog"
	"player-auction/internal/config"
	"player-auction/internal/domain"
	mysqlinfra "player-auction/internal/infrastructure/mysql"
	redisstore "player-auction/internal/infrastructure/redis"
	wsinfra "player-auction/internal/infrastructure/websocket"
	"player-auction/internal/services"
	"player-auction/pkg/logger"
	"player-auction/pkg/utils"

	redisClient "github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/gorilla/mux"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	log := logger.New()
	log.Info("starting player auction service")

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load config", "error", err)
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
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to redis", "address", cfg.Redis.Address)

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		log.Error("failed to connect to mysql", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to ping mysql", "error", err)
		os.Exit(1)
	}
	log.Info("connected to mysql")

	// Load the player catalog once, up front
	loader := catalog.NewCSVLoader(cfg.Auction.CatalogPath)
	cat, err := loader.LoadCatalog(ctx)
	if err != nil {
		log.Error("failed to load player catalog", "path", cfg.Auction.CatalogPath, "error", err)
		os.Exit(1)
	}
	log.Info("catalog loaded", "players", cat.Size(), "sets", len(cat.Sets))

	// Increment bands live in redis so operators can tune them
	ruleStore := services.NewIncrementRuleStore(rdb)
	schedule, err := ruleStore.LoadSchedule(ctx)
	if err != nil {
		log.Error("failed to load increment schedule", "error", err)
		os.Exit(1)
	}

	// Stores
	snapshotStore := redisstore.NewRedisSnapshotStore(rdb)
	eventPublisher := redisstore.NewRedisEventPublisher(rdb)
	resultRepo := mysqlinfra.NewMySQLResultRepository(db)

	// Teams start with the configured purse
	teams := make(map[string]*domain.Team, len(cfg.Auction.Teams))
	for _, tc := range cfg.Auction.Teams {
		teams[tc.ID] = &domain.Team{
			ID:             tc.ID,
			Name:           tc.Name,
			PurseTotal:     cfg.Auction.StartingPurse,
			PurseRemaining: cfg.Auction.StartingPurse,
		}
	}

	runID := cfg.Auction.RunID
	if runID == "" {
		runID = utils.GenerateID("run")
	}

	hub := services.NewHub(eventPublisher, log)
	engine := services.NewEngine(
		services.EngineConfig{
			RunID:          runID,
			MaxRosterSize:  cfg.Auction.MaxRosterSize,
			MinRosterSize:  cfg.Auction.MinRosterSize,
			ReserveEnabled: cfg.Auction.ReserveEnabled,
			MinBid:         cfg.Auction.MinBid,
			BidLockTimeout: cfg.Auction.BidLockTimeout,
			ShuffleSeed:    cfg.Auction.ShuffleSeed,
		},
		cat,
		teams,
		schedule,
		hub,
		snapshotStore,
		resultRepo,
		log,
	)

	// Resume a crashed run when a snapshot exists for this run id
	if cfg.Auction.RunID != "" {
		snap, err := snapshotStore.LoadSnapshot(ctx, runID)
		switch {
		case err == nil:
			if err := engine.Restore(snap); err != nil {
				log.Error("failed to restore snapshot", "error", err)
				os.Exit(1)
			}
		case errors.Is(err, domain.ErrSnapshotNotFound):
			log.Info("no stored snapshot, starting fresh", "run_id", runID)
		default:
			log.Error("failed to load snapshot", "error", err)
			os.Exit(1)
		}
	}

	// Optional automated hammer
	var hammer *services.AutoHammer
	if cfg.Auction.HammerEnabled {
		hammer = services.NewAutoHammer(engine, cfg.Auction.HammerWindow, log)
		if err := hammer.Start(context.Background()); err != nil {
			log.Error("failed to start auto hammer", "error", err)
			os.Exit(1)
		}
	}

	// WebSocket router (gorilla) mounted under the echo server
	connManager := wsinfra.NewConnectionManager(log)
	wsHandler := wsinfra.NewWebSocketHandler(engine, connManager, log)

	wsRouter := mux.NewRouter()
	wsRouter.Use(apimiddleware.CORS)
	wsRouter.HandleFunc("/ws/auction", wsHandler.HandleConnection)

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			echo.GET, echo.HEAD, echo.PUT, echo.PATCH,
			echo.POST, echo.DELETE, echo.OPTIONS,
		},
	}))

	auctionHandler := handlers.NewAuctionHandler(engine, log)
	auctionHandler.Register(e.Group("/api/v1"))
	e.Any("/ws/*", echo.WrapHandler(wsRouter))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "player-auction",
			"run_id":    runID,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		log.Info("starting auction server", "address", serverAddr)
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down auction service")

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if hammer != nil {
		if err := hammer.Stop(); err != nil {
			log.Error("failed to stop auto hammer", "error", err)
		}
	}
	if err := connManager.CloseAll(); err != nil {
		log.Error("failed to close websocket connections", "error", err)
	}
	if err := e.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("auction service stopped")
}
