package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"

	"github.com/scrimworks/scrimbot/config"
	"github.com/scrimworks/scrimbot/db"
	"github.com/scrimworks/scrimbot/events"
	"github.com/scrimworks/scrimbot/handlers"
	"github.com/scrimworks/scrimbot/platform/discord"
	"github.com/scrimworks/scrimbot/repositories"
	api "github.com/scrimworks/scrimbot/routes"
	"github.com/scrimworks/scrimbot/services"
	"github.com/scrimworks/scrimbot/storage"
	"github.com/scrimworks/scrimbot/wizard"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	// Wizard session store: Redis when configured, in-process otherwise.
	var sessionStore wizard.Store = wizard.NewMemoryStore()
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", slog.Any("error", err))
			os.Exit(1)
		}
		redisClient := redis.NewClient(opts)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer redisClient.Close()
		sessionStore = wizard.NewRedisStore(redisClient)
		logger.Info("redis session store initialized")
	} else {
		logger.Warn("REDIS_URL not set, wizard sessions will not survive restarts")
	}

	discordSession, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		logger.Error("failed to create discord session", slog.Any("error", err))
		os.Exit(1)
	}
	if err := discordSession.Open(); err != nil {
		logger.Error("failed to open discord gateway connection", slog.Any("error", err))
		os.Exit(1)
	}
	defer discordSession.Close()

	provisioner, err := discord.NewProvisioner(discordSession)
	if err != nil {
		logger.Error("failed to initialize provisioner", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("discord provisioner initialized")

	// Roster archiving is optional; without R2 credentials deletion simply
	// skips the snapshot.
	var archiver storage.Archiver
	if cfg.R2AccountID != "" {
		archiver, err = storage.NewCloudflareR2Archiver(storage.CloudflareR2ArchiverConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 archiver", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 archiver initialized")
	}

	wsHub := events.NewHub(logger)
	go wsHub.Run()

	scrimRepo := repositories.NewPostgresScrimRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)

	authService := services.NewAuthService(cfg.OrganizerPasswordHash, cfg.JWTSecretKey)
	scrimService := services.NewScrimService(scrimRepo, teamRepo, provisioner, archiver, wsHub, logger)
	teamService := services.NewTeamService(teamRepo, scrimRepo, provisioner, wsHub, logger)
	schedulerService := services.NewSchedulerService(scrimRepo, provisioner, wsHub, logger)
	logger.Info("services initialized")

	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	go schedulerService.Run(schedulerCtx, cfg.SweepInterval)

	authHandler := handlers.NewAuthHandler(authService)
	wizardHandler := handlers.NewWizardHandler(sessionStore, scrimService)
	scrimHandler := handlers.NewScrimHandler(scrimService)
	teamHandler := handlers.NewTeamHandler(teamService, scrimService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, scrimService, logger)

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		authService,
		authHandler,
		wizardHandler,
		scrimHandler,
		teamHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		stopScheduler()

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
}
