package main

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ArowuTest/easyearning-backend/api/routes"
	"github.com/ArowuTest/easyearning-backend/internal/bootstrap"
	"github.com/ArowuTest/easyearning-backend/internal/config"
	"github.com/ArowuTest/easyearning-backend/internal/handlers"
	"github.com/ArowuTest/easyearning-backend/internal/mediation"
	"github.com/ArowuTest/easyearning-backend/internal/models"
	"github.com/ArowuTest/easyearning-backend/internal/services"
	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.LogLevel)
	if !strings.EqualFold(cfg.LogLevel, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	st, closeStore, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open store", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	seed := time.Now().UnixNano()
	engine := mediation.NewEngine(rand.New(rand.NewSource(seed)),
		mediation.WithProbeDelay(cfg.Mediation.ProbeDelay),
		mediation.WithObserver(func(a models.WaterfallAttempt) {
			slog.Debug("Waterfall probe", "network", a.NetworkID, "priority", a.Priority, "draw", a.Draw, "filled", a.Filled)
		}),
	)

	authService := services.NewAuthService(st, cfg)
	userService := services.NewUserService(st)
	taskService := services.NewTaskService(st, engine, rand.New(rand.NewSource(seed+1)), services.TaskTimings{
		AdWatch:  time.Duration(cfg.Rewards.AdWatchSeconds) * time.Second,
		PTCWatch: time.Duration(cfg.Rewards.PTCWatchSeconds) * time.Second,
	})
	walletService := services.NewWalletService(st, cfg.Rewards.WithdrawalMethods)
	mediationService := services.NewMediationService(st, engine)

	router := routes.SetupRouter(cfg, routes.HandlerDependencies{
		Auth:             authService,
		AuthHandler:      handlers.NewAuthHandler(authService),
		UserHandler:      handlers.NewUserHandler(userService),
		TaskHandler:      handlers.NewTaskHandler(taskService),
		WalletHandler:    handlers.NewWalletHandler(walletService),
		MediationHandler: handlers.NewMediationHandler(mediationService),
		EventHandler:     handlers.NewEventHandler(st),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("Server starting", "port", cfg.Server.Port, "storage", cfg.Storage.Driver)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	slog.Info("Server exiting")
}

func setupLogger(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}
