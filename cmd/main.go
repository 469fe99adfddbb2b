package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todo-api/internal/auth"
	"todo-api/internal/behaviour"
	"todo-api/internal/config"
	"todo-api/internal/controller"
	"todo-api/internal/database"
	"todo-api/internal/identity"
	"todo-api/internal/metrics"
	"todo-api/internal/models"
	"todo-api/internal/queue"
	"todo-api/internal/repository"
	"todo-api/internal/routes"
	"todo-api/internal/seed"
	"todo-api/internal/sequence"
	"todo-api/internal/whitelist"
	"todo-api/internal/worker"
	"todo-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Get()
	logger.SetDefault(logger.New(os.Stdout, cfg.LogLevel))

	if err := whitelist.RegisterWithGin(); err != nil {
		logger.Error(ctx, "Whitelist validator registration failed", "error", err)
		os.Exit(1)
	}

	db := database.DB(ctx)
	orm := database.ORM(ctx)
	if db == nil || orm == nil {
		logger.Error(ctx, "Database not available; exiting")
		os.Exit(1)
	}
	if err := database.MigrateOrCreateSchema(ctx); err != nil {
		logger.Error(ctx, "Schema migration failed", "error", err)
		os.Exit(1)
	}

	users := identity.NewStore(orm, cfg.PasswordCost)
	if cfg.SeedOnStartup {
		if err := seed.Run(ctx, orm, users); err != nil {
			logger.Error(ctx, "Seeding failed", "error", err)
			os.Exit(1)
		}
	}

	issuer, err := auth.NewIssuer(cfg.Tokens)
	if err != nil {
		logger.Error(ctx, "Token issuer unavailable; set TOKENS_KEY", "error", err)
		os.Exit(1)
	}

	seq := sequence.Select(ctx, db, database.LogIDSequence)
	var publisher *queue.LogPublisher
	if w := queue.Producer(ctx); w != nil {
		queue.EnsureTopic(ctx)
		publisher = queue.NewLogPublisher(w)
		defer w.Close()
		// Drain client logs in the background
		go worker.Run(ctx)
	}

	ready := map[string]controller.Pinger{"database": db}
	if seq != nil {
		ready["sequence"] = controller.SequencePinger(seq)
	}

	gin.SetMode(gin.ReleaseMode)
	server := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: routes.Router(routes.Deps{
			Todos:        behaviour.NewTodoBehaviour(repository.New[models.Todo](orm)),
			Accounts:     behaviour.NewAccountBehaviour(users, issuer),
			Tokens:       issuer,
			Logs:         controller.NewLogController(seq, publisher),
			Metrics:      metrics.New("todo_api"),
			Ready:        ready,
			WebAppURL:    cfg.WebAppURL,
			SettingsPath: cfg.AppSettings,
			AppVersion:   cfg.AppVersion,
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		logger.Info(ctx, "HTTP server listening", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "Server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info(ctx, "Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Server shutdown error", "error", err)
	}
	logger.Info(ctx, "Server stopped")
}
