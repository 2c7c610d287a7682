package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/minhopark/store-portal/internal"
	"github.com/minhopark/store-portal/internal/audit"
	auditPostgres "github.com/minhopark/store-portal/internal/audit/postgres"
	"github.com/minhopark/store-portal/internal/auth"
	authPostgres "github.com/minhopark/store-portal/internal/auth/postgres"
	"github.com/minhopark/store-portal/internal/authz"
	"github.com/minhopark/store-portal/internal/core/events"
	"github.com/minhopark/store-portal/internal/disposal"
	disposalPostgres "github.com/minhopark/store-portal/internal/disposal/postgres"
	"github.com/minhopark/store-portal/internal/inventory"
	inventoryPostgres "github.com/minhopark/store-portal/internal/inventory/postgres"
	"github.com/minhopark/store-portal/internal/transport/rest"
	"github.com/minhopark/store-portal/internal/transport/swagger"
	"github.com/minhopark/store-portal/internal/user"
	userPostgres "github.com/minhopark/store-portal/internal/user/postgres"
	"github.com/minhopark/store-portal/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// gorm shares the pgx stdlib pool so both ORM and sqlx paths see the
	// same connection limits.
	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	redisClient := events.NewRedisClient(config.Events)
	notifier := events.NewRedisNotifier(redisClient, config.Events.Channel, lg)

	registry := authz.DefaultRegistry()
	resolver := authz.NewResolver(registry, lg)
	guard := authz.NewGuard(resolver, "/forbidden")

	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authRepo := authPostgres.NewAuthRepository(gormDB, lg)
	authService := auth.NewService(authRepo, tokenGen)
	authHandler := auth.NewHandler(authService)
	authorization := auth.NewAuthorization(guard, lg)

	auditRepo := auditPostgres.NewAuditRepository(db, lg)
	auditService := audit.NewService(auditRepo, resolver, config.Audit.RetentionWindow(), lg)
	auditHandler := audit.NewHandler(auditService, lg)

	userRepo := userPostgres.NewUserRepository(gormDB, lg)
	userService := user.NewService(userRepo, resolver, auditService, notifier, config.Security.BCryptCost, lg)
	userHandler := user.NewHandler(userService, lg)

	sheetRepo := inventoryPostgres.NewSheetRepository(gormDB, lg)
	inventoryService := inventory.NewService(sheetRepo, resolver, notifier, config.Approval.EditWindow(), lg)
	inventoryHandler := inventory.NewHandler(inventoryService, lg)

	disposalRepo := disposalPostgres.NewDisposalRepository(gormDB, lg)
	disposalService := disposal.NewService(disposalRepo, resolver, notifier, lg)
	disposalHandler := disposal.NewHandler(disposalService, lg)

	if _, err := swagger.LoadSpec("./api/openapi.yml"); err != nil {
		lg.Warn("openapi spec validation failed, docs may be stale", "error", err)
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, db.DB, rest.Handlers{
		Auth:          authHandler,
		Authorization: authorization,
		User:          userHandler,
		Inventory:     inventoryHandler,
		Disposal:      disposalHandler,
		Audit:         auditHandler,
	}, config.Server.AllowedOrigins, lg)

	return &Dependencies{
		Config: config,
		Logger: lg,
		DB:     db,
		Router: router,
	}, nil
}

func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
