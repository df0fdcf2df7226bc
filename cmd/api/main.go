package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/staffsched/approvals/api/swagger" // swagger docs
	"github.com/staffsched/approvals/internal/config"
	"github.com/staffsched/approvals/internal/database"
	"github.com/staffsched/approvals/internal/email"
	"github.com/staffsched/approvals/internal/handler"
	"github.com/staffsched/approvals/internal/middleware"
	"github.com/staffsched/approvals/internal/repository"
	"github.com/staffsched/approvals/internal/service"
	"github.com/staffsched/approvals/internal/telemetry"
	"github.com/staffsched/approvals/internal/websocket"
	"github.com/staffsched/approvals/pkg/actiontoken"
	"github.com/staffsched/approvals/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// @title           Staff Scheduling Approvals API
// @version         1.0
// @description     Approval workflow for time-off and account requests: approver resolution, emailed one-click links and admin review.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	envPath := flag.String("env", "configs/.env", "optional dotenv file loaded before the config")
	flag.Parse()

	if err := run(*configPath, *envPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, envPath string) error {
	if _, err := os.Stat(configPath); err != nil {
		// defaults plus environment are enough to boot
		configPath = ""
	}
	cfg, err := config.Load(configPath, envPath)
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	shutdownTelemetry := telemetry.Setup(context.Background(), telemetry.Options{
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Insecure:    cfg.Telemetry.Insecure,
	}, log)

	db, err := database.NewConnection(database.Options{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.ConnectionString(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		AutoMigrate:     cfg.Database.AutoMigrate,
	}, log)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	log.Info("connected to database", zap.String("driver", cfg.Database.Driver))

	provider, err := email.NewProvider(cfg.Email.Provider, cfg.Email.ResendAPIKey, log)
	if err != nil {
		return err
	}
	signer, err := actiontoken.NewSigner(cfg.ActionTokenSecret())
	if err != nil {
		return err
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	wsHub := websocket.NewHub(log)
	go wsHub.Run(hubCtx)

	// Set up dependencies (Repository -> Service -> Handler)
	approvalRepo := repository.NewApprovalRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	orgRepo := repository.NewOrgRepository(db)
	timeOffRepo := repository.NewTimeOffRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTransactionManager(db)

	links := service.NewLinkBuilder(signer, cfg.Server.PublicBaseURL, cfg.Approval.LinkPath)
	auditService := service.NewAuditService(auditRepo, log)
	resolver := service.NewApproverResolver(orgRepo, profileRepo)
	notifier := service.NewNotificationService(provider, links, cfg.Email.FromAddress, log)
	materializer := service.NewMaterializer(timeOffRepo, profileRepo)

	submissionService := service.NewSubmissionService(approvalRepo, orgRepo, profileRepo, resolver, notifier, auditService, wsHub, log)
	resolutionService := service.NewResolutionService(approvalRepo, links, materializer, auditService, wsHub, log)
	approvalService := service.NewApprovalService(approvalRepo, txManager, materializer, auditService, wsHub, log)

	auth := middleware.NewAuth(cfg.JWTSecret())
	limiter := middleware.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)

	// Initialize Handlers
	healthHandler := handler.NewHealthHandler(db)
	submissionHandler := handler.NewSubmissionHandler(submissionService, auth, limiter)
	resolutionHandler := handler.NewResolutionHandler(resolutionService, limiter)
	approvalHandler := handler.NewApprovalHandler(approvalService, auth)
	auditHandler := handler.NewAuditHandler(auditService, auth)

	// Set up Gin Router
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	if cfg.Server.Mode != gin.ReleaseMode {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, auth)
	})

	root := router.Group("")
	healthHandler.RegisterRoutes(root)
	submissionHandler.RegisterRoutes(root)
	resolutionHandler.RegisterRoutes(root, cfg.Approval.LinkPath)
	approvalHandler.RegisterRoutes(root)
	auditHandler.RegisterRoutes(root)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      otelhttp.NewHandler(router, cfg.Telemetry.ServiceName),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-stop:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	stopHub()
	if err := shutdownTelemetry(ctx); err != nil {
		log.Warn("telemetry shutdown failed", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}
