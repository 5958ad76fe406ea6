package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-patrol-api/api/swagger"
	"github.com/noah-isme/sma-patrol-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-patrol-api/internal/middleware"
	"github.com/noah-isme/sma-patrol-api/internal/models"
	"github.com/noah-isme/sma-patrol-api/internal/repository"
	"github.com/noah-isme/sma-patrol-api/internal/service"
	"github.com/noah-isme/sma-patrol-api/pkg/cache"
	"github.com/noah-isme/sma-patrol-api/pkg/config"
	"github.com/noah-isme/sma-patrol-api/pkg/database"
	"github.com/noah-isme/sma-patrol-api/pkg/export"
	"github.com/noah-isme/sma-patrol-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-patrol-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-patrol-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-patrol-api/pkg/sheet"
)

// @title Campus Patrol Logbook API
// @version 1.0.0
// @description Patrol observations, leave requests and disciplinary recommendations
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logr.Sugar().Fatalw("invalid timezone", "timezone", cfg.Timezone, "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsSvc := service.NewMetricsService()

	store, err := openStore(ctx, cfg, metricsSvc)
	if err != nil {
		logr.Sugar().Fatalw("durable store unavailable", "driver", cfg.Store.Driver, "error", err)
	}
	defer store.Close() //nolint:errcheck

	inspectionRepo := repository.NewInspectionRepository(store, cfg.Sheets.Inspections)
	leaveRepo := repository.NewLeaveRepository(store, cfg.Sheets.Leaves)
	disciplineRepo := repository.NewDisciplineRepository(store, cfg.Sheets.Discipline)
	rosterRepo := repository.NewRosterRepository(store, cfg.Sheets.Roster)
	accountRepo := repository.NewAccountRepository(store, cfg.Sheets.Accounts)

	for _, ensure := range []func(context.Context) error{inspectionRepo.EnsureTable, leaveRepo.EnsureTable, disciplineRepo.EnsureTable} {
		if err := ensure(ctx); err != nil {
			logr.Sugar().Fatalw("failed to prepare logbook tables", "error", err)
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, running without shared roster cache", zap.Error(err))
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Roster.CacheTTL, logr, redisClient != nil)

	validate := validator.New()
	sessions := service.NewSessionStore(cfg.JWT.SessionIdleTTL)
	metricsSvc.TrackSessions(sessions.Len)

	authSvc := service.NewAuthService(accountRepo, sessions, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		AccountsCacheTTL:  cfg.Accounts.CacheTTL,
		AllowSelfDeclared: cfg.Accounts.AllowSelfDeclared,
		BootstrapAccount:  cfg.Accounts.BootstrapAccount,
		BootstrapPassword: cfg.Accounts.BootstrapPassword,
		BootstrapName:     cfg.Accounts.BootstrapName,
	})
	if err := authSvc.EnsureBootstrapAdmin(ctx); err != nil {
		logr.Sugar().Fatalw("failed to bootstrap account table", "error", err)
	}

	rosterSvc := service.NewRosterService(rosterRepo, cacheSvc, service.RosterConfig{
		CacheTTL:        cfg.Roster.CacheTTL,
		StudentIDLength: cfg.Roster.StudentIDLength,
		Departments:     cfg.Classes.Departments,
		Grades:          cfg.Classes.Grades,
		Sections:        cfg.Classes.Sections,
	}, logr)
	rosterSvc.RefreshIfExpired(ctx)
	authSvc.UseClassCatalog(rosterSvc.KnownClass)

	scoring := service.NewScoringTable()
	inspectionSvc := service.NewInspectionService(inspectionRepo, rosterSvc, scoring, validate, metricsSvc, logr, loc)
	leaveSvc, err := service.NewLeaveService(leaveRepo, rosterSvc, validate, metricsSvc, logr, service.LeaveConfig{
		LateReturnCutoff: cfg.Leave.LateReturnCutoff,
		Location:         loc,
	})
	if err != nil {
		logr.Sugar().Fatalw("invalid leave configuration", "error", err)
	}
	disciplineSvc := service.NewDisciplineService(disciplineRepo, rosterSvc, validate, metricsSvc, logr, loc)
	exportSvc := service.NewExportService(logr, export.NewCSVExporter(), export.NewPDFExporter(cfg.Print.FontPath, cfg.Print.FontFamily))
	maintenanceSvc := service.NewMaintenanceService(store, map[string]string{
		"inspections": cfg.Sheets.Inspections,
		"leaves":      cfg.Sheets.Leaves,
		"discipline":  cfg.Sheets.Discipline,
	}, logr)
	maintenanceSvc.RegisterSnapshot("roster", rosterSvc.Reload)
	maintenanceSvc.RegisterSnapshot("accounts", authSvc.ReloadAccounts)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, internalmiddleware.ContextSessionIDKey))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/metrics", "/health"))
	r.Use(internalmiddleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metricsSvc, map[string]handler.ReadinessCheck{
		"store": func(ctx context.Context) error {
			_, err := store.Values(ctx, cfg.Sheets.Accounts)
			return err
		},
		"cache": cacheSvc.Ready,
	})
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction && cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r.Group(cfg.APIPrefix), routeDeps{
		auth:        handler.NewAuthHandler(authSvc),
		roster:      handler.NewRosterHandler(rosterSvc, scoring),
		inspections: handler.NewInspectionHandler(inspectionSvc),
		leaves:      handler.NewLeaveHandler(leaveSvc, exportSvc),
		discipline:  handler.NewDisciplineHandler(disciplineSvc, exportSvc),
		admin:       handler.NewAdminHandler(maintenanceSvc),
		metrics:     metricsHandler,
		jwt:         internalmiddleware.JWT(authSvc),
		logger:      logr,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

type routeDeps struct {
	auth        *handler.AuthHandler
	roster      *handler.RosterHandler
	inspections *handler.InspectionHandler
	leaves      *handler.LeaveHandler
	discipline  *handler.DisciplineHandler
	admin       *handler.AdminHandler
	metrics     *handler.MetricsHandler
	jwt         gin.HandlerFunc
	logger      *zap.Logger
}

func registerRoutes(api *gin.RouterGroup, d routeDeps) {
	authGroup := api.Group("/auth")
	authGroup.POST("/login", d.auth.Login)
	authGroup.POST("/login/self-declared", d.auth.LoginSelfDeclared)
	authGroup.POST("/logout", d.jwt, d.auth.Logout)
	authGroup.GET("/me", d.jwt, d.auth.Me)

	secured := api.Group("")
	secured.Use(d.jwt)

	secured.GET("/roster/classes", d.roster.Classes)
	secured.GET("/roster/:studentId", d.roster.Resolve)
	secured.GET("/scoring/categories", d.roster.Categories)

	inspections := secured.Group("/inspections")
	inspections.POST("/staged", internalmiddleware.RequireMode(models.ModePatrol), d.inspections.Stage)
	inspections.GET("/staged", internalmiddleware.RequireMode(models.ModePatrol), d.inspections.Staged)
	inspections.DELETE("/staged", internalmiddleware.RequireMode(models.ModePatrol), d.inspections.Clear)
	inspections.POST("/commit", internalmiddleware.RequireMode(models.ModePatrol), internalmiddleware.Audit(d.logger, "inspections.commit"), d.inspections.Commit)
	inspections.GET("/summary", internalmiddleware.RequireMode(models.ModeReport, models.ModePatrol), d.inspections.Summary)

	leaves := secured.Group("/leaves")
	leaves.Use(internalmiddleware.RequireMode(models.ModeLeave))
	leaves.POST("/cart", d.leaves.Add)
	leaves.GET("/cart", d.leaves.Cart)
	leaves.DELETE("/cart", d.leaves.Clear)
	leaves.POST("/submit", internalmiddleware.Audit(d.logger, "leaves.submit"), d.leaves.Submit)
	leaves.GET("/receipt", d.leaves.Receipt)

	discipline := secured.Group("/discipline")
	discipline.Use(internalmiddleware.RequireMode(models.ModeDiscipline))
	discipline.POST("/cart", d.discipline.Add)
	discipline.GET("/cart", d.discipline.Cart)
	discipline.DELETE("/cart", d.discipline.Clear)
	discipline.POST("/submit", internalmiddleware.Audit(d.logger, "discipline.submit"), d.discipline.Submit)
	discipline.GET("/receipt", d.discipline.Receipt)

	admin := secured.Group("/admin")
	admin.Use(internalmiddleware.RequireMode(models.ModeMaintenance))
	admin.GET("/sheets", d.admin.Tables)
	admin.GET("/sheets/:table", d.admin.Read)
	admin.PUT("/sheets/:table", internalmiddleware.Audit(d.logger, "sheets.overwrite"), d.admin.Overwrite)
	admin.POST("/snapshots/reload", internalmiddleware.Audit(d.logger, "snapshots.reload"), d.admin.ReloadSnapshots)
	admin.GET("/metrics", d.metrics.Summary)
}

// openStore connects the configured durable store and prepares its schema.
func openStore(ctx context.Context, cfg *config.Config, metrics *service.MetricsService) (sheet.Store, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		return sheet.NewMemoryStore(), nil
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	store := sheet.NewSQLStore(db, metrics.ObserveStoreOperation)
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}
