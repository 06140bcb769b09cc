package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"student-api/internal/blob"
	"student-api/internal/config"
	"student-api/internal/db"
	"student-api/internal/events"
	"student-api/internal/health"
	"student-api/internal/logger"
	"student-api/internal/metrics"
	"student-api/internal/middleware"
	"student-api/internal/student"

	"github.com/gin-gonic/gin"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
)

type App struct {
	config   *config.Config
	router   *gin.Engine
	server   *http.Server
	logger   *slog.Logger
	database *bun.DB
	producer *events.Producer
}

func New() *App {
	slogLogger := logger.NewWithServiceContext(ServiceName, Version)

	// Default logger so package-level slog calls share the JSON format
	slog.SetDefault(slogLogger)

	slogLogger.Info("initializing application")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	slogLogger.Info("config loaded", "env", cfg.Env)

	database := db.New(cfg.Database)

	ctx := context.Background()
	if err := db.RunMigrations(ctx, database, (*student.Major)(nil), (*student.Student)(nil)); err != nil {
		log.Fatal("failed to run migrations:", err)
	}
	if err := db.SeedMajors(ctx, database); err != nil {
		log.Fatal("failed to seed majors:", err)
	}

	blobStore, err := blob.NewStore(cfg.Upload.Dir, slogLogger)
	if err != nil {
		log.Fatal("failed to initialize blob store:", err)
	}
	slogLogger.Info("blob store initialized", "dir", cfg.Upload.Dir)

	appMetrics, err := metrics.New(otel.GetMeterProvider().Meter(ServiceName))
	if err != nil {
		log.Fatal("failed to initialize metrics:", err)
	}

	// NATS is optional; the service runs without event publishing
	producer, err := events.NewProducer(cfg.NATS.URL, cfg.NATS.Subject, slogLogger)
	if err != nil {
		slogLogger.Warn("failed to initialize NATS producer", "error", err)
		producer = nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(slogLogger))
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))

	healthHandler := health.NewHandler(database)
	healthHandler.RegisterRoutes(router)

	studentRepo := student.NewRepository(database)
	studentService := student.NewService(studentRepo, blobStore, producer, slogLogger)
	studentHandler := student.NewHandler(studentService, slogLogger, appMetrics)

	api := router.Group("/api")
	studentHandler.RegisterRoutes(api)

	// Uploaded images are also reachable directly
	router.Static("/images", blobStore.Root())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Student Management API",
			"version": Version,
			"endpoints": gin.H{
				"students":      "/api/students",
				"addStudent":    "/api/students/add (POST)",
				"getStudent":    "/api/students/:id (GET)",
				"updateStudent": "/api/students/modify/:id (POST)",
				"deleteStudent": "/api/students/:id (DELETE)",
				"majors":        "/api/students/majors",
			},
		})
	})

	slogLogger.Info("application initialized successfully")

	return &App{
		config:   cfg,
		router:   router,
		logger:   slogLogger,
		database: database,
		producer: producer,
	}
}

func (a *App) Run() error {
	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  time.Duration(a.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(a.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(a.config.Server.IdleTimeout) * time.Second,
	}

	a.logger.Info("server starting", "port", a.config.Server.Port)
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down server")
	a.producer.Close()
	db.Close(a.database)
	return a.server.Shutdown(ctx)
}
