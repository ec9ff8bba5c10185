package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Mo21aziz/erpexpress-sub000/internal/config"
	"github.com/Mo21aziz/erpexpress-sub000/internal/entity"
	"github.com/Mo21aziz/erpexpress-sub000/internal/handler"
	"github.com/Mo21aziz/erpexpress-sub000/internal/middleware"
	"github.com/Mo21aziz/erpexpress-sub000/internal/repository"
	"github.com/Mo21aziz/erpexpress-sub000/internal/service"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// A missing .env is fine; real deployments use environment variables.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting erpexpress service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := migrate(db); err != nil {
		zapLogger.Fatal("Failed to run migrations", zap.Error(err))
	}
	if err := seedRoles(db); err != nil {
		zapLogger.Fatal("Failed to seed roles", zap.Error(err))
	}

	rdb := initRedis(cfg.Redis)

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, db, rdb, cfg)
	handlers := handler.NewHandlers(services, cfg)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS(cfg.CORS.OriginList()))
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, handlers, cfg)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Role{},
		&entity.User{},
		&entity.Employee{},
		&entity.GerantEmployee{},
		&entity.Category{},
		&entity.Article{},
		&entity.BonDeCommande{},
		&entity.BonDeCommandeCategory{},
	)
}

// seedRoles guarantees the four built-in roles exist. Existing rows are left
// untouched.
func seedRoles(db *gorm.DB) error {
	names := []string{
		entity.RoleAdmin,
		entity.RoleResponsible,
		entity.RoleEmployee,
		entity.RoleGerant,
	}
	now := time.Now()
	for _, name := range names {
		role := entity.Role{
			ID:        uuid.New().String()[:32],
			Name:      name,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&role).Error; err != nil {
			return err
		}
	}
	return nil
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	api := r.Group("/api")
	{
		// Authentication (no token required)
		auth := api.Group("/auth")
		{
			auth.POST("/connect", h.Auth.Connect)
			auth.POST("/register", h.Auth.Register)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		authorized := api.Group("")
		authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
		{
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// User and role management
			users := authorized.Group("/users")
			{
				users.GET("", middleware.RequireRole(entity.RoleResponsible), h.User.List)
				users.POST("", middleware.RequireRole(entity.RoleResponsible), h.User.Create)
				users.GET("/employees", middleware.RequireRole(entity.RoleResponsible, entity.RoleGerant), h.User.ListEmployees)
				users.GET("/gerant/:id/employees", middleware.RequireRole(entity.RoleResponsible, entity.RoleGerant), h.User.GerantEmployees)
				users.PUT("/gerant/:id/employees", middleware.RequireRole(entity.RoleResponsible), h.User.ReplaceGerantEmployees)
				users.GET("/:id", h.User.Get)
				users.PUT("/:id", middleware.RequireRole(entity.RoleResponsible), h.User.Update)
				users.DELETE("/:id", middleware.RequireRole(entity.RoleResponsible), h.User.Delete)
			}
			authorized.GET("/roles", h.User.ListRoles)

			// Catalog
			categories := authorized.Group("/categories")
			{
				categories.GET("", h.Category.List)
				categories.POST("", middleware.RequireRole(entity.RoleResponsible), h.Category.Create)
				categories.GET("/:id", h.Category.Get)
				categories.PUT("/:id", middleware.RequireRole(entity.RoleResponsible), h.Category.Update)
				categories.DELETE("/:id", middleware.RequireRole(entity.RoleResponsible), h.Category.Delete)
			}

			articles := authorized.Group("/articles")
			{
				articles.GET("", h.Article.List)
				articles.POST("", middleware.RequireRole(entity.RoleResponsible), h.Article.Create)
				articles.GET("/by-category/:categoryId", h.Article.ListByCategory)
				articles.GET("/:id", h.Article.Get)
				articles.PUT("/:id", middleware.RequireRole(entity.RoleResponsible), h.Article.Update)
				articles.DELETE("/:id", middleware.RequireRole(entity.RoleResponsible), h.Article.Delete)
			}

			// Bons de commande
			bons := authorized.Group("/bon-de-commande")
			{
				bons.GET("", h.BonDeCommande.List)
				bons.POST("", h.BonDeCommande.Upsert)
				bons.PUT("/category/:id", h.BonDeCommande.UpdateLine)
				bons.GET("/:id", h.BonDeCommande.Get)
				bons.PUT("/:id", h.BonDeCommande.Update)
				bons.PUT("/:id/status", h.BonDeCommande.UpdateStatus)
				bons.DELETE("/:id", middleware.RequireRole(entity.RoleResponsible), h.BonDeCommande.Delete)
			}
		}
	}
}
