package app

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"assistant-portal/internal/background"
	"assistant-portal/internal/branding"
	"assistant-portal/internal/config"
	"assistant-portal/internal/handlers"
	"assistant-portal/internal/middleware"
	"assistant-portal/internal/models"
	"assistant-portal/internal/repository"
	"assistant-portal/internal/service"
	"assistant-portal/pkg/cache"
	"assistant-portal/pkg/logger"
)

const sessionCleanupJob = "chat-session-cleanup"

type Application struct {
	cfg     *config.Config
	variant branding.Variant

	db    *gorm.DB
	cache *cache.Cache

	chatHistory repository.ChatHistoryRepository
	chat        *service.ChatService

	siteHandler *handlers.SiteHandler
	chatHandler *handlers.ChatHandler

	scheduler   *background.Scheduler
	rateLimiter *middleware.RateLimitManager
	chatLimiter *middleware.RateLimitManager
	cancel      context.CancelFunc

	router *gin.Engine
	server *http.Server
}

func New(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	app := &Application{
		cfg:    cfg,
		cancel: cancel,
	}

	if err := app.initVariant(); err != nil {
		cancel()
		return nil, err
	}

	if err := app.initChatHistory(); err != nil {
		app.closeStores()
		cancel()
		return nil, err
	}

	if err := app.initServices(); err != nil {
		app.closeStores()
		cancel()
		return nil, err
	}

	app.initHandlers()

	app.scheduler = background.NewScheduler(background.SchedulerConfig{WorkerCount: 1, QueueSize: 8})
	app.scheduler.Start(ctx)
	if err := app.scheduleMaintenance(); err != nil {
		app.Shutdown(context.Background())
		return nil, err
	}

	app.rateLimiter = middleware.NewRateLimitManager(ctx, cfg.RateLimitRequests, cfg.RateLimitWindow, cfg.RateLimitBurst)
	app.chatLimiter = middleware.NewRateLimitManager(ctx, cfg.ChatRateLimit, cfg.RateLimitWindow, 0)
	app.initRouter()

	app.server = &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        app.router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   cfg.LLMTimeout + 30*time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	return app, nil
}

func (a *Application) Run() error {
	logger.Info("Server starting", map[string]interface{}{
		"port":        a.cfg.Port,
		"environment": a.cfg.Environment,
		"variant":     a.variant.Key,
		"chat_store":  a.cfg.ChatStore,
	})

	return a.server.ListenAndServe()
}

func (a *Application) Shutdown(ctx context.Context) error {
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			return err
		}
	}

	if a.scheduler != nil {
		if err := a.scheduler.Shutdown(ctx); err != nil {
			logger.Error(err, "Failed to stop background scheduler", nil)
		}
	}

	if a.rateLimiter != nil {
		a.rateLimiter.Shutdown()
	}
	if a.chatLimiter != nil {
		a.chatLimiter.Shutdown()
	}

	if a.cancel != nil {
		a.cancel()
	}

	a.closeStores()
	return nil
}

func (a *Application) Router() *gin.Engine {
	return a.router
}

func (a *Application) closeStores() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			logger.Error(err, "Failed to close cache connection", nil)
		}
		a.cache = nil
	}

	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			sqlDB.Close()
		}
		a.db = nil
	}
}

func (a *Application) initVariant() error {
	registry, err := branding.Load(a.cfg.SiteVariantsFile)
	if err != nil {
		return fmt.Errorf("failed to load site variants: %w", err)
	}

	variant, err := registry.Get(a.cfg.SiteVariant)
	if err != nil {
		return fmt.Errorf("failed to select site variant (available: %s): %w", strings.Join(registry.Keys(), ", "), err)
	}

	a.variant = variant
	logger.Info("Site variant loaded", map[string]interface{}{"variant": variant.Key, "name": variant.Name})
	return nil
}

func (a *Application) initChatHistory() error {
	switch a.cfg.ChatStore {
	case config.ChatStoreRedis:
		c, err := cache.NewCache(a.cfg.RedisURL, true)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.cache = c
		a.chatHistory = repository.NewRedisChatHistoryRepository(c, a.cfg.ChatSessionMaxAge)
	case config.ChatStorePostgres:
		if err := a.initDatabase(); err != nil {
			return err
		}
		if err := a.runMigrations(); err != nil {
			return err
		}
		a.chatHistory = repository.NewChatHistoryRepository(a.db)
	default:
		a.chatHistory = repository.NewMemoryChatHistoryRepository()
	}

	logger.Info("Chat history store ready", map[string]interface{}{"store": a.cfg.ChatStore})
	return nil
}

func (a *Application) initDatabase() error {
	logger.Info("Connecting to database", nil)

	db, err := gorm.Open(postgres.Open(a.cfg.DatabaseURL), &gorm.Config{
		Logger: logger.NewGormLogger(),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(time.Hour)

	a.db = db
	return nil
}

func (a *Application) runMigrations() error {
	if a.db == nil {
		return fmt.Errorf("database connection is not initialized")
	}

	logger.Info("Running database migrations", nil)

	if err := a.db.AutoMigrate(&models.ChatMessage{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := a.db.Exec("CREATE INDEX IF NOT EXISTS idx_chat_messages_session_time ON chat_messages(session_id, timestamp)").Error; err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	logger.Info("Database migration completed", nil)
	return nil
}

func (a *Application) initServices() error {
	completer, err := service.NewLlamaCompleter(service.LlamaCompleterOptions{
		Endpoint:   a.cfg.LLMEndpoint,
		HTTPClient: &http.Client{Timeout: a.cfg.LLMTimeout},
	})
	if err != nil {
		return fmt.Errorf("failed to configure completion backend: %w", err)
	}

	a.chat = service.NewChatService(a.chatHistory, completer, service.ChatServiceOptions{
		SystemPrompt:  a.cfg.SystemPrompt,
		HistoryWindow: a.cfg.ChatHistoryWindow,
		SessionMaxAge: a.cfg.ChatSessionMaxAge,
		ModelName:     a.cfg.LLMModelName,
		Completion: service.CompletionOptions{
			MaxTokens:     a.cfg.LLMMaxTokens,
			Temperature:   a.cfg.LLMTemperature,
			TopP:          a.cfg.LLMTopP,
			TopK:          a.cfg.LLMTopK,
			RepeatPenalty: a.cfg.LLMRepeatPenalty,
		},
	})
	return nil
}

func (a *Application) initHandlers() {
	a.siteHandler = handlers.NewSiteHandler(a.variant, a.cfg.ChatAPIBase)
	a.chatHandler = handlers.NewChatHandler(a.chat)
}

// scheduleMaintenance sweeps idle chat sessions even when no one is chatting.
func (a *Application) scheduleMaintenance() error {
	if a.cfg.ChatCleanupInterval <= 0 {
		return nil
	}

	return a.scheduler.Every(a.cfg.ChatCleanupInterval, a.cleanupJob())
}

func (a *Application) cleanupJob() background.Job {
	return background.Job{
		Name:        sessionCleanupJob,
		Timeout:     30 * time.Second,
		RetryPolicy: background.RetryPolicy{MaxRetries: 2, Backoff: 5 * time.Second},
		Run: func(ctx context.Context) error {
			_, err := a.chat.Cleanup(ctx)
			return err
		},
	}
}

func (a *Application) initRouter() {
	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(logger.GinLogger())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RateLimitMiddleware(a.rateLimiter))
	router.Use(middleware.SecurityHeadersMiddleware(a.cfg.ChatAPIBase, a.variant.ChatAPIBase))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     a.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	if a.cfg.EnableMetrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	router.Static("/static", a.cfg.StaticDir)
	router.StaticFile("/favicon.ico", filepath.Join(a.cfg.StaticDir, "favicon.ico"))

	router.GET("/", a.siteHandler.RenderHome)
	router.GET("/preferences", a.siteHandler.RenderPreferences)

	api := router.Group("/api")
	api.Use(middleware.NoIndexMiddleware())
	{
		api.GET("/", a.chatHandler.Status)
		api.GET("/health", a.chatHandler.Health)
		// Each stream holds a completion slot on the backend.
		api.POST("/chat/stream", middleware.RateLimitMiddleware(a.chatLimiter), a.chatHandler.Stream)
	}

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Route not found",
				"path":  c.Request.URL.Path,
			})
			return
		}
		a.siteHandler.RenderNotFound(c)
	})

	a.router = router
}
