package app

import (
	"adaptive_learning_backend/internal/config"
	"adaptive_learning_backend/internal/controller"
	"adaptive_learning_backend/internal/repository"
	"adaptive_learning_backend/internal/service"
	"adaptive_learning_backend/pkg/database"
	"adaptive_learning_backend/pkg/logger"
	"adaptive_learning_backend/pkg/monitoring"
	"adaptive_learning_backend/pkg/security"
	"adaptive_learning_backend/pkg/tracing"
	"context"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// flushInterval 学生记录后台落盘周期
const flushInterval = time.Minute

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	Redis    *redis.Client
	KB       *repository.KnowledgeRepository
	Learning *service.LearningService

	flushStop chan struct{}
}

type services struct {
	assessor *service.AssessorService
	content  *service.ContentService
	learning *service.LearningService
}

type controllers struct {
	assessment *controller.AssessmentController
	learning   *controller.LearningController
	content    *controller.ContentController
	progress   *controller.ProgressController
	health     *controller.HealthController
}

// initStore 按配置选择学生进度的持久化后端
func initStore(cfg *config.Config) (repository.ProgressStore, error) {
	if cfg.Storage.Type == "mysql" {
		db, err := database.InitDB(&cfg.Database)
		if err != nil {
			return nil, err
		}
		return repository.NewGormProgressStore(db)
	}
	return repository.NewFileProgressStore(cfg.Storage.FilePath), nil
}

func (a *App) initServices(cfg *config.Config, kb *repository.KnowledgeRepository, store repository.ProgressStore, rdb *redis.Client) (*services, error) {
	s := &services{}
	s.assessor = service.NewAssessorService(kb,
		cfg.Learning.FilterRecommendationsByLevel, cfg.Learning.MaxRecommendations)
	s.content = service.NewContentService(kb, rdb)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	learning, err := service.NewLearningService(kb, s.assessor, s.content, store, cfg.Learning, rng)
	if err != nil {
		return nil, err
	}
	s.learning = learning
	return s, nil
}

func (a *App) initControllers(s *services, kb *repository.KnowledgeRepository, rdb *redis.Client) *controllers {
	return &controllers{
		assessment: controller.NewAssessmentController(s.learning),
		learning:   controller.NewLearningController(s.learning),
		content:    controller.NewContentController(kb, s.content),
		progress:   controller.NewProgressController(s.learning),
		health:     controller.NewHealthController(kb, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests,
		time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks 周期性把学生记录整体落盘
func (a *App) startBackgroundTasks() {
	a.flushStop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(flushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := a.Learning.Flush(); err != nil {
					logger.Log.Error("periodic flush error", zap.Error(err))
				}
			case <-a.flushStop:
				return
			}
		}
	}()
}

// OnConfigReload 配置文件热更新回调，仅应用可在线调整的学习参数
func (a *App) OnConfigReload(cfg *config.Config) {
	a.Learning.UpdateConfig(cfg.Learning)
	logger.Log.Info("learning config reloaded")
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg.Server.Mode)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	kb, err := repository.NewKnowledgeRepository(cfg.Knowledge.CatalogPath)
	if err != nil {
		logger.Log.Fatal("Failed to load knowledge base", zap.Error(err))
		log.Fatalf("Failed to load knowledge base: %v", err)
	}
	logger.Log.Info("knowledge base loaded",
		zap.Int("topics", len(kb.Topics())), zap.Int("subtopics", kb.TotalSubtopics()))

	store, err := initStore(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize storage", zap.Error(err))
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
			log.Fatalf("Failed to initialize redis: %v", err)
		}
	}

	app := &App{
		Config: cfg,
		Redis:  rdb,
		KB:     kb,
	}

	services, err := app.initServices(cfg, kb, store, rdb)
	if err != nil {
		logger.Log.Fatal("Failed to initialize services", zap.Error(err))
		log.Fatalf("Failed to initialize services: %v", err)
	}
	app.Learning = services.learning
	controllers := app.initControllers(services, kb, rdb)

	// 监控初始化
	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("adaptive-learning", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers)

	app.startBackgroundTasks()

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	close(a.flushStop)
	if err := a.Learning.Flush(); err != nil {
		logger.Log.Error("final flush error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
