// guide-app/cmd/server/app.go
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/paimon-guide/guide-app/internal/app/bootstrap"
	"github.com/paimon-guide/guide-app/internal/app/listener"
	"github.com/paimon-guide/guide-app/internal/app/middleware"
	"github.com/paimon-guide/guide-app/internal/app/task"
	"github.com/paimon-guide/guide-app/internal/infra/persistence/database"
	"github.com/paimon-guide/guide-app/internal/infra/persistence/memory"
	mongo_impl "github.com/paimon-guide/guide-app/internal/infra/persistence/mongo"
	"github.com/paimon-guide/guide-app/internal/infra/router"
	"github.com/paimon-guide/guide-app/internal/infra/storage"
	"github.com/paimon-guide/guide-app/internal/infra/stream"
	"github.com/paimon-guide/guide-app/internal/pkg/event"
	"github.com/paimon-guide/guide-app/internal/pkg/utils"
	"github.com/paimon-guide/guide-app/internal/pkg/version"
	"github.com/paimon-guide/guide-app/pkg/config"
	"github.com/paimon-guide/guide-app/pkg/domain/repository"
	analytics_handler "github.com/paimon-guide/guide-app/pkg/handler/analytics"
	news_handler "github.com/paimon-guide/guide-app/pkg/handler/news"
	"github.com/paimon-guide/guide-app/pkg/service/analytics"
	"github.com/paimon-guide/guide-app/pkg/service/news"
	"github.com/paimon-guide/guide-app/pkg/service/utility"
)

// App 结构体，用于封装应用的所有核心组件
type App struct {
	cfg         *config.Config
	engine      *gin.Engine
	taskBroker  *task.Broker
	eventBus    *event.EventBus
	producer    *stream.KafkaProducer
	birthdaySvc news.BirthdayService
}

// repositories 一组仓储实现，Mongo 未配置时全部使用内存实现
type repositories struct {
	events     repository.AnalyticsEventRepository
	sessions   repository.SessionRepository
	news       repository.NewsRepository
	characters repository.CharacterRepository
}

func newRepositories(db *mongo.Database) repositories {
	if db == nil {
		return repositories{
			events:     memory.NewAnalyticsEventRepository(),
			sessions:   memory.NewSessionRepository(),
			news:       memory.NewNewsRepository(),
			characters: memory.NewCharacterRepository(),
		}
	}
	return repositories{
		events:     mongo_impl.NewAnalyticsEventRepository(db),
		sessions:   mongo_impl.NewSessionRepository(db),
		news:       mongo_impl.NewNewsRepository(db),
		characters: mongo_impl.NewCharacterRepository(db),
	}
}

func (a *App) PrintBanner() {
	log.Println("--------------------------------------------------------")
	log.Printf(" Paimon Guide App: %s", version.GetVersionString())
	log.Println("--------------------------------------------------------")
}

// NewApp 是应用的构造函数，它执行所有的初始化和依赖注入工作
func NewApp(cfg *config.Config) (*App, func(), error) {
	ctx := context.Background()

	// --- Phase 1: 初始化基础设施 ---
	mongoClient, mongoDB, err := database.NewMongoDatabase(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// 尝试连接 Redis（如果失败，将自动降级到内存缓存）
	redisClient, err := database.NewRedisClient(ctx, cfg)
	if err != nil {
		closeInfra(mongoClient, nil)
		return nil, nil, fmt.Errorf("redis 初始化失败: %w", err)
	}

	tempCleanup := func() { closeInfra(mongoClient, redisClient) }

	if mongoDB != nil {
		if err := database.NewMigrationService(mongoDB).RunMigrations(ctx); err != nil {
			return nil, tempCleanup, fmt.Errorf("数据库迁移失败: %w", err)
		}
	}

	producer, err := stream.NewKafkaProducer(cfg)
	if err != nil {
		return nil, tempCleanup, err
	}
	archiver, err := storage.NewS3Archiver(ctx, cfg)
	if err != nil {
		closeProducer(producer)
		return nil, tempCleanup, err
	}

	eventBus := event.NewEventBus()
	cacheSvc := utility.NewCacheServiceWithFallback(redisClient)

	// --- Phase 2: 初始化数据仓库层 ---
	repos := newRepositories(mongoDB)

	// --- Phase 3: 初始化应用引导程序 ---
	bootstrapper := bootstrap.NewBootstrapper(repos.characters, cfg.GetString(config.KeySeedCharactersFile))
	if err := bootstrapper.Initialize(ctx); err != nil {
		closeProducer(producer)
		return nil, tempCleanup, fmt.Errorf("数据初始化失败: %w", err)
	}

	// --- Phase 4: 初始化业务逻辑层 ---
	location := utils.FixedOffsetZone(cfg.GetInt(config.KeyAnalyticsUTCOffsetHours))
	adminPrefix := cfg.GetString(config.KeyAnalyticsAdminPathPrefix)

	ingestSvc := analytics.NewIngestService(repos.events, repos.sessions, cacheSvc, analytics.NewBucketClassifier(), eventBus,
		analytics.IngestOptions{
			AdminPathPrefix: adminPrefix,
			DedupeTTL:       time.Duration(cfg.GetInt(config.KeyAnalyticsDedupeSeconds)) * time.Second,
			Location:        location,
		})
	statsSvc := analytics.NewStatsService(repos.events, cacheSvc, analytics.StatsOptions{
		Location:          location,
		AdminPathPrefix:   adminPrefix,
		TopLimit:          cfg.GetInt(config.KeyAnalyticsTopLimit),
		DetailSampleLimit: cfg.GetInt(config.KeyAnalyticsDetailSampleLimit),
		CacheTTL:          time.Duration(cfg.GetInt(config.KeyAnalyticsStatsCacheSeconds)) * time.Second,
	})

	// 未启用归档时必须传入 nil 接口，而不是 nil 的 *S3Archiver
	var eventArchiver analytics.EventArchiver
	if archiver != nil {
		eventArchiver = archiver
	}
	resetSvc := analytics.NewResetService(repos.events, repos.sessions, eventArchiver, eventBus)

	author := cfg.GetString(config.KeyBirthdayAuthor)
	newsSvc := news.NewNewsService(repos.news, repos.characters, eventBus, author)
	birthdaySvc := news.NewBirthdayService(repos.characters, repos.news, cacheSvc, eventBus, news.BirthdayOptions{Author: author})

	// --- Phase 5: 事件监听与后台任务 ---
	_ = listener.NewStatsCacheListener(eventBus, statsSvc)
	if producer != nil {
		_ = listener.NewStreamMirrorListener(eventBus, producer)
	}

	taskBroker := task.NewBroker(birthdaySvc, resetSvc, task.BrokerOptions{
		BirthdayEnabled: cfg.GetBool(config.KeyBirthdayEnabled),
		BirthdayCron:    cfg.GetString(config.KeyBirthdayCron),
		RetentionDays:   cfg.GetInt(config.KeyAnalyticsRetentionDays),
	})

	// --- Phase 6: 初始化表现层 (Handlers) ---
	jwtSecret := cfg.GetString(config.KeyJWTSecret)
	if jwtSecret == "" {
		log.Println("⚠️  JWT.Secret 未配置，所有管理接口将拒绝访问")
	}
	mw := middleware.NewMiddleware(jwtSecret, cfg.GetString(config.KeyJWTIssuer))
	analyticsHandler := analytics_handler.NewHandler(ingestSvc, statsSvc, resetSvc)
	newsHandler := news_handler.NewHandler(newsSvc, birthdaySvc, taskBroker)

	// --- Phase 7: 初始化路由 ---
	appRouter := router.NewRouter(analyticsHandler, newsHandler, mw, router.Options{
		IngestRPM:   cfg.GetInt(config.KeyAnalyticsIngestRPM),
		IngestBurst: cfg.GetInt(config.KeyAnalyticsIngestBurst),
	})

	// --- Phase 8: 配置 Gin 引擎 ---
	if cfg.GetBool(config.KeyServerDebug) {
		gin.SetMode(gin.DebugMode)
		log.Println("运行模式: Debug (Gin 将打印详细路由日志)")
	} else {
		gin.SetMode(gin.ReleaseMode)
		log.Println("运行模式: Release (Gin 启动日志已禁用)")
	}

	engine := gin.Default()
	if err := engine.SetTrustedProxies([]string{"127.0.0.1", "::1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}); err != nil {
		closeProducer(producer)
		return nil, tempCleanup, fmt.Errorf("设置信任代理失败: %w", err)
	}
	engine.ForwardedByClientIP = true
	engine.Use(middleware.Cors())
	appRouter.Setup(engine)

	app := &App{
		cfg:         cfg,
		engine:      engine,
		taskBroker:  taskBroker,
		eventBus:    eventBus,
		producer:    producer,
		birthdaySvc: birthdaySvc,
	}

	cleanup := func() {
		if stopper, ok := cacheSvc.(interface{ Stop() }); ok {
			stopper.Stop()
		}
		closeInfra(mongoClient, redisClient)
	}

	log.Printf("✅ 应用初始化完成 (存储: %s, 缓存: %s)", storageKind(mongoDB), utility.GetCacheServiceType(cacheSvc))
	return app, cleanup, nil
}

func storageKind(db *mongo.Database) string {
	if db == nil {
		return "memory"
	}
	return "mongodb"
}

func closeProducer(p *stream.KafkaProducer) {
	if p == nil {
		return
	}
	if err := p.Close(); err != nil {
		log.Printf("关闭 Kafka 生产者失败: %v", err)
	}
}

func closeInfra(mongoClient *mongo.Client, redisClient *redis.Client) {
	log.Println("执行清理操作：关闭数据库连接...")
	if mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(ctx); err != nil {
			log.Printf("关闭 MongoDB 连接失败: %v", err)
		}
	}
	if redisClient != nil {
		log.Println("关闭 Redis 连接...")
		redisClient.Close()
	}
}

// BirthdayService 供命令行一次性执行生日检查
func (a *App) BirthdayService() news.BirthdayService {
	return a.birthdaySvc
}

// Run 启动后台任务并阻塞监听 HTTP 端口，ctx 取消后优雅退出
func (a *App) Run(ctx context.Context) error {
	if err := a.taskBroker.RegisterCronJobs(); err != nil {
		return err
	}
	a.taskBroker.CheckAndRunMissedBirthdayNews()
	a.taskBroker.Start()

	port := a.cfg.GetString(config.KeyServerPort)
	if port == "" {
		port = "8091"
	}
	srv := &http.Server{Addr: ":" + port, Handler: a.engine}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("应用程序启动成功，正在监听端口: %s", port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Println("收到退出信号，正在关闭 HTTP 服务...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Stop 停止调度器，排空事件总线，最后关闭消息流
func (a *App) Stop() {
	if a.taskBroker != nil {
		a.taskBroker.Stop()
		log.Println("任务调度器已停止。")
	}
	if a.eventBus != nil {
		a.eventBus.Shutdown()
	}
	closeProducer(a.producer)
}
