package bootstrap

import (
	"context"
	"time"

	"pagefiber-be/internal/config"
	"pagefiber-be/internal/controller"
	"pagefiber-be/internal/handler"
	"pagefiber-be/internal/pkg/logger"
	"pagefiber-be/internal/repository/contract"
	"pagefiber-be/internal/repository/memory"
	"pagefiber-be/internal/repository/redisstore"
	"pagefiber-be/internal/repository/unitofwork"
	"pagefiber-be/internal/service"
	"pagefiber-be/internal/websocket"
	"pagefiber-be/pkg/embedding"
	"pagefiber-be/pkg/embedding/jina"
	"pagefiber-be/pkg/events"
	pktNats "pagefiber-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const containerModule = "Container"

type Container struct {
	// Controllers
	PageController  controller.IPageController
	SyncController  controller.ISyncController
	AdminController controller.IAdminController
	AlertHandler    *handler.AlertHandler

	// Background services, started by Start
	ConsumerService          service.IConsumerService
	CacheInvalidationService service.ICacheInvalidationService
	WebSocketHub             *websocket.Hub

	Logger logger.ILogger

	pubSub  *gochannel.GoChannel
	natsPub *pktNats.Publisher
	natsSub *pktNats.Subscriber
	rdb     *redis.Client
}

func newEmbeddingProvider(cfg *config.Config, log logger.ILogger) embedding.EmbeddingProvider {
	var provider embedding.EmbeddingProvider
	switch cfg.Ai.EmbeddingProvider {
	case "gemini":
		provider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
	case "jina":
		provider = jina.NewJinaProvider(cfg.Keys.Jina)
	default:
		provider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	}
	log.Info(containerModule, "Using embedding provider", map[string]interface{}{"provider": cfg.Ai.EmbeddingProvider})
	return provider
}

// newRedis returns nil when Redis is unreachable; the hub then stays local
// and the render cache falls back to memory.
func newRedis(url string, log logger.ILogger) *redis.Client {
	if url == "" {
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Warn(containerModule, "Failed to parse Redis URL, using it as address", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn(containerModule, "Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
		rdb.Close()
		return nil
	}
	return rdb
}

func newRenderCache(cfg *config.Config, rdb *redis.Client, log logger.ILogger) contract.RenderCache {
	if cfg.Render.CacheBackend == "redis" && rdb != nil {
		return redisstore.NewRenderCache(rdb, cfg.Render.CacheTTL, log)
	}
	if cfg.Render.CacheBackend == "redis" {
		log.Warn(containerModule, "Redis render cache requested but Redis is unavailable, using memory", nil)
	}
	return memory.NewRenderCache(cfg.Render.CacheTTL)
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	alertLogger := logger.NewIsolatedLogger(cfg.App.AlertLogFilePath)

	// 2. Event bus for embedding jobs
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewStdLogger(false, false),
	)

	// 3. Infrastructure. NATS and Redis are optional.
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		sysLogger.Warn(containerModule, "Failed to connect to NATS publisher", map[string]interface{}{"error": err.Error()})
		natsPub = nil
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		sysLogger.Warn(containerModule, "Failed to connect to NATS subscriber", map[string]interface{}{"error": err.Error()})
		natsSub = nil
	}
	// a nil *Publisher must not become a non-nil interface
	var eventPublisher events.Publisher
	if natsPub != nil {
		eventPublisher = natsPub
	}

	rdb := newRedis(cfg.App.RedisURL, sysLogger)
	wsHub := websocket.NewHub(rdb, alertLogger)
	renderCache := newRenderCache(cfg, rdb, sysLogger)

	// 4. Services
	embeddingProvider := newEmbeddingProvider(cfg, sysLogger)
	alertService := service.NewAlertService(wsHub, eventPublisher, alertLogger)
	pageRenderer := service.NewPageRenderer(renderCache, alertService, sysLogger)
	publisherService := service.NewPublisherService(cfg.Keys.EmbedTopic, pubSub)

	pageService := service.NewPageService(
		uowFactory,
		pageRenderer,
		embeddingProvider,
		service.SearchOptions{Threshold: cfg.Search.SimilarityThreshold, Limit: cfg.Search.Limit},
		sysLogger,
	)
	syncService := service.NewSyncService(uowFactory, renderCache, publisherService, eventPublisher, sysLogger)
	logService := service.NewLogService(alertLogger)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.EmbedTopic,
		uowFactory,
		pageRenderer,
		embeddingProvider,
		eventPublisher,
		service.ChunkOptions{Size: cfg.Render.ChunkSize, Overlap: cfg.Render.ChunkOverlap},
		sysLogger,
	)

	var cacheInvalidation service.ICacheInvalidationService
	if natsSub != nil {
		cacheInvalidation = service.NewCacheInvalidationService(natsSub, renderCache, sysLogger)
	}

	return &Container{
		PageController:  controller.NewPageController(pageService),
		SyncController:  controller.NewSyncController(syncService, cfg.App.JwtSecret),
		AdminController: controller.NewAdminController(logService, pageService, cfg.App.JwtSecret),
		AlertHandler:    handler.NewAlertHandler(wsHub, cfg.App.JwtSecret, alertLogger),

		ConsumerService:          consumerService,
		CacheInvalidationService: cacheInvalidation,
		WebSocketHub:             wsHub,
		Logger:                   sysLogger,

		pubSub:  pubSub,
		natsPub: natsPub,
		natsSub: natsSub,
		rdb:     rdb,
	}
}

// Start launches the background workers. They stop when ctx is cancelled.
func (c *Container) Start(ctx context.Context) error {
	go c.WebSocketHub.Run(ctx)

	if err := c.ConsumerService.Consume(ctx); err != nil {
		return err
	}
	if c.CacheInvalidationService != nil {
		if err := c.CacheInvalidationService.Listen(ctx); err != nil {
			c.Logger.Warn(containerModule, "Cache invalidation listener not started", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

// Close releases connections opened by NewContainer
func (c *Container) Close() error {
	var err error
	if c.natsSub != nil {
		c.natsSub.Close()
	}
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	err = multierr.Append(err, c.pubSub.Close())
	if c.rdb != nil {
		err = multierr.Append(err, c.rdb.Close())
	}
	// stdout cannot always be synced, so the result is dropped
	_ = c.Logger.Sync()
	return err
}
