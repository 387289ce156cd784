package bootstrap

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"

	"talkzilla/internal/config"
	"talkzilla/internal/constant"
	"talkzilla/internal/controller"
	"talkzilla/internal/mapper"
	"talkzilla/internal/pkg/logger"
	"talkzilla/internal/pkg/serverutils"
	"talkzilla/internal/repository/contract"
	"talkzilla/internal/repository/memory"
	"talkzilla/internal/repository/redisstore"
	"talkzilla/internal/service"
	"talkzilla/internal/session"
	"talkzilla/pkg/extract"
	"talkzilla/pkg/llm"
	"talkzilla/pkg/llm/factory"
	"talkzilla/pkg/markdown"
	"talkzilla/pkg/tokenizer"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	PageController  controller.IPageController
	ChatController  controller.IChatController
	UsageController controller.IUsageController

	// Background Services (Exposed for main.go to run)
	UsageService service.IUsageService

	Session serverutils.SessionConfig
	Logger  logger.ILogger

	closers []func() error
}

// Option overrides a dependency, mostly for tests.
type Option func(*overrides)

type overrides struct {
	counter     tokenizer.Counter
	llmProvider llm.StreamingProvider
	sysLogger   logger.ILogger
	auditLogger logger.ILogger
}

func WithCounter(counter tokenizer.Counter) Option {
	return func(o *overrides) { o.counter = counter }
}

func WithLLMProvider(provider llm.StreamingProvider) Option {
	return func(o *overrides) { o.llmProvider = provider }
}

func WithLoggers(sysLogger, auditLogger logger.ILogger) Option {
	return func(o *overrides) {
		o.sysLogger = sysLogger
		o.auditLogger = auditLogger
	}
}

func NewContainer(cfg *config.Config, opts ...Option) *Container {
	o := &overrides{}
	for _, opt := range opts {
		opt(o)
	}

	// 1. Logging
	sysLogger := o.sysLogger
	if sysLogger == nil {
		sysLogger = logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	}
	auditLogger := o.auditLogger
	if auditLogger == nil {
		auditLogger = logger.NewIsolatedLogger(cfg.App.AuditLogFilePath)
	}

	c := &Container{Logger: sysLogger}

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, pubSub.Close)

	// 3. Token counting
	counter := o.counter
	if counter == nil {
		var err error
		counter, err = tokenizer.New(cfg.Ai.TokenizerScheme)
		if err != nil {
			sysLogger.Warn("Bootstrap", "Tokenizer unavailable, using heuristic counts", map[string]interface{}{
				"encoding": cfg.Ai.TokenizerScheme,
				"error":    err.Error(),
			})
		}
	}

	// 4. Session storage
	sessionRepo := newSessionRepository(cfg, sysLogger, c)
	sessions := session.NewManager(sessionRepo, counter)

	// 5. LLM Provider
	llmProvider := o.llmProvider
	if llmProvider == nil {
		var err error
		llmProvider, err = factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMBaseURL, cfg.Ai.LLMTimeout)
		if err != nil {
			log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
		}
		sysLogger.Info("Bootstrap", "LLM provider ready", map[string]interface{}{
			"provider": cfg.Ai.LLMProvider,
			"base_url": cfg.Ai.LLMBaseURL,
		})
	}

	// 6. Services
	publisherService := service.NewPublisherService(constant.UsageTopicName, pubSub)
	usageService := service.NewUsageService(pubSub, constant.UsageTopicName, sysLogger)

	chatService := service.NewChatService(
		sessions,
		llmProvider,
		counter,
		extract.NewExtractor(),
		mapper.NewChatMapper(markdown.NewRenderer()),
		publisherService,
		sysLogger,
		auditLogger,
	)

	// 7. Session cookie
	secret := cfg.Session.Secret
	if secret == "" {
		secret = randomSecret()
		sysLogger.Warn("Bootstrap", "SESSION_SECRET is empty, sessions will not survive a restart", nil)
	}

	c.PageController = controller.NewPageController()
	c.ChatController = controller.NewChatController(chatService, sysLogger, cfg.Upload.MaxBytes)
	c.UsageController = controller.NewUsageController(usageService)
	c.UsageService = usageService
	c.Session = serverutils.SessionConfig{
		CookieName: cfg.Session.CookieName,
		Secret:     []byte(secret),
		TTL:        cfg.Session.TTL,
		Secure:     cfg.Session.Secure,
	}
	return c
}

func newSessionRepository(cfg *config.Config, sysLogger logger.ILogger, c *Container) contract.ChatSessionRepository {
	if cfg.Session.Store != "redis" {
		return memory.NewSessionRepository(cfg.Session.TTL)
	}

	opt, err := redis.ParseURL(cfg.Session.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.Session.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		sysLogger.Warn("Bootstrap", "Failed to connect to Redis, falling back to memory sessions", map[string]interface{}{
			"error": err.Error(),
		})
		_ = rdb.Close()
		return memory.NewSessionRepository(cfg.Session.TTL)
	}

	c.closers = append(c.closers, rdb.Close)
	return redisstore.NewSessionRepository(rdb, cfg.Session.TTL)
}

// Close releases background resources and flushes the logger.
func (c *Container) Close() {
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil {
			c.Logger.Warn("Bootstrap", "Close failed", map[string]interface{}{"error": err.Error()})
		}
	}
	_ = c.Logger.Sync()
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("[FATAL] Failed to generate session secret: %v", err)
	}
	return hex.EncodeToString(buf)
}
