package bootstrap

import (
	"context"
	"log"

	"ai-docchat-be/internal/config"
	"ai-docchat-be/internal/controller"
	"ai-docchat-be/internal/handler"
	"ai-docchat-be/internal/pkg/logger"
	"ai-docchat-be/internal/repository/memory"
	"ai-docchat-be/internal/repository/unitofwork"
	"ai-docchat-be/internal/service"
	"ai-docchat-be/internal/websocket"
	"ai-docchat-be/pkg/embedding"
	"ai-docchat-be/pkg/llm/factory"
	"ai-docchat-be/pkg/rag/search"

	pkgNats "ai-docchat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController   controller.IChatController
	IngestController controller.IIngestController

	// Background services (main.go runs these)
	ConsumerService service.IConsumerService

	// WebSockets & status push
	StatusHandler *handler.StatusHandler
	WebSocketHub  *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Model providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "openai" {
		embeddingProvider = embedding.NewOpenAIProvider(
			cfg.Ai.EmbeddingBaseURL,
			cfg.Ai.EmbeddingAPIKey,
			cfg.Ai.EmbeddingModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OPENAI (%s)", cfg.Ai.EmbeddingModel)
	} else {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.EmbeddingBaseURL,
			cfg.Ai.EmbeddingModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.ChatModel,
		cfg.Ai.LLMBaseURL,
		cfg.Ai.LLMAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.ChatModel)

	// 4. Infrastructure
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pkgNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.App.RedisAddr,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	wsLogger := logger.NewIsolatedLogger("logs/status.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 5. Retrieval core
	uow := uowFactory.NewUnitOfWork(context.Background())
	index := search.NewHybridIndex(uow.ChunkRepository(), embeddingProvider, sysLogger)
	checkpointCache := memory.NewCheckpointCache()

	// 6. Services
	chatService := service.NewChatService(
		uowFactory,
		llmProvider,
		index,
		checkpointCache,
		cfg.Ai.ChatModel,
		cfg.Ai.UtilityModel,
		cfg.Ai.RetrievalTopK,
		sysLogger,
	)
	ingestService := service.NewIngestService(uowFactory, pubSub, index, sysLogger)
	consumerService := service.NewConsumerService(pubSub, uowFactory, index, natsPub, sysLogger)

	statusService := service.NewNotificationService(natsSub, wsHub, wsLogger)
	if natsSub != nil {
		go statusService.Start()
	}

	statusHandler := handler.NewStatusHandler(wsHub, wsLogger)

	return &Container{
		ChatController:   controller.NewChatController(chatService),
		IngestController: controller.NewIngestController(ingestService),

		ConsumerService: consumerService,

		StatusHandler: statusHandler,
		WebSocketHub:  wsHub,
	}
}
