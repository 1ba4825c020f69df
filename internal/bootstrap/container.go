package bootstrap

import (
	"context"
	"log"
	"time"

	"doc-assistant-be/internal/config"
	"doc-assistant-be/internal/controller"
	"doc-assistant-be/internal/pkg/logger"
	"doc-assistant-be/internal/repository/memory"
	"doc-assistant-be/internal/repository/unitofwork"
	"doc-assistant-be/internal/service"
	"doc-assistant-be/pkg/chunker"
	"doc-assistant-be/pkg/extract"
	"doc-assistant-be/pkg/fingerprint"
	"doc-assistant-be/pkg/llm/factory"
	pktNats "doc-assistant-be/pkg/nats"
	ragmemory "doc-assistant-be/pkg/rag/memory"
	"doc-assistant-be/pkg/rag/orchestrator"
	"doc-assistant-be/pkg/rag/prompt"
	"doc-assistant-be/pkg/rag/retriever"
	"doc-assistant-be/pkg/vectorindex/pgvec"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	DocumentController  controller.IDocumentController
	AssistantController controller.IAssistantController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Retrieval Core
	splitter, err := chunker.New(chunker.Config{
		ChunkSize: cfg.Rag.ChunkSize,
		Overlap:   cfg.Rag.ChunkOverlap,
		Mode:      chunker.Mode(cfg.Rag.ChunkMode),
	})
	if err != nil {
		log.Fatalf("[FATAL] Invalid chunker configuration: %v", err)
	}

	generator, err := fingerprint.New(cfg.Rag.Dimension)
	if err != nil {
		log.Fatalf("[FATAL] Invalid fingerprint dimension: %v", err)
	}

	index := pgvec.New(db)
	if err := index.Migrate(); err != nil {
		log.Printf("[WARN] Failed to migrate vector index schema: %v", err)
	}

	extractor := extract.NewRegistry(nil)

	// Initialize LLM Provider based on Config
	llmProvider, err := factory.NewProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	var answerCache *memory.AnswerCache
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis, answer cache disabled: %v", err)
	} else {
		answerCache = memory.NewAnswerCache(rdb, time.Duration(cfg.Rag.AnswerCacheTTLSecs)*time.Second)
	}

	statusRepo := memory.NewStatusRepository()

	// 5. Assistant Core
	conversation := ragmemory.New(cfg.Rag.MemoryMaxTurns)
	searcher := retriever.New(generator, index, nil, sysLogger.Zap())
	prompts := prompt.NewBuilder(cfg.Rag.ContextBudget)
	engine := orchestrator.NewEngine(searcher, llmProvider, prompts, conversation, orchestrator.Config{
		TopK:               cfg.Rag.TopK,
		RelevanceThreshold: cfg.Rag.RelevanceThreshold,
		MaxRefinements:     cfg.Rag.MaxRefinements,
		MaxAnswerTokens:    cfg.Rag.MaxAnswerTokens,
	}, sysLogger.Zap())

	// 6. Services
	publisherService := service.NewPublisherService(cfg.App.IngestTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.App.IngestTopic,
		uowFactory,
		splitter,
		generator,
		index,
		statusRepo,
		natsPub,
	)

	documentService := service.NewDocumentService(
		uowFactory,
		extractor,
		statusRepo,
		publisherService,
		index,
		answerCache,
		natsPub,
	)
	assistantService := service.NewAssistantService(engine, conversation, answerCache, natsPub)

	// 7. Controllers
	documentController := controller.NewDocumentController(documentService)
	assistantController := controller.NewAssistantController(assistantService)

	sysLogger.Info("bootstrap", "Container initialized", map[string]interface{}{
		"chunk_mode": cfg.Rag.ChunkMode,
		"dimension":  cfg.Rag.Dimension,
		"top_k":      cfg.Rag.TopK,
	})

	return &Container{
		DocumentController:  documentController,
		AssistantController: assistantController,
		ConsumerService:     consumerService,
	}
}
