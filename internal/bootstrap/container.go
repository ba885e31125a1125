package bootstrap

import (
	"log"
	"time"

	"ai-taskpilot-be/internal/config"
	"ai-taskpilot-be/internal/constant"
	"ai-taskpilot-be/internal/controller"
	"ai-taskpilot-be/internal/pkg/logger"
	"ai-taskpilot-be/internal/repository/memory"
	"ai-taskpilot-be/internal/repository/unitofwork"
	"ai-taskpilot-be/internal/service"
	"ai-taskpilot-be/pkg/ai/agent"
	"ai-taskpilot-be/pkg/ai/guard"
	"ai-taskpilot-be/pkg/ai/intent"
	"ai-taskpilot-be/pkg/ai/router"
	"ai-taskpilot-be/pkg/ai/schema"
	"ai-taskpilot-be/pkg/ai/tools"
	"ai-taskpilot-be/pkg/llm/factory"

	pktNats "ai-taskpilot-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AssistantController controller.IAssistantController
	TaskController      controller.ITaskController

	// Background Services (Exposed for main.go to run)
	ConsumerService  service.IConsumerService
	HeartbeatService service.IHeartbeatService
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

	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// 3. LLM Provider
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// In-Memory Session Storage
	sessionRepo := memory.NewSessionRepository()

	// 4. Decision Core
	deps := schema.NewDependencyResolver(map[string]string{
		constant.ActionTagCheck:       cfg.Guard.TagCheckRepoPath,
		constant.ActionWorkorderCheck: cfg.Guard.WorkorderRepoPath,
	})

	executor := tools.NewExecutor(uowFactory, natsPublisher(natsPub), log.Default())
	taskGuard := guard.New(executor, deps)
	intentResolver := intent.NewResolver(llmProvider, log.Default())
	taskAgent := agent.NewController(llmProvider, taskGuard, executor, sessionRepo, log.Default())
	taskRouter := router.NewRouter(llmProvider, intentResolver, taskAgent, executor, log.Default())

	// 5. Services
	publisherService := service.NewPublisherService(cfg.App.TaskEventsTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.App.TaskEventsTopic,
		uowFactory,
		natsPub,
		sysLogger,
	)
	heartbeatService := service.NewHeartbeatService(
		uowFactory,
		publisherService,
		time.Duration(cfg.App.HeartbeatSeconds)*time.Second,
		logger.NewIsolatedLogger("logs/heartbeat.log"),
	)

	assistantService := service.NewAssistantService(taskRouter, sysLogger)
	taskService := service.NewTaskService(uowFactory, natsPub)

	// 6. Controllers
	return &Container{
		AssistantController: controller.NewAssistantController(assistantService),
		TaskController:      controller.NewTaskController(taskService),

		ConsumerService:  consumerService,
		HeartbeatService: heartbeatService,
	}
}

// natsPublisher keeps the executor free of a nil *Publisher hiding inside a
// non-nil interface when NATS is down.
func natsPublisher(p *pktNats.Publisher) tools.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}
