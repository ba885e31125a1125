package service

import (
	"context"
	"time"

	"ai-taskpilot-be/internal/dto"
	"ai-taskpilot-be/internal/pkg/logger"
	"ai-taskpilot-be/internal/repository/specification"
	"ai-taskpilot-be/internal/repository/unitofwork"
)

type IHeartbeatService interface {
	Run(ctx context.Context)
}

// heartbeatService ticks on a fixed interval and hands every due open todo to
// the consumer over the in-process bus. Firing semantics live in the
// consumer; the heartbeat only detects.
type heartbeatService struct {
	uowFactory unitofwork.RepositoryFactory
	publisher  IPublisherService
	interval   time.Duration
	logger     logger.ILogger
}

func NewHeartbeatService(
	uowFactory unitofwork.RepositoryFactory,
	publisher IPublisherService,
	interval time.Duration,
	logger logger.ILogger,
) IHeartbeatService {
	return &heartbeatService{
		uowFactory: uowFactory,
		publisher:  publisher,
		interval:   interval,
		logger:     logger,
	}
}

func (hs *heartbeatService) Run(ctx context.Context) {
	ticker := time.NewTicker(hs.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			hs.logger.Info("HEARTBEAT", "Heartbeat stopped", nil)
			return
		case <-ticker.C:
			hs.tick(ctx)
		}
	}
}

func (hs *heartbeatService) tick(ctx context.Context) {
	uow := hs.uowFactory.NewUnitOfWork(ctx)

	due, err := uow.TodoRepository().FindAll(ctx,
		specification.OpenTodos{},
		specification.DueBefore{Deadline: time.Now()},
	)
	if err != nil {
		hs.logger.Error("HEARTBEAT", "Due scan failed", map[string]interface{}{"error": err.Error()})
		return
	}

	for _, todo := range due {
		msg := dto.TaskDueMessage{TodoPublicId: todo.PublicId}
		if err := hs.publisher.Publish(msg); err != nil {
			hs.logger.Error("HEARTBEAT", "Publish due task failed", map[string]interface{}{
				"todo_id": todo.PublicId,
				"error":   err.Error(),
			})
			continue
		}
		hs.logger.Info("HEARTBEAT", "Due task dispatched", map[string]interface{}{"todo_id": todo.PublicId})
	}
}
