package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ai-taskpilot-be/internal/dto"
	"ai-taskpilot-be/internal/entity"
	"ai-taskpilot-be/internal/pkg/logger"
	"ai-taskpilot-be/internal/repository/specification"
	"ai-taskpilot-be/internal/repository/unitofwork"
	"ai-taskpilot-be/pkg/events"
	pktNats "ai-taskpilot-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService fires due todos: it marks them done, records what fired,
// and announces the firing on the event stream. Running the action payload
// itself (shell commands, repo checks) is a separate worker's job.
type consumerService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	natsPub    *pktNats.Publisher
	logger     logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	natsPub *pktNats.Publisher,
	logger logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
		natsPub:    natsPub,
		logger:     logger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.TaskDueMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("CONSUMER", "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	todo, err := uow.TodoRepository().FindOne(ctx, specification.ByPublicID{PublicID: payload.TodoPublicId})
	if err != nil {
		cs.logger.Error("CONSUMER", "Failed to load todo", map[string]interface{}{
			"todo_id": payload.TodoPublicId,
			"error":   err.Error(),
		})
		msg.Nack() // Nack for retriable errors
		return
	}
	if todo == nil || todo.IsDone() {
		// Deleted or already fired between scan and consume.
		msg.Ack()
		return
	}

	now := time.Now()
	todo.Status = entity.TodoStatusDone
	todo.DoneAt = &now
	todo.Result = fmt.Sprintf("fired %s action at %s: %s",
		todo.ActionType, now.Format("2006-01-02 15:04"), todo.ActionMessage)

	if err := uow.TodoRepository().Update(ctx, todo); err != nil {
		cs.logger.Error("CONSUMER", "Failed to mark todo done", map[string]interface{}{
			"todo_id": todo.PublicId,
			"error":   err.Error(),
		})
		msg.Nack()
		return
	}

	if cs.natsPub != nil {
		if err := cs.natsPub.Publish(ctx, events.NewTodoDue(todo.PublicId, todo.Title, todo.ActionType)); err != nil {
			cs.logger.Warn("CONSUMER", "Failed to publish due event", map[string]interface{}{
				"todo_id": todo.PublicId,
				"error":   err.Error(),
			})
		}
	}

	cs.logger.Info("CONSUMER", "Todo fired", map[string]interface{}{"todo_id": todo.PublicId})
	msg.Ack()
}
