package service

import (
	"context"
	"sync"

	"ai-taskpilot-be/internal/dto"
	"ai-taskpilot-be/internal/pkg/logger"
	"ai-taskpilot-be/pkg/ai/router"
	"ai-taskpilot-be/pkg/store"
)

type IAssistantService interface {
	Chat(ctx context.Context, key store.SessionKey, req *dto.ChatRequest) (*dto.ChatResponse, error)
}

// assistantService fronts the router. Turns within one session are
// serialized so the confirmation handshake cannot interleave; distinct
// sessions proceed concurrently.
type assistantService struct {
	router *router.Router
	logger logger.ILogger

	mu    sync.Mutex
	locks map[string]*sessionLock
}

// sessionLock is reference counted so idle sessions do not pile up in the
// lock table.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func NewAssistantService(r *router.Router, logger logger.ILogger) IAssistantService {
	return &assistantService{
		router: r,
		logger: logger,
		locks:  make(map[string]*sessionLock),
	}
}

func (as *assistantService) Chat(ctx context.Context, key store.SessionKey, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	lock := as.acquireLock(key.String())
	defer as.releaseLock(key.String(), lock)

	as.logger.Info("ASSISTANT", "Turn received", map[string]interface{}{
		"session": key.String(),
	})

	resp := as.router.Respond(ctx, key, req.Message)

	as.logger.Info("ASSISTANT", "Turn settled", map[string]interface{}{
		"session": key.String(),
		"status":  resp.Status,
	})

	return &dto.ChatResponse{
		Status:  resp.Status,
		Reply:   resp.Message,
		Missing: resp.Missing,
		TraceId: key.TraceId,
	}, nil
}

func (as *assistantService) acquireLock(key string) *sessionLock {
	as.mu.Lock()
	lock, ok := as.locks[key]
	if !ok {
		lock = &sessionLock{}
		as.locks[key] = lock
	}
	lock.refs++
	as.mu.Unlock()

	lock.mu.Lock()
	return lock
}

func (as *assistantService) releaseLock(key string, lock *sessionLock) {
	lock.mu.Unlock()

	as.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(as.locks, key)
	}
	as.mu.Unlock()
}
