package unitofwork

import (
	"context"

	"ai-taskpilot-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	TodoRepository() contract.TodoRepository
	ScheduleRepository() contract.ScheduleRepository
}
