package contract

import (
	"context"

	"ai-taskpilot-be/internal/entity"
	"ai-taskpilot-be/internal/repository/specification"

	"github.com/google/uuid"
)

type TodoRepository interface {
	Create(ctx context.Context, todo *entity.Todo) error
	Update(ctx context.Context, todo *entity.Todo) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Todo, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Todo, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
