package contract

import (
	"context"

	"ai-taskpilot-be/internal/entity"
	"ai-taskpilot-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ScheduleRepository interface {
	Create(ctx context.Context, schedule *entity.Schedule) error
	Update(ctx context.Context, schedule *entity.Schedule) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Schedule, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Schedule, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
