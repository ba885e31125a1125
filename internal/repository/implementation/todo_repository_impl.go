package implementation

import (
	"context"
	"errors"

	"ai-taskpilot-be/internal/entity"
	"ai-taskpilot-be/internal/mapper"
	"ai-taskpilot-be/internal/model"
	"ai-taskpilot-be/internal/repository/contract"
	"ai-taskpilot-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TodoRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TodoMapper
}

func NewTodoRepository(db *gorm.DB) contract.TodoRepository {
	return &TodoRepositoryImpl{
		db:     db,
		mapper: mapper.NewTodoMapper(),
	}
}

func (r *TodoRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *TodoRepositoryImpl) Create(ctx context.Context, todo *entity.Todo) error {
	m := r.mapper.ToModel(todo)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*todo = *r.mapper.ToEntity(m)
	return nil
}

func (r *TodoRepositoryImpl) Update(ctx context.Context, todo *entity.Todo) error {
	m := r.mapper.ToModel(todo)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*todo = *r.mapper.ToEntity(m)
	return nil
}

func (r *TodoRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Todo{}, id).Error
}

func (r *TodoRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Todo, error) {
	var m model.Todo
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *TodoRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Todo, error) {
	var models []*model.Todo
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *TodoRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Todo{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
