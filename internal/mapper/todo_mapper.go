package mapper

import (
	"ai-taskpilot-be/internal/entity"
	"ai-taskpilot-be/internal/model"
)

type TodoMapper struct{}

func NewTodoMapper() *TodoMapper {
	return &TodoMapper{}
}

func (m *TodoMapper) ToEntity(t *model.Todo) *entity.Todo {
	if t == nil {
		return nil
	}
	return &entity.Todo{
		Id:            t.Id,
		PublicId:      t.PublicId,
		Title:         t.Title,
		DueAt:         t.DueAt,
		Status:        t.Status,
		ActionType:    t.ActionType,
		ActionMessage: t.ActionMessage,
		RepoPath:      t.RepoPath,
		Command:       t.Command,
		Workdir:       t.Workdir,
		Args:          t.Args,
		TestMode:      t.TestMode,
		Result:        t.Result,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
		DoneAt:        t.DoneAt,
	}
}

func (m *TodoMapper) ToModel(t *entity.Todo) *model.Todo {
	if t == nil {
		return nil
	}
	return &model.Todo{
		Id:            t.Id,
		PublicId:      t.PublicId,
		Title:         t.Title,
		DueAt:         t.DueAt,
		Status:        t.Status,
		ActionType:    t.ActionType,
		ActionMessage: t.ActionMessage,
		RepoPath:      t.RepoPath,
		Command:       t.Command,
		Workdir:       t.Workdir,
		Args:          t.Args,
		TestMode:      t.TestMode,
		Result:        t.Result,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
		DoneAt:        t.DoneAt,
	}
}

func (m *TodoMapper) ToEntities(models []*model.Todo) []*entity.Todo {
	entities := make([]*entity.Todo, 0, len(models))
	for _, t := range models {
		entities = append(entities, m.ToEntity(t))
	}
	return entities
}
