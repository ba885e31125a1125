package mapper

import (
	"ai-taskpilot-be/internal/entity"
	"ai-taskpilot-be/internal/model"
)

type ScheduleMapper struct{}

func NewScheduleMapper() *ScheduleMapper {
	return &ScheduleMapper{}
}

func (m *ScheduleMapper) ToEntity(s *model.Schedule) *entity.Schedule {
	if s == nil {
		return nil
	}
	return &entity.Schedule{
		Id:              s.Id,
		PublicId:        s.PublicId,
		Title:           s.Title,
		Kind:            s.Kind,
		Time:            s.Time,
		DayOfWeek:       s.DayOfWeek,
		IntervalMinutes: s.IntervalMinutes,
		ActionType:      s.ActionType,
		ActionMessage:   s.ActionMessage,
		RepoPath:        s.RepoPath,
		Command:         s.Command,
		Workdir:         s.Workdir,
		Args:            s.Args,
		TestMode:        s.TestMode,
		Enabled:         s.Enabled,
		CreatedAt:       s.CreatedAt,
		DisabledAt:      s.DisabledAt,
	}
}

func (m *ScheduleMapper) ToModel(s *entity.Schedule) *model.Schedule {
	if s == nil {
		return nil
	}
	return &model.Schedule{
		Id:              s.Id,
		PublicId:        s.PublicId,
		Title:           s.Title,
		Kind:            s.Kind,
		Time:            s.Time,
		DayOfWeek:       s.DayOfWeek,
		IntervalMinutes: s.IntervalMinutes,
		ActionType:      s.ActionType,
		ActionMessage:   s.ActionMessage,
		RepoPath:        s.RepoPath,
		Command:         s.Command,
		Workdir:         s.Workdir,
		Args:            s.Args,
		TestMode:        s.TestMode,
		Enabled:         s.Enabled,
		CreatedAt:       s.CreatedAt,
		DisabledAt:      s.DisabledAt,
	}
}

func (m *ScheduleMapper) ToEntities(models []*model.Schedule) []*entity.Schedule {
	entities := make([]*entity.Schedule, 0, len(models))
	for _, s := range models {
		entities = append(entities, m.ToEntity(s))
	}
	return entities
}
