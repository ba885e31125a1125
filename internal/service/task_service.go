package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ai-taskpilot-be/internal/constant"
	"ai-taskpilot-be/internal/dto"
	"ai-taskpilot-be/internal/entity"
	"ai-taskpilot-be/internal/repository/specification"
	"ai-taskpilot-be/internal/repository/unitofwork"
	"ai-taskpilot-be/pkg/events"
	pktNats "ai-taskpilot-be/pkg/nats"

	"github.com/google/uuid"
)

type ITaskService interface {
	ListTodos(ctx context.Context, includeDone bool) ([]*dto.TodoResponse, error)
	GetTodo(ctx context.Context, publicId string) (*dto.TodoResponse, error)
	CreateTodo(ctx context.Context, req *dto.CreateTodoRequest) (*dto.TodoResponse, error)
	UpdateTodo(ctx context.Context, publicId string, req *dto.UpdateTodoRequest) (*dto.TodoResponse, error)
	CloseTodo(ctx context.Context, publicId string, req *dto.CloseTodoRequest) error

	ListSchedules(ctx context.Context) ([]*dto.ScheduleResponse, error)
	CreateSchedule(ctx context.Context, req *dto.CreateScheduleRequest) (*dto.ScheduleResponse, error)
	CloseSchedule(ctx context.Context, publicId string) error
}

// taskService is the plain REST surface over the same store the assistant
// manages. It shares id and time conventions with the tool path so records
// created here are addressable in chat.
type taskService struct {
	uowFactory unitofwork.RepositoryFactory
	natsPub    *pktNats.Publisher
}

func NewTaskService(uowFactory unitofwork.RepositoryFactory, natsPub *pktNats.Publisher) ITaskService {
	return &taskService{
		uowFactory: uowFactory,
		natsPub:    natsPub,
	}
}

func (ts *taskService) ListTodos(ctx context.Context, includeDone bool) ([]*dto.TodoResponse, error) {
	uow := ts.uowFactory.NewUnitOfWork(ctx)

	specs := []specification.Specification{specification.OrderBy{Field: "due_at"}}
	if !includeDone {
		specs = append(specs, specification.OpenTodos{})
	}

	todos, err := uow.TodoRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.TodoResponse, 0, len(todos))
	for _, t := range todos {
		res = append(res, toTodoResponse(t))
	}
	return res, nil
}

func (ts *taskService) GetTodo(ctx context.Context, publicId string) (*dto.TodoResponse, error) {
	uow := ts.uowFactory.NewUnitOfWork(ctx)

	todo, err := uow.TodoRepository().FindOne(ctx, specification.ByPublicID{PublicID: publicId})
	if err != nil {
		return nil, err
	}
	if todo == nil {
		return nil, fmt.Errorf("todo %s not found", publicId)
	}
	return toTodoResponse(todo), nil
}

func (ts *taskService) CreateTodo(ctx context.Context, req *dto.CreateTodoRequest) (*dto.TodoResponse, error) {
	dueAt, err := time.ParseInLocation(constant.DueAtLayout, req.DueAt, time.Local)
	if err != nil {
		return nil, fmt.Errorf("due_at must be %s", constant.DueAtLayout)
	}

	actionType := req.ActionType
	if actionType == "" {
		actionType = constant.ActionNote
	}
	actionMessage := req.ActionMessage
	if actionMessage == "" {
		actionMessage = req.Title
	}

	todo := &entity.Todo{
		Id:            uuid.New(),
		PublicId:      publicId("todo"),
		Title:         req.Title,
		DueAt:         dueAt,
		Status:        entity.TodoStatusOpen,
		ActionType:    actionType,
		ActionMessage: actionMessage,
		RepoPath:      req.RepoPath,
		Command:       req.Command,
		Workdir:       req.Workdir,
		Args:          req.Args,
		TestMode:      req.TestMode,
		CreatedAt:     time.Now(),
	}

	uow := ts.uowFactory.NewUnitOfWork(ctx)
	if err := uow.TodoRepository().Create(ctx, todo); err != nil {
		return nil, err
	}

	if ts.natsPub != nil {
		_ = ts.natsPub.Publish(ctx, events.NewTodoCreated(todo.PublicId, todo.Title, req.DueAt, actionType))
	}
	return toTodoResponse(todo), nil
}

func (ts *taskService) UpdateTodo(ctx context.Context, publicId string, req *dto.UpdateTodoRequest) (*dto.TodoResponse, error) {
	uow := ts.uowFactory.NewUnitOfWork(ctx)

	todo, err := uow.TodoRepository().FindOne(ctx, specification.ByPublicID{PublicID: publicId})
	if err != nil {
		return nil, err
	}
	if todo == nil {
		return nil, fmt.Errorf("todo %s not found", publicId)
	}
	if todo.IsDone() {
		return nil, fmt.Errorf("todo %s is already done", publicId)
	}

	if req.Title != nil {
		todo.Title = *req.Title
	}
	if req.DueAt != nil {
		dueAt, err := time.ParseInLocation(constant.DueAtLayout, *req.DueAt, time.Local)
		if err != nil {
			return nil, fmt.Errorf("due_at must be %s", constant.DueAtLayout)
		}
		todo.DueAt = dueAt
	}
	if req.ActionType != nil {
		todo.ActionType = *req.ActionType
	}
	if req.ActionMessage != nil {
		todo.ActionMessage = *req.ActionMessage
	}

	now := time.Now()
	todo.UpdatedAt = &now
	if err := uow.TodoRepository().Update(ctx, todo); err != nil {
		return nil, err
	}
	return toTodoResponse(todo), nil
}

func (ts *taskService) CloseTodo(ctx context.Context, publicId string, req *dto.CloseTodoRequest) error {
	uow := ts.uowFactory.NewUnitOfWork(ctx)

	todo, err := uow.TodoRepository().FindOne(ctx, specification.ByPublicID{PublicID: publicId})
	if err != nil {
		return err
	}
	if todo == nil {
		return fmt.Errorf("todo %s not found", publicId)
	}
	if todo.IsDone() {
		return fmt.Errorf("todo %s is already done", publicId)
	}

	now := time.Now()
	todo.Status = entity.TodoStatusDone
	todo.DoneAt = &now
	if req != nil && req.CloseNote != "" {
		todo.Result = req.CloseNote
	}
	if err := uow.TodoRepository().Update(ctx, todo); err != nil {
		return err
	}

	if ts.natsPub != nil {
		_ = ts.natsPub.Publish(ctx, events.NewTodoClosed(todo.PublicId, todo.Title))
	}
	return nil
}

func (ts *taskService) ListSchedules(ctx context.Context) ([]*dto.ScheduleResponse, error) {
	uow := ts.uowFactory.NewUnitOfWork(ctx)

	schedules, err := uow.ScheduleRepository().FindAll(ctx,
		specification.EnabledSchedules{},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ScheduleResponse, 0, len(schedules))
	for _, s := range schedules {
		res = append(res, toScheduleResponse(s))
	}
	return res, nil
}

func (ts *taskService) CreateSchedule(ctx context.Context, req *dto.CreateScheduleRequest) (*dto.ScheduleResponse, error) {
	kind := strings.ToLower(req.Kind)
	switch kind {
	case entity.ScheduleKindDaily:
		if req.Time == "" {
			return nil, fmt.Errorf("daily schedules need a time (HH:MM)")
		}
	case entity.ScheduleKindWeekly:
		if req.DayOfWeek == "" || req.Time == "" {
			return nil, fmt.Errorf("weekly schedules need day_of_week and time")
		}
	case entity.ScheduleKindInterval:
		if req.IntervalMinutes <= 0 {
			return nil, fmt.Errorf("interval schedules need interval_minutes > 0")
		}
	}

	actionType := req.ActionType
	if actionType == "" {
		actionType = constant.ActionNote
	}
	actionMessage := req.ActionMessage
	if actionMessage == "" {
		actionMessage = req.Title
	}

	schedule := &entity.Schedule{
		Id:              uuid.New(),
		PublicId:        publicId("schedule"),
		Title:           req.Title,
		Kind:            kind,
		Time:            req.Time,
		DayOfWeek:       strings.ToLower(req.DayOfWeek),
		IntervalMinutes: req.IntervalMinutes,
		ActionType:      actionType,
		ActionMessage:   actionMessage,
		RepoPath:        req.RepoPath,
		Command:         req.Command,
		Enabled:         true,
		CreatedAt:       time.Now(),
	}

	uow := ts.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ScheduleRepository().Create(ctx, schedule); err != nil {
		return nil, err
	}

	if ts.natsPub != nil {
		_ = ts.natsPub.Publish(ctx, events.NewScheduleCreated(schedule.PublicId, schedule.Title, schedule.Label()))
	}
	return toScheduleResponse(schedule), nil
}

func (ts *taskService) CloseSchedule(ctx context.Context, publicId string) error {
	uow := ts.uowFactory.NewUnitOfWork(ctx)

	schedule, err := uow.ScheduleRepository().FindOne(ctx, specification.ByPublicID{PublicID: publicId})
	if err != nil {
		return err
	}
	if schedule == nil || !schedule.Enabled {
		return fmt.Errorf("schedule %s not found", publicId)
	}

	now := time.Now()
	schedule.Enabled = false
	schedule.DisabledAt = &now
	if err := uow.ScheduleRepository().Update(ctx, schedule); err != nil {
		return err
	}

	if ts.natsPub != nil {
		_ = ts.natsPub.Publish(ctx, events.NewScheduleClosed(schedule.PublicId, schedule.Title))
	}
	return nil
}

func publicId(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

func toTodoResponse(t *entity.Todo) *dto.TodoResponse {
	return &dto.TodoResponse{
		Id:            t.PublicId,
		Title:         t.Title,
		DueAt:         t.DueAt.Format(constant.DueAtLayout),
		Status:        t.Status,
		ActionType:    t.ActionType,
		ActionMessage: t.ActionMessage,
		Result:        t.Result,
		CreatedAt:     t.CreatedAt,
		DoneAt:        t.DoneAt,
	}
}

func toScheduleResponse(s *entity.Schedule) *dto.ScheduleResponse {
	return &dto.ScheduleResponse{
		Id:         s.PublicId,
		Title:      s.Title,
		Cadence:    s.Label(),
		ActionType: s.ActionType,
		Enabled:    s.Enabled,
		CreatedAt:  s.CreatedAt,
	}
}
