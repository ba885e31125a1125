package tools

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"ai-taskpilot-be/internal/constant"
	"ai-taskpilot-be/internal/entity"
	"ai-taskpilot-be/internal/repository/specification"
	"ai-taskpilot-be/internal/repository/unitofwork"
	"ai-taskpilot-be/pkg/ai/parser"
	"ai-taskpilot-be/pkg/events"

	"github.com/google/uuid"
)

// EventPublisher is the slice of the bus the executor needs. A nil publisher
// disables events without branching at every call site.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Executor runs guard-approved proposals against the persisted store. Domain
// refusals (already done, not found) come back as user-facing strings; the
// error return is reserved for infrastructure failures.
type Executor struct {
	uowFactory unitofwork.RepositoryFactory
	publisher  EventPublisher
	logger     *log.Logger
	now        func() time.Time
}

func NewExecutor(uowFactory unitofwork.RepositoryFactory, publisher EventPublisher, logger *log.Logger) *Executor {
	return &Executor{
		uowFactory: uowFactory,
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
	}
}

// Execute dispatches one approved proposal. Proposals reach this point only
// through the guard, so addressing arguments are already resolved.
func (e *Executor) Execute(ctx context.Context, proposal *parser.Proposal) (string, error) {
	switch proposal.ToolName {
	case constant.ToolAddTodo:
		return e.addTodo(ctx, proposal.Arguments)
	case constant.ToolAddSchedule:
		return e.addSchedule(ctx, proposal.Arguments)
	case constant.ToolUpdateTodo:
		return e.updateTodo(ctx, proposal.Arguments)
	case constant.ToolCloseTodo:
		return e.closeTodo(ctx, proposal.Arguments)
	case constant.ToolQueryTodos:
		return e.queryTodos(ctx, proposal.Arguments)
	case constant.ToolGetCurrentTime:
		return e.CurrentTime(), nil
	}
	return "", fmt.Errorf("unknown tool %q", proposal.ToolName)
}

// CurrentTime is the helper time capability for temporal grounding.
func (e *Executor) CurrentTime() string {
	return e.now().Format("2006-01-02 15:04:05 MST")
}

// MatchTitle implements guard.TitleMatcher over the persisted store.
func (e *Executor) MatchTitle(ctx context.Context, title string) ([]string, []string, error) {
	uow := e.uowFactory.NewUnitOfWork(ctx)

	todos, err := uow.TodoRepository().FindAll(ctx,
		specification.ByTitle{Title: title},
		specification.OpenTodos{},
	)
	if err != nil {
		return nil, nil, err
	}
	schedules, err := uow.ScheduleRepository().FindAll(ctx,
		specification.ByTitle{Title: title},
		specification.EnabledSchedules{},
	)
	if err != nil {
		return nil, nil, err
	}

	todoIds := make([]string, 0, len(todos))
	for _, t := range todos {
		todoIds = append(todoIds, t.PublicId)
	}
	scheduleIds := make([]string, 0, len(schedules))
	for _, s := range schedules {
		scheduleIds = append(scheduleIds, s.PublicId)
	}
	return todoIds, scheduleIds, nil
}

func newPublicId(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

func (e *Executor) publish(ctx context.Context, event events.Event) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, event); err != nil {
		e.logger.Printf("[EVENTS] publish %s failed: %v", event.EventType(), err)
	}
}

func (e *Executor) addTodo(ctx context.Context, args map[string]interface{}) (string, error) {
	title := argString(args, "title")
	actionType := argString(args, "action_type")
	if actionType == "" {
		actionType = constant.ActionNote
	}

	dueAt, msg := e.normalizeDueAt(argString(args, "due_at"))
	if msg != "" {
		return msg, nil
	}

	todo := &entity.Todo{
		Id:            uuid.New(),
		PublicId:      newPublicId("todo"),
		Title:         title,
		DueAt:         dueAt,
		Status:        entity.TodoStatusOpen,
		ActionType:    actionType,
		ActionMessage: defaultString(argString(args, "action_message"), title),
		RepoPath:      argString(args, "repo_path"),
		Command:       argString(args, "command"),
		Workdir:       argString(args, "workdir"),
		Args:          argString(args, "args"),
		TestMode:      argBool(args, "test_mode"),
		CreatedAt:     e.now(),
	}

	uow := e.uowFactory.NewUnitOfWork(ctx)
	if err := uow.TodoRepository().Create(ctx, todo); err != nil {
		return "", err
	}

	due := dueAt.Format(constant.DueAtLayout)
	e.publish(ctx, events.NewTodoCreated(todo.PublicId, title, due, actionType))
	return fmt.Sprintf("Added todo: %s, due %s (%s)", title, due, todo.PublicId), nil
}

func (e *Executor) addSchedule(ctx context.Context, args map[string]interface{}) (string, error) {
	title := argString(args, "title")
	kind := strings.ToLower(argString(args, "schedule_kind"))
	actionType := argString(args, "action_type")
	if actionType == "" {
		actionType = constant.ActionNote
	}

	schedule := &entity.Schedule{
		Id:            uuid.New(),
		PublicId:      newPublicId("schedule"),
		Title:         title,
		Kind:          kind,
		ActionType:    actionType,
		ActionMessage: defaultString(argString(args, "action_message"), title),
		RepoPath:      argString(args, "repo_path"),
		Command:       argString(args, "command"),
		Workdir:       argString(args, "workdir"),
		Args:          argString(args, "args"),
		TestMode:      argBool(args, "test_mode"),
		Enabled:       true,
		CreatedAt:     e.now(),
	}

	switch kind {
	case entity.ScheduleKindDaily:
		t, msg := normalizeClock(argString(args, "time"))
		if msg != "" {
			return msg, nil
		}
		schedule.Time = t
	case entity.ScheduleKindWeekly:
		day := strings.ToLower(argString(args, "day_of_week"))
		if !constant.ValidWeekdays[day] {
			return "day_of_week must be one of mon..sun.", nil
		}
		t, msg := normalizeClock(argString(args, "time"))
		if msg != "" {
			return msg, nil
		}
		schedule.DayOfWeek = day
		schedule.Time = t
	case entity.ScheduleKindInterval:
		minutes := argInt(args, "interval_minutes")
		if minutes <= 0 {
			return "interval_minutes must be a positive integer.", nil
		}
		schedule.IntervalMinutes = minutes
	default:
		return "schedule_kind must be daily, weekly, or interval.", nil
	}

	uow := e.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ScheduleRepository().Create(ctx, schedule); err != nil {
		return "", err
	}

	e.publish(ctx, events.NewScheduleCreated(schedule.PublicId, title, schedule.Label()))
	return fmt.Sprintf("Added recurring task: %s, %s (%s)", title, schedule.Label(), schedule.PublicId), nil
}

func (e *Executor) updateTodo(ctx context.Context, args map[string]interface{}) (string, error) {
	uow := e.uowFactory.NewUnitOfWork(ctx)

	todo, msg, err := e.findSingleTodo(ctx, uow, args)
	if err != nil || msg != "" {
		return msg, err
	}
	if todo.IsDone() {
		return "That todo is already done and cannot be updated.", nil
	}

	var changes []string
	if v := argString(args, "new_title"); v != "" {
		todo.Title = v
		changes = append(changes, "title")
	}
	if v := argString(args, "new_due_at"); v != "" {
		dueAt, dueMsg := e.normalizeDueAt(v)
		if dueMsg != "" {
			return dueMsg, nil
		}
		todo.DueAt = dueAt
		changes = append(changes, "due time")
	}
	if v := argString(args, "new_action_type"); v != "" {
		if !constant.AllowedActionTypes[v] {
			return fmt.Sprintf("unsupported new_action_type %q", v), nil
		}
		todo.ActionType = v
		todo.ActionMessage = defaultString(argString(args, "new_action_message"), todo.Title)
		todo.RepoPath = argString(args, "repo_path")
		todo.Command = argString(args, "command")
		todo.Workdir = argString(args, "workdir")
		todo.Args = argString(args, "args")
		todo.TestMode = argBool(args, "test_mode")
		changes = append(changes, "action")
	} else if argString(args, "new_action_message") != "" {
		todo.ActionMessage = argString(args, "new_action_message")
		changes = append(changes, "action")
	}

	if len(changes) == 0 {
		return "Nothing to update was provided.", nil
	}

	now := e.now()
	todo.UpdatedAt = &now
	if err := uow.TodoRepository().Update(ctx, todo); err != nil {
		return "", err
	}
	return fmt.Sprintf("Updated todo: %s (%s)", todo.Title, strings.Join(changes, ", ")), nil
}

func (e *Executor) closeTodo(ctx context.Context, args map[string]interface{}) (string, error) {
	ids := strings.Fields(argString(args, "todo_id"))
	if len(ids) == 0 {
		return "Please provide the todo id or title to close.", nil
	}

	closeNote := argString(args, "close_note")
	uow := e.uowFactory.NewUnitOfWork(ctx)
	now := e.now()

	// One query for the todo half of the batch; schedules are rare enough
	// to fetch one by one.
	var todoIds []string
	for _, id := range ids {
		if !strings.HasPrefix(id, "schedule-") {
			todoIds = append(todoIds, id)
		}
	}
	todosById := make(map[string]*entity.Todo, len(todoIds))
	if len(todoIds) > 0 {
		todos, err := uow.TodoRepository().FindAll(ctx, specification.ByPublicIDs{PublicIDs: todoIds})
		if err != nil {
			return "", err
		}
		for _, todo := range todos {
			todosById[todo.PublicId] = todo
		}
	}

	var closed, skipped []string
	for _, id := range ids {
		if strings.HasPrefix(id, "schedule-") {
			schedule, err := uow.ScheduleRepository().FindOne(ctx, specification.ByPublicID{PublicID: id})
			if err != nil {
				return "", err
			}
			if schedule == nil || !schedule.Enabled {
				skipped = append(skipped, id)
				continue
			}
			schedule.Enabled = false
			schedule.DisabledAt = &now
			if err := uow.ScheduleRepository().Update(ctx, schedule); err != nil {
				return "", err
			}
			e.publish(ctx, events.NewScheduleClosed(schedule.PublicId, schedule.Title))
			closed = append(closed, fmt.Sprintf("%s (%s)", id, schedule.Title))
			continue
		}

		todo := todosById[id]
		if todo == nil || todo.IsDone() {
			skipped = append(skipped, id)
			continue
		}
		todo.Status = entity.TodoStatusDone
		todo.DoneAt = &now
		if closeNote != "" {
			todo.Result = closeNote
		}
		if err := uow.TodoRepository().Update(ctx, todo); err != nil {
			return "", err
		}
		e.publish(ctx, events.NewTodoClosed(todo.PublicId, todo.Title))
		closed = append(closed, fmt.Sprintf("%s (%s)", id, todo.Title))
	}

	if len(closed) == 0 {
		return "No closable ids were found; please check and retry.", nil
	}
	if len(skipped) > 0 {
		return fmt.Sprintf("Closed: %s. Skipped: %s", strings.Join(closed, ", "), strings.Join(skipped, ", ")), nil
	}
	return fmt.Sprintf("Closed: %s", strings.Join(closed, ", ")), nil
}

func (e *Executor) queryTodos(ctx context.Context, args map[string]interface{}) (string, error) {
	includeScheduled := true
	if v, ok := args["include_scheduled"].(bool); ok {
		includeScheduled = v
	}
	detail := false
	if v, ok := args["detail"].(bool); ok {
		detail = v
	}
	// Compatibility argument: some model outputs say action=count|list.
	switch strings.ToLower(argString(args, "action")) {
	case "count":
		detail = false
	case "list", "detail":
		detail = true
	}
	limit := argInt(args, "limit")
	if limit <= 0 {
		limit = 10
	}

	uow := e.uowFactory.NewUnitOfWork(ctx)

	openTodos, err := uow.TodoRepository().FindAll(ctx,
		specification.OpenTodos{},
		specification.OrderBy{Field: "due_at"},
	)
	if err != nil {
		return "", err
	}

	var schedules []*entity.Schedule
	if includeScheduled {
		schedules, err = uow.ScheduleRepository().FindAll(ctx,
			specification.EnabledSchedules{},
			specification.OrderBy{Field: "created_at"},
		)
		if err != nil {
			return "", err
		}
	}

	var lines []string
	head := fmt.Sprintf("Open todos: %d", len(openTodos))
	if includeScheduled {
		head += fmt.Sprintf(", recurring schedules: %d", len(schedules))
	}
	lines = append(lines, head+".")

	if detail {
		if len(openTodos) > 0 {
			lines = append(lines, "Open todos:")
			for i, t := range openTodos {
				if i >= limit {
					break
				}
				lines = append(lines, fmt.Sprintf("- %s | %s | %s | %s",
					t.PublicId, t.Title, t.DueAt.Format(constant.DueAtLayout), t.ActionType))
			}
		}
		if includeScheduled && len(schedules) > 0 {
			lines = append(lines, "Recurring schedules:")
			for i, s := range schedules {
				if i >= limit {
					break
				}
				lines = append(lines, fmt.Sprintf("- %s | %s | %s", s.PublicId, s.Title, s.Label()))
			}
		}
	}

	return strings.Join(lines, "\n"), nil
}

// findSingleTodo resolves the addressing arguments to one open todo, or
// returns a user-facing message when it cannot.
func (e *Executor) findSingleTodo(ctx context.Context, uow unitofwork.UnitOfWork, args map[string]interface{}) (*entity.Todo, string, error) {
	if id := strings.TrimSpace(argString(args, "todo_id")); id != "" {
		if ids := strings.Fields(id); len(ids) > 1 {
			return nil, "Updates apply to one todo at a time; please pick one id.", nil
		}
		todo, err := uow.TodoRepository().FindOne(ctx, specification.ByPublicID{PublicID: id})
		if err != nil {
			return nil, "", err
		}
		if todo == nil {
			return nil, fmt.Sprintf("No todo with id %s was found.", id), nil
		}
		return todo, "", nil
	}

	title := argString(args, "title")
	if title == "" {
		return nil, "A todo_id or title is required to locate the todo.", nil
	}
	matches, err := uow.TodoRepository().FindAll(ctx, specification.ByTitle{Title: title})
	if err != nil {
		return nil, "", err
	}
	if len(matches) == 0 {
		return nil, fmt.Sprintf("No todo titled %q was found.", title), nil
	}
	if len(matches) > 1 {
		ids := make([]string, 0, len(matches))
		for _, m := range matches {
			ids = append(ids, m.PublicId)
		}
		return nil, fmt.Sprintf("Several todos share that title; please pick an id: %s", strings.Join(ids, ", ")), nil
	}
	return matches[0], "", nil
}

func (e *Executor) normalizeDueAt(value string) (time.Time, string) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return time.Time{}, "An execution time is required."
	}
	if len(raw) > len(constant.DueAtLayout) {
		// Tolerate trailing seconds from verbose model output.
		raw = raw[:len(constant.DueAtLayout)]
	}
	parsed, err := time.ParseInLocation(constant.DueAtLayout, raw, time.Local)
	if err != nil {
		return time.Time{}, "The execution time format must be YYYY-MM-DD HH:MM."
	}
	if parsed.Before(e.now().Add(-time.Minute)) {
		return time.Time{}, "The execution time is in the past; please confirm."
	}
	return parsed, ""
}

func normalizeClock(value string) (string, string) {
	raw := strings.TrimSpace(value)
	t, err := time.Parse(constant.TimeLayout, raw)
	if err != nil {
		// Accept single-digit hours like 9:00.
		t, err = time.Parse("15:4", raw)
		if err != nil {
			return "", "The time format must be HH:MM."
		}
	}
	return t.Format(constant.TimeLayout), ""
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func argString(args map[string]interface{}, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	if s, isStr := v.(string); isStr {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprintf("%v", v))
}

func argBool(args map[string]interface{}, key string) *bool {
	if v, ok := args[key].(bool); ok {
		return &v
	}
	return nil
}

func argInt(args map[string]interface{}, key string) int {
	switch v := args[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return 0
}
