package dto

import "time"

type CreateTodoRequest struct {
	Title         string `json:"title" validate:"required"`
	DueAt         string `json:"due_at" validate:"required"` // YYYY-MM-DD HH:MM
	ActionType    string `json:"action_type,omitempty" validate:"omitempty,oneof=note tag_check workorder_check shell"`
	ActionMessage string `json:"action_message,omitempty"`
	RepoPath      string `json:"repo_path,omitempty"`
	Command       string `json:"command,omitempty"`
	Workdir       string `json:"workdir,omitempty"`
	Args          string `json:"args,omitempty"`
	TestMode      *bool  `json:"test_mode,omitempty"`
}

type UpdateTodoRequest struct {
	Title         *string `json:"title,omitempty"`
	DueAt         *string `json:"due_at,omitempty"`
	ActionType    *string `json:"action_type,omitempty" validate:"omitempty,oneof=note tag_check workorder_check shell"`
	ActionMessage *string `json:"action_message,omitempty"`
}

type CloseTodoRequest struct {
	CloseNote string `json:"close_note,omitempty"`
}

type TodoResponse struct {
	Id            string     `json:"id"`
	Title         string     `json:"title"`
	DueAt         string     `json:"due_at"`
	Status        string     `json:"status"`
	ActionType    string     `json:"action_type"`
	ActionMessage string     `json:"action_message,omitempty"`
	Result        string     `json:"result,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	DoneAt        *time.Time `json:"done_at,omitempty"`
}

type CreateScheduleRequest struct {
	Title           string `json:"title" validate:"required"`
	Kind            string `json:"kind" validate:"required,oneof=daily weekly interval"`
	Time            string `json:"time,omitempty"`
	DayOfWeek       string `json:"day_of_week,omitempty" validate:"omitempty,oneof=mon tue wed thu fri sat sun"`
	IntervalMinutes int    `json:"interval_minutes,omitempty" validate:"omitempty,gt=0"`
	ActionType      string `json:"action_type,omitempty" validate:"omitempty,oneof=note tag_check workorder_check shell"`
	ActionMessage   string `json:"action_message,omitempty"`
	RepoPath        string `json:"repo_path,omitempty"`
	Command         string `json:"command,omitempty"`
}

type ScheduleResponse struct {
	Id         string    `json:"id"`
	Title      string    `json:"title"`
	Cadence    string    `json:"cadence"`
	ActionType string    `json:"action_type"`
	Enabled    bool      `json:"enabled"`
	CreatedAt  time.Time `json:"created_at"`
}

// TaskDueMessage rides the in-process bus from the heartbeat to the consumer.
type TaskDueMessage struct {
	TodoPublicId string `json:"todo_public_id"`
}
