package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	TodoStatusOpen = "open"
	TodoStatusDone = "done"
)

// Todo is a one-off task. PublicId is the short handle users see in chat
// (todo-xxxxxxxx); the uuid stays internal.
type Todo struct {
	Id       uuid.UUID
	PublicId string
	Title    string
	DueAt    time.Time
	Status   string

	ActionType    string
	ActionMessage string
	RepoPath      string
	Command       string
	Workdir       string
	Args          string
	TestMode      *bool

	Result    string
	CreatedAt time.Time
	UpdatedAt *time.Time
	DoneAt    *time.Time
}

func (t *Todo) IsDone() bool {
	return t.Status == TodoStatusDone
}
