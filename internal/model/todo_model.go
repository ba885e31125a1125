package model

import (
	"time"

	"github.com/google/uuid"
)

type Todo struct {
	Id       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PublicId string    `gorm:"type:varchar(32);not null;uniqueIndex"`
	Title    string    `gorm:"type:varchar(255);not null;index"`
	DueAt    time.Time `gorm:"not null;index"`
	Status   string    `gorm:"type:varchar(16);not null;default:'open';index"`

	ActionType    string `gorm:"type:varchar(32);not null;default:'note'"`
	ActionMessage string `gorm:"type:text"`
	RepoPath      string `gorm:"type:text"`
	Command       string `gorm:"type:text"`
	Workdir       string `gorm:"type:text"`
	Args          string `gorm:"type:text"`
	TestMode      *bool

	Result    string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt *time.Time
	DoneAt    *time.Time
}

func (Todo) TableName() string {
	return "todos"
}
