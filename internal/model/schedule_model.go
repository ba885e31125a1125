package model

import (
	"time"

	"github.com/google/uuid"
)

type Schedule struct {
	Id       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PublicId string    `gorm:"type:varchar(32);not null;uniqueIndex"`
	Title    string    `gorm:"type:varchar(255);not null;index"`

	Kind            string `gorm:"type:varchar(16);not null"`
	Time            string `gorm:"type:varchar(8)"`
	DayOfWeek       string `gorm:"type:varchar(8)"`
	IntervalMinutes int

	ActionType    string `gorm:"type:varchar(32);not null;default:'note'"`
	ActionMessage string `gorm:"type:text"`
	RepoPath      string `gorm:"type:text"`
	Command       string `gorm:"type:text"`
	Workdir       string `gorm:"type:text"`
	Args          string `gorm:"type:text"`
	TestMode      *bool

	Enabled    bool `gorm:"not null;default:true;index"`
	CreatedAt  time.Time
	DisabledAt *time.Time
}

func (Schedule) TableName() string {
	return "schedules"
}
