package specification

import (
	"time"

	"gorm.io/gorm"
)

type OpenTodos struct{}

func (s OpenTodos) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status <> ?", "done")
}

type DueBefore struct {
	Deadline time.Time
}

func (s DueBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("due_at <= ?", s.Deadline)
}

type EnabledSchedules struct{}

func (s EnabledSchedules) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("enabled = ?", true)
}
