package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByID struct {
	ID uuid.UUID
}

func (s ByID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id = ?", s.ID)
}

type ByPublicID struct {
	PublicID string
}

func (s ByPublicID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("public_id = ?", s.PublicID)
}

type ByPublicIDs struct {
	PublicIDs []string
}

func (s ByPublicIDs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("public_id IN ?", s.PublicIDs)
}

type ByTitle struct {
	Title string
}

func (s ByTitle) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("title = ?", s.Title)
}

type OrderBy struct {
	Field string
	Desc  bool
}

func (s OrderBy) Apply(db *gorm.DB) *gorm.DB {
	direction := "asc"
	if s.Desc {
		direction = "desc"
	}
	return db.Order(s.Field + " " + direction)
}

type Limit struct {
	Count int
}

func (s Limit) Apply(db *gorm.DB) *gorm.DB {
	return db.Limit(s.Count)
}
