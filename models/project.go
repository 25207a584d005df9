package models

import (
	"time"

	"gorm.io/datatypes"
)

// Project represents the projects table
type Project struct {
	ID            uint                        `gorm:"primaryKey;autoIncrement" json:"id"`
	Title         string                      `gorm:"column:title;type:varchar(300);not null" json:"title" binding:"required"`
	Description   *string                     `gorm:"column:description;type:text" json:"description,omitempty"`
	StartDate     *time.Time                  `gorm:"column:start_date;type:date" json:"start_date,omitempty"`
	EndDate       *time.Time                  `gorm:"column:end_date;type:date" json:"end_date,omitempty"`
	FundingSource *string                     `gorm:"column:funding_source;type:varchar(200)" json:"funding_source,omitempty"`
	Status        *string                     `gorm:"column:status;type:varchar(100)" json:"status,omitempty"`
	Keywords      datatypes.JSONSlice[string] `gorm:"column:keywords" json:"keywords"`
	Link          *string                     `gorm:"column:link;type:varchar(512)" json:"link,omitempty"`

	Faculty []Faculty `gorm:"many2many:project_faculty;constraint:OnDelete:CASCADE" json:"faculty,omitempty"`
}

// TableName overrides the table name for Project
func (Project) TableName() string {
	return "projects"
}
