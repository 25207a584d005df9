package models

import (
	"time"

	"gorm.io/datatypes"
)

// Patent represents the patents table
type Patent struct {
	ID           uint                        `gorm:"primaryKey;autoIncrement" json:"id"`
	Title        string                      `gorm:"column:title;type:varchar(300);not null" json:"title" binding:"required"`
	Abstract     *string                     `gorm:"column:abstract;type:text" json:"abstract,omitempty"`
	PatentNumber string                      `gorm:"column:patent_number;type:varchar(100);not null;uniqueIndex" json:"patent_number" binding:"required"`
	FilingDate   *time.Time                  `gorm:"column:filing_date;type:date" json:"filing_date,omitempty"`
	IssueDate    *time.Time                  `gorm:"column:issue_date;type:date" json:"issue_date,omitempty"`
	Link         *string                     `gorm:"column:link;type:varchar(512)" json:"link,omitempty"`
	AIKeywords   datatypes.JSONSlice[string] `gorm:"column:ai_keywords" json:"ai_keywords"`

	Faculty []Faculty `gorm:"many2many:patent_faculty;constraint:OnDelete:CASCADE" json:"faculty,omitempty"`
}

func (Patent) TableName() string {
	return "patents"
}
