package models

import (
	"time"

	"gorm.io/datatypes"
)

// PaperTitleMaxLength is the column width of papers.title.
const PaperTitleMaxLength = 500

// Paper represents a publication keyed by DOI.
type Paper struct {
	ID       uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	DOI      string  `gorm:"column:doi;type:varchar(255);not null;uniqueIndex" json:"doi"`
	Title    string  `gorm:"column:title;type:varchar(500);not null" json:"title"`
	Abstract *string `gorm:"column:abstract;type:text" json:"abstract,omitempty"`
	Journal  *string `gorm:"column:journal;type:varchar(255)" json:"journal,omitempty"`
	TCCount  int     `gorm:"column:tc_count;not null;default:0" json:"tc_count"`

	DatePublishedOnline *time.Time `gorm:"column:date_published_online;type:date" json:"date_published_online,omitempty"`
	DatePublishedPrint  *time.Time `gorm:"column:date_published_print;type:date" json:"date_published_print,omitempty"`

	LicenseURL  *string `gorm:"column:license_url;type:varchar(512)" json:"license_url,omitempty"`
	DownloadURL *string `gorm:"column:download_url;type:varchar(512)" json:"download_url,omitempty"`
	URL         *string `gorm:"column:url;type:varchar(512)" json:"url,omitempty"`

	Themes   datatypes.JSONSlice[string] `gorm:"column:themes" json:"themes"`
	Keywords datatypes.JSONSlice[string] `gorm:"column:keywords" json:"keywords"`

	Authors []Faculty `gorm:"many2many:paper_authors;constraint:OnDelete:CASCADE" json:"authors,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Paper) TableName() string { return "papers" }

// PaperAuthor is the raw many-to-many membership between papers and faculty.
type PaperAuthor struct {
	PaperID   uint `gorm:"primaryKey;column:paper_id" json:"paper_id"`
	FacultyID uint `gorm:"primaryKey;column:faculty_id" json:"faculty_id"`
}

func (PaperAuthor) TableName() string { return "paper_authors" }

const (
	AuthorshipStatusPending  = "pending"
	AuthorshipStatusApproved = "approved"
	AuthorshipStatusRejected = "rejected"
)

// PaperAuthorship is the reviewable authorship claim for one (paper, faculty) pair.
type PaperAuthorship struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	PaperID   uint       `gorm:"column:paper_id;not null;uniqueIndex:uniq_paper_faculty" json:"paper_id"`
	FacultyID uint       `gorm:"column:faculty_id;not null;uniqueIndex:uniq_paper_faculty;index" json:"faculty_id"`
	Status    string     `gorm:"column:status;type:varchar(10);not null;default:'pending'" json:"status"`
	DecidedAt *time.Time `gorm:"column:decided_at" json:"decided_at,omitempty"`

	Paper   *Paper   `gorm:"foreignKey:PaperID;constraint:OnDelete:CASCADE" json:"paper,omitempty"`
	Faculty *Faculty `gorm:"foreignKey:FacultyID;constraint:OnDelete:CASCADE" json:"faculty,omitempty"`
}

func (PaperAuthorship) TableName() string { return "paper_authorships" }

// IsValidAuthorshipStatus reports whether s is one of the review states.
func IsValidAuthorshipStatus(s string) bool {
	switch s {
	case AuthorshipStatusPending, AuthorshipStatusApproved, AuthorshipStatusRejected:
		return true
	}
	return false
}
