package models

import (
	"time"
)

const (
	DatasetImportRunStatusRunning = "running"
	DatasetImportRunStatusSuccess = "success"
	DatasetImportRunStatusFailed  = "failed"
	DatasetImportRunStatusDryRun  = "dry_run"
)

// DatasetImportRun audits one bulk faculty/paper import.
type DatasetImportRun struct {
	ID uint `json:"id" gorm:"primaryKey;autoIncrement"`

	RunKey        string     `json:"run_key" gorm:"type:varchar(36);not null;uniqueIndex"`
	TriggerSource string     `json:"trigger_source" gorm:"type:varchar(64);not null"`
	Status        string     `json:"status" gorm:"type:varchar(16);not null;default:'running'"`
	FacultyPath   string     `json:"faculty_path" gorm:"type:varchar(512)"`
	PapersPath    string     `json:"papers_path" gorm:"type:varchar(512)"`
	DryRun        bool       `json:"dry_run" gorm:"not null;default:false"`
	Reset         bool       `json:"reset" gorm:"not null;default:false"`
	MaxPapers     int        `json:"max_papers" gorm:"not null;default:0"`
	ErrorMessage  *string    `json:"error_message" gorm:"type:text"`
	StartedAt     time.Time  `json:"started_at" gorm:"column:started_at;autoCreateTime"`
	FinishedAt    *time.Time `json:"finished_at" gorm:"column:finished_at"`

	FacultyCreated uint `json:"faculty_created" gorm:"column:faculty_created;not null;default:0"`
	FacultyUpdated uint `json:"faculty_updated" gorm:"column:faculty_updated;not null;default:0"`
	FacultySkipped uint `json:"faculty_skipped" gorm:"column:faculty_skipped;not null;default:0"`
	PapersCreated  uint `json:"papers_created" gorm:"column:papers_created;not null;default:0"`
	PapersUpdated  uint `json:"papers_updated" gorm:"column:papers_updated;not null;default:0"`
	PapersSkipped  uint `json:"papers_skipped" gorm:"column:papers_skipped;not null;default:0"`
	LinkAttempts   uint `json:"link_attempts" gorm:"column:link_attempts;not null;default:0"`
	LinksCreated   uint `json:"links_created" gorm:"column:links_created;not null;default:0"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (DatasetImportRun) TableName() string { return "dataset_import_runs" }
