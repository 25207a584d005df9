package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"research-registry-api/config"
	"research-registry-api/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrDatasetImportRunNotFound = errors.New("dataset import run not found")
)

const datasetImportErrorMaxLength = 1000

type DatasetImportRunService struct {
	db *gorm.DB
}

func NewDatasetImportRunService(db *gorm.DB) *DatasetImportRunService {
	if db == nil {
		db = config.DB
	}
	return &DatasetImportRunService{db: db}
}

func (s *DatasetImportRunService) Start(ctx context.Context, input *DatasetImportInput) (*models.DatasetImportRun, error) {
	trigger := input.TriggerSource
	if trigger == "" {
		trigger = "unknown"
	}
	run := &models.DatasetImportRun{
		RunKey:        uuid.NewString(),
		TriggerSource: trigger,
		Status:        models.DatasetImportRunStatusRunning,
		FacultyPath:   input.FacultyPath,
		PapersPath:    input.PapersPath,
		DryRun:        input.DryRun,
		Reset:         input.Reset,
		MaxPapers:     input.Max,
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

func (s *DatasetImportRunService) MarkSuccess(ctx context.Context, runID uint, summary *DatasetImportSummary) error {
	return s.finish(ctx, runID, models.DatasetImportRunStatusSuccess, summary, nil)
}

func (s *DatasetImportRunService) MarkDryRun(ctx context.Context, runID uint, summary *DatasetImportSummary) error {
	return s.finish(ctx, runID, models.DatasetImportRunStatusDryRun, summary, nil)
}

func (s *DatasetImportRunService) MarkFailure(ctx context.Context, runID uint, summary *DatasetImportSummary, err error) error {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return s.finish(ctx, runID, models.DatasetImportRunStatusFailed, summary, &msg)
}

// List returns the most recent runs first.
func (s *DatasetImportRunService) List(ctx context.Context, limit int) ([]models.DatasetImportRun, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var runs []models.DatasetImportRun
	if err := s.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (s *DatasetImportRunService) finish(ctx context.Context, runID uint, status string, summary *DatasetImportSummary, errMsg *string) error {
	updates := map[string]interface{}{
		"status":      status,
		"finished_at": time.Now(),
	}
	if summary != nil {
		updates["faculty_created"] = summary.FacultyCreated
		updates["faculty_updated"] = summary.FacultyUpdated
		updates["faculty_skipped"] = summary.FacultySkipped
		updates["papers_created"] = summary.PapersCreated
		updates["papers_updated"] = summary.PapersUpdated
		updates["papers_skipped"] = summary.PapersSkipped
		updates["link_attempts"] = summary.LinkAttempts
		updates["links_created"] = summary.LinksCreated
	}
	if errMsg != nil {
		updates["error_message"] = truncateErrorMessage(*errMsg)
	}
	res := s.db.WithContext(persistentContext(ctx)).Model(&models.DatasetImportRun{}).Where("id = ?", runID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDatasetImportRunNotFound
	}
	return nil
}

// truncateErrorMessage cuts on rune boundaries so the column never receives a split character.
func truncateErrorMessage(msg string) string {
	runes := []rune(msg)
	if len(runes) > datasetImportErrorMaxLength {
		return fmt.Sprintf("%s...", string(runes[:datasetImportErrorMaxLength-3]))
	}
	return msg
}
