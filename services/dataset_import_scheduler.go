package services

import (
	"context"
	"errors"
	"strings"

	"research-registry-api/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DatasetImportRunner is satisfied by DatasetImportJobService.
type DatasetImportRunner interface {
	Run(ctx context.Context, input *DatasetImportInput) (*DatasetImportOutcome, error)
}

// NewDatasetImportScheduler registers a periodic re-import of the configured
// dataset files. It returns nil when no schedule or paths are configured.
func NewDatasetImportScheduler(s *config.Settings, runner DatasetImportRunner) (*cron.Cron, error) {
	if s == nil || strings.TrimSpace(s.ImportCronSchedule) == "" {
		return nil, nil
	}
	if s.ImportFacultyPath == "" || s.ImportPapersPath == "" {
		return nil, errors.New("IMPORT_FACULTY_PATH and IMPORT_PAPERS_PATH are required for scheduled imports")
	}

	scheduler := cron.New()
	_, err := scheduler.AddFunc(s.ImportCronSchedule, func() {
		outcome, err := runner.Run(context.Background(), &DatasetImportInput{
			FacultyPath:   s.ImportFacultyPath,
			PapersPath:    s.ImportPapersPath,
			LockName:      DefaultDatasetImportLockName,
			TriggerSource: "cron",
			RecordRun:     true,
		})
		if errors.Is(err, ErrDatasetImportAlreadyRunning) {
			config.Logger.Info("scheduled dataset import skipped, another run holds the lock")
			return
		}
		if err != nil {
			config.Logger.Error("scheduled dataset import failed", zap.Error(err))
			return
		}
		config.Logger.Info("scheduled dataset import completed", zap.String("summary", outcome.Summary.String()))
	})
	if err != nil {
		return nil, err
	}
	return scheduler, nil
}
