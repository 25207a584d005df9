package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"research-registry-api/config"
	"research-registry-api/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const DefaultDatasetImportLockName = "dataset_import_job"

type DatasetImportOutcomeKind string

const (
	OutcomeCommitted       DatasetImportOutcomeKind = "committed"
	OutcomeDryRunCompleted DatasetImportOutcomeKind = "dry_run_completed"
)

type DatasetImportInput struct {
	FacultyPath   string
	PapersPath    string
	DryRun        bool
	Reset         bool
	Max           int
	LockName      string
	TriggerSource string
	RecordRun     bool
}

type DatasetResetSummary struct {
	Authorships  int64 `json:"authorships"`
	PaperAuthors int64 `json:"paper_authors"`
	Papers       int64 `json:"papers"`
	Faculty      int64 `json:"faculty"`
}

type DatasetImportSummary struct {
	FacultyRecords int `json:"faculty_records"`
	FacultyCreated int `json:"faculty_created"`
	FacultyUpdated int `json:"faculty_updated"`
	FacultySkipped int `json:"faculty_skipped"`

	PaperRecords  int `json:"paper_records"`
	PapersCreated int `json:"papers_created"`
	PapersUpdated int `json:"papers_updated"`
	PapersSkipped int `json:"papers_skipped"`
	PapersCutOff  int `json:"papers_cut_off"`

	LinkAttempts     int `json:"link_attempts"`
	LinksCreated     int `json:"links_created"`
	DOILinkAttempts  int `json:"doi_link_attempts"`
	NameLinkAttempts int `json:"name_link_attempts"`

	Reset    *DatasetResetSummary `json:"reset,omitempty"`
	Duration time.Duration        `json:"-"`
}

// String renders the one-line summary printed by the CLI.
func (s *DatasetImportSummary) String() string {
	return fmt.Sprintf("DONE. faculty: created=%d, updated=%d | papers: created=%d, updated=%d | links=%d (new=%d)",
		s.FacultyCreated, s.FacultyUpdated, s.PapersCreated, s.PapersUpdated, s.LinkAttempts, s.LinksCreated)
}

// DatasetImportOutcome is returned for every run that reached the end of its
// pipeline. A dry run is an outcome, not an error.
type DatasetImportOutcome struct {
	Kind    DatasetImportOutcomeKind `json:"kind"`
	Summary *DatasetImportSummary    `json:"summary"`
	RunID   uint                     `json:"run_id,omitempty"`
}

func (o *DatasetImportOutcome) DryRun() bool {
	return o != nil && o.Kind == OutcomeDryRunCompleted
}

type datasetImportRunRecorder interface {
	Start(ctx context.Context, input *DatasetImportInput) (*models.DatasetImportRun, error)
	MarkSuccess(ctx context.Context, runID uint, summary *DatasetImportSummary) error
	MarkDryRun(ctx context.Context, runID uint, summary *DatasetImportSummary) error
	MarkFailure(ctx context.Context, runID uint, summary *DatasetImportSummary, err error) error
}

type DatasetImportJobService struct {
	store      ImportStore
	runService datasetImportRunRecorder
	reporter   *DatasetImportReporter
}

func NewDatasetImportJobService(db *gorm.DB) *DatasetImportJobService {
	if db == nil {
		db = config.DB
	}
	return &DatasetImportJobService{
		store:      NewGormRegistryStore(db),
		runService: NewDatasetImportRunService(db),
		reporter:   NewDatasetImportReporter(config.Current.ReportRecipients()),
	}
}

// NewDatasetImportJobServiceWithStore runs imports against store without run
// recording or report mail.
func NewDatasetImportJobServiceWithStore(store ImportStore) *DatasetImportJobService {
	return &DatasetImportJobService{store: store}
}

// importBatch carries one run through its phases.
type importBatch struct {
	input          *DatasetImportInput
	facultyRecords []Record
	paperRecords   []Record
	summary        *DatasetImportSummary
}

func (s *DatasetImportJobService) Run(ctx context.Context, input *DatasetImportInput) (*DatasetImportOutcome, error) {
	if input == nil {
		return nil, errors.New("input is nil")
	}
	if input.Max < 0 {
		return nil, errors.New("max must not be negative")
	}
	started := time.Now()

	batch, err := loadImportBatch(input)
	if err != nil {
		return nil, err
	}

	release, err := s.store.AcquireLock(ctx, input.LockName)
	if err != nil {
		return nil, err
	}
	if release != nil {
		defer func() {
			if relErr := release(); relErr != nil {
				config.Logger.Warn("failed to release dataset import lock", zap.String("lock", input.LockName), zap.Error(relErr))
			}
		}()
	}

	var run *models.DatasetImportRun
	if input.RecordRun && s.runService != nil {
		run, err = s.runService.Start(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("record dataset import run: %w", err)
		}
	}

	outcome, err := s.execute(ctx, batch)
	batch.summary.Duration = time.Since(started)

	if run != nil {
		s.finishRun(ctx, run.ID, outcome, batch.summary, err)
	}
	if s.reporter != nil {
		if mailErr := s.reporter.Send(input, outcome, batch.summary, err); mailErr != nil {
			config.Logger.Warn("failed to send dataset import report", zap.Error(mailErr))
		}
	}
	if err != nil {
		config.Logger.Error("dataset import failed", zap.String("trigger", input.TriggerSource), zap.Error(err))
		return nil, err
	}

	if run != nil {
		outcome.RunID = run.ID
	}
	if outcome.Kind == OutcomeCommitted {
		recordImportMetrics(input.TriggerSource, outcome.Summary)
	}
	config.Logger.Info("dataset import finished",
		zap.String("outcome", string(outcome.Kind)),
		zap.String("trigger", input.TriggerSource),
		zap.Int("faculty_created", outcome.Summary.FacultyCreated),
		zap.Int("faculty_updated", outcome.Summary.FacultyUpdated),
		zap.Int("papers_created", outcome.Summary.PapersCreated),
		zap.Int("papers_updated", outcome.Summary.PapersUpdated),
		zap.Int("link_attempts", outcome.Summary.LinkAttempts),
		zap.Int("links_created", outcome.Summary.LinksCreated),
		zap.Duration("duration", outcome.Summary.Duration))
	return outcome, nil
}

func (s *DatasetImportJobService) finishRun(ctx context.Context, runID uint, outcome *DatasetImportOutcome, summary *DatasetImportSummary, runErr error) {
	var err error
	switch {
	case runErr != nil:
		err = s.runService.MarkFailure(ctx, runID, summary, runErr)
	case outcome.Kind == OutcomeDryRunCompleted:
		err = s.runService.MarkDryRun(ctx, runID, summary)
	default:
		err = s.runService.MarkSuccess(ctx, runID, summary)
	}
	if err != nil {
		config.Logger.Warn("failed to finish dataset import run", zap.Uint("run_id", runID), zap.Error(err))
	}
}

func loadImportBatch(input *DatasetImportInput) (*importBatch, error) {
	facultyRecords, err := LoadRecords(input.FacultyPath)
	if err != nil {
		return nil, err
	}
	paperRecords, err := LoadRecords(input.PapersPath)
	if err != nil {
		return nil, err
	}
	return &importBatch{
		input:          input,
		facultyRecords: facultyRecords,
		paperRecords:   paperRecords,
		summary: &DatasetImportSummary{
			FacultyRecords: len(facultyRecords),
			PaperRecords:   len(paperRecords),
		},
	}, nil
}

func (s *DatasetImportJobService) execute(ctx context.Context, batch *importBatch) (*DatasetImportOutcome, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	finished := false
	defer func() {
		if !finished {
			if rbErr := tx.Rollback(); rbErr != nil {
				config.Logger.Warn("failed to roll back dataset import", zap.Error(rbErr))
			}
		}
	}()

	if batch.input.Reset && !batch.input.DryRun {
		if err := resetRegistry(ctx, tx, batch.summary); err != nil {
			return nil, err
		}
	}
	if err := upsertFacultyPhase(ctx, tx, batch); err != nil {
		return nil, err
	}
	linker, err := NewAuthorshipLinker(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("index faculty: %w", err)
	}
	if err := upsertPaperPhase(ctx, tx, batch); err != nil {
		return nil, err
	}
	links, err := linker.Run(ctx, batch.paperRecords)
	if err != nil {
		return nil, fmt.Errorf("link authorships: %w", err)
	}
	batch.summary.LinkAttempts = links.Attempts
	batch.summary.LinksCreated = links.Created
	batch.summary.DOILinkAttempts = links.DOIAttempts
	batch.summary.NameLinkAttempts = links.NameAttempts

	if batch.input.DryRun {
		finished = true
		if err := tx.Rollback(); err != nil {
			return nil, fmt.Errorf("roll back dry run: %w", err)
		}
		return &DatasetImportOutcome{Kind: OutcomeDryRunCompleted, Summary: batch.summary}, nil
	}

	finished = true
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit dataset import: %w", err)
	}
	return &DatasetImportOutcome{Kind: OutcomeCommitted, Summary: batch.summary}, nil
}

// resetRegistry deletes authorships, memberships, papers and faculty in that order.
func resetRegistry(ctx context.Context, store RegistryStore, summary *DatasetImportSummary) error {
	reset := &DatasetResetSummary{}
	var err error
	if reset.Authorships, err = store.DeleteAllAuthorships(ctx); err != nil {
		return fmt.Errorf("reset authorships: %w", err)
	}
	if reset.PaperAuthors, err = store.DeleteAllPaperAuthors(ctx); err != nil {
		return fmt.Errorf("reset paper authors: %w", err)
	}
	if reset.Papers, err = store.DeleteAllPapers(ctx); err != nil {
		return fmt.Errorf("reset papers: %w", err)
	}
	if reset.Faculty, err = store.DeleteAllFaculty(ctx); err != nil {
		return fmt.Errorf("reset faculty: %w", err)
	}
	summary.Reset = reset
	config.Logger.Warn("registry reset before import",
		zap.Int64("authorships", reset.Authorships),
		zap.Int64("paper_authors", reset.PaperAuthors),
		zap.Int64("papers", reset.Papers),
		zap.Int64("faculty", reset.Faculty))
	return nil
}

func upsertFacultyPhase(ctx context.Context, store RegistryStore, batch *importBatch) error {
	for i, rec := range batch.facultyRecords {
		created, skipped, err := UpsertFaculty(ctx, store, rec)
		if err != nil {
			return fmt.Errorf("faculty record %d: %w", i+1, err)
		}
		switch {
		case skipped:
			batch.summary.FacultySkipped++
		case created:
			batch.summary.FacultyCreated++
		default:
			batch.summary.FacultyUpdated++
		}
	}
	return nil
}

func upsertPaperPhase(ctx context.Context, store RegistryStore, batch *importBatch) error {
	records := batch.paperRecords
	if limit := batch.input.Max; limit > 0 && len(records) > limit {
		batch.summary.PapersCutOff = len(records) - limit
		records = records[:limit]
	}
	for i, rec := range records {
		created, skipped, err := UpsertPaper(ctx, store, rec)
		if err != nil {
			return fmt.Errorf("paper record %d: %w", i+1, err)
		}
		switch {
		case skipped:
			batch.summary.PapersSkipped++
		case created:
			batch.summary.PapersCreated++
		default:
			batch.summary.PapersUpdated++
		}
	}
	return nil
}
