package services

import (
	"context"
	"errors"

	"research-registry-api/models"
)

var (
	ErrDatasetImportAlreadyRunning = errors.New("dataset import already running")
)

// RegistryStore is the persistence surface used by the importer.
// GetOrCreate methods are a single conditional insert followed by a keyed read.
type RegistryStore interface {
	GetOrCreateFaculty(ctx context.Context, facultyID, name string) (*models.Faculty, bool, error)
	SaveFaculty(ctx context.Context, faculty *models.Faculty) error
	ListFaculty(ctx context.Context) ([]models.Faculty, error)

	GetOrCreatePaper(ctx context.Context, doi, title string) (*models.Paper, bool, error)
	SavePaper(ctx context.Context, paper *models.Paper) error
	// FindPaperByDOI returns nil, nil when no paper has the DOI.
	FindPaperByDOI(ctx context.Context, doi string) (*models.Paper, error)
	// FindPaperByDOIFold matches the DOI case-insensitively.
	FindPaperByDOIFold(ctx context.Context, doi string) (*models.Paper, error)

	// EnsureAuthorship adds the paper_authors membership and a pending
	// authorship when absent. created reports a new authorship row.
	EnsureAuthorship(ctx context.Context, paperID, facultyID uint) (created bool, err error)

	DeleteAllAuthorships(ctx context.Context) (int64, error)
	DeleteAllPaperAuthors(ctx context.Context) (int64, error)
	DeleteAllPapers(ctx context.Context) (int64, error)
	DeleteAllFaculty(ctx context.Context) (int64, error)
}

// TxStore is a RegistryStore bound to an open transaction.
type TxStore interface {
	RegistryStore
	Commit() error
	Rollback() error
}

// ImportStore opens import transactions and guards runs with an advisory lock.
type ImportStore interface {
	Begin(ctx context.Context) (TxStore, error)
	// AcquireLock returns a nil release func when name is empty.
	AcquireLock(ctx context.Context, name string) (release func() error, err error)
}

// persistentContext keeps ctx values but drops its cancellation, so lock
// release and run bookkeeping still reach the database after a cancel.
func persistentContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(ctx)
}
