package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"research-registry-api/config"
	"research-registry-api/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRegistryStore implements RegistryStore and ImportStore on top of GORM.
type GormRegistryStore struct {
	db *gorm.DB
}

func NewGormRegistryStore(db *gorm.DB) *GormRegistryStore {
	if db == nil {
		db = config.DB
	}
	return &GormRegistryStore{db: db}
}

type gormTxStore struct {
	*GormRegistryStore
}

func (t *gormTxStore) Commit() error   { return t.db.Commit().Error }
func (t *gormTxStore) Rollback() error { return t.db.Rollback().Error }

func (s *GormRegistryStore) Begin(ctx context.Context) (TxStore, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("begin import transaction: %w", tx.Error)
	}
	return &gormTxStore{GormRegistryStore: &GormRegistryStore{db: tx}}, nil
}

func (s *GormRegistryStore) GetOrCreateFaculty(ctx context.Context, facultyID, name string) (*models.Faculty, bool, error) {
	db := s.db.WithContext(ctx)
	candidate := &models.Faculty{
		FacultyID:              facultyID,
		Name:                   name,
		ProfileVisibility:      true,
		DepartmentAffiliations: datatypes.JSONSlice[string]{},
		DOIs:                   datatypes.JSONSlice[string]{},
		Titles:                 datatypes.JSONSlice[string]{},
		Categories:             datatypes.JSONSlice[string]{},
		Keywords:               datatypes.JSONSlice[string]{},
	}
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "faculty_id"}},
		DoNothing: true,
	}).Create(candidate)
	if res.Error != nil {
		return nil, false, fmt.Errorf("insert faculty %s: %w", facultyID, res.Error)
	}

	var faculty models.Faculty
	if err := db.Where("faculty_id = ?", facultyID).First(&faculty).Error; err != nil {
		return nil, false, fmt.Errorf("load faculty %s: %w", facultyID, err)
	}
	return &faculty, res.RowsAffected > 0, nil
}

func (s *GormRegistryStore) SaveFaculty(ctx context.Context, faculty *models.Faculty) error {
	if faculty == nil {
		return errors.New("faculty is nil")
	}
	return s.db.WithContext(ctx).Omit(clause.Associations).Save(faculty).Error
}

func (s *GormRegistryStore) ListFaculty(ctx context.Context) ([]models.Faculty, error) {
	var out []models.Faculty
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormRegistryStore) GetOrCreatePaper(ctx context.Context, doi, title string) (*models.Paper, bool, error) {
	db := s.db.WithContext(ctx)
	candidate := &models.Paper{
		DOI:      doi,
		Title:    title,
		Themes:   datatypes.JSONSlice[string]{},
		Keywords: datatypes.JSONSlice[string]{},
	}
	res := db.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "doi"}},
		DoNothing: true,
	}).Create(candidate)
	if res.Error != nil {
		return nil, false, fmt.Errorf("insert paper %s: %w", doi, res.Error)
	}

	var paper models.Paper
	if err := db.Where("doi = ?", doi).First(&paper).Error; err != nil {
		return nil, false, fmt.Errorf("load paper %s: %w", doi, err)
	}
	return &paper, res.RowsAffected > 0, nil
}

func (s *GormRegistryStore) SavePaper(ctx context.Context, paper *models.Paper) error {
	if paper == nil {
		return errors.New("paper is nil")
	}
	return s.db.WithContext(ctx).Omit(clause.Associations).Save(paper).Error
}

func (s *GormRegistryStore) FindPaperByDOI(ctx context.Context, doi string) (*models.Paper, error) {
	return s.findPaper(ctx, "doi = ?", doi)
}

func (s *GormRegistryStore) FindPaperByDOIFold(ctx context.Context, doi string) (*models.Paper, error) {
	return s.findPaper(ctx, "LOWER(doi) = ?", strings.ToLower(doi))
}

func (s *GormRegistryStore) findPaper(ctx context.Context, where string, arg string) (*models.Paper, error) {
	var papers []models.Paper
	if err := s.db.WithContext(ctx).Where(where, arg).Order("id ASC").Limit(1).Find(&papers).Error; err != nil {
		return nil, err
	}
	if len(papers) == 0 {
		return nil, nil
	}
	return &papers[0], nil
}

func (s *GormRegistryStore) EnsureAuthorship(ctx context.Context, paperID, facultyID uint) (bool, error) {
	db := s.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.PaperAuthor{PaperID: paperID, FacultyID: facultyID}).Error; err != nil {
		return false, fmt.Errorf("link paper %d to faculty %d: %w", paperID, facultyID, err)
	}

	res := db.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "paper_id"}, {Name: "faculty_id"}},
		DoNothing: true,
	}).Create(&models.PaperAuthorship{
		PaperID:   paperID,
		FacultyID: facultyID,
		Status:    models.AuthorshipStatusPending,
	})
	if res.Error != nil {
		return false, fmt.Errorf("create authorship paper %d faculty %d: %w", paperID, facultyID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *GormRegistryStore) DeleteAllAuthorships(ctx context.Context) (int64, error) {
	return s.deleteAll(ctx, &models.PaperAuthorship{})
}

func (s *GormRegistryStore) DeleteAllPaperAuthors(ctx context.Context) (int64, error) {
	return s.deleteAll(ctx, &models.PaperAuthor{})
}

func (s *GormRegistryStore) DeleteAllPapers(ctx context.Context) (int64, error) {
	return s.deleteAll(ctx, &models.Paper{})
}

func (s *GormRegistryStore) DeleteAllFaculty(ctx context.Context) (int64, error) {
	return s.deleteAll(ctx, &models.Faculty{})
}

func (s *GormRegistryStore) deleteAll(ctx context.Context, model any) (int64, error) {
	res := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model)
	return res.RowsAffected, res.Error
}

// AcquireLock takes a named advisory lock on a dedicated connection so the
// release runs in the same session that acquired it.
func (s *GormRegistryStore) AcquireLock(ctx context.Context, name string) (func() error, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, err
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return nil, err
	}

	acquireSQL, releaseSQL := "SELECT GET_LOCK(?, 0)", "SELECT RELEASE_LOCK(?)"
	if s.db.Dialector.Name() == "postgres" {
		acquireSQL = "SELECT CASE WHEN pg_try_advisory_lock(hashtext($1)) THEN 1 ELSE 0 END"
		releaseSQL = "SELECT CASE WHEN pg_advisory_unlock(hashtext($1)) THEN 1 ELSE 0 END"
	}

	var ok sql.NullInt64
	if err := conn.QueryRowContext(ctx, acquireSQL, name).Scan(&ok); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if !ok.Valid || ok.Int64 != 1 {
		_ = conn.Close()
		return nil, ErrDatasetImportAlreadyRunning
	}

	return func() error {
		defer conn.Close()
		var released sql.NullInt64
		return conn.QueryRowContext(persistentContext(ctx), releaseSQL, name).Scan(&released)
	}, nil
}
