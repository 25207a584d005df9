package services

import (
	"context"
	"errors"
	"strings"

	"research-registry-api/config"
	"research-registry-api/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrPaperDOIRequired   = errors.New("doi is required")
	ErrPaperTitleRequired = errors.New("title is required")
	ErrDuplicateDOI       = errors.New("a paper with this doi already exists")
)

const untitledPaper = "Untitled Paper"

// AdHocPaper is one already-extracted {title, doi} pair attached to a single faculty member.
type AdHocPaper struct {
	Title string `json:"title"`
	DOI   string `json:"doi"`
}

type AdHocImportResult struct {
	PaperID           uint   `json:"paper_id"`
	DOI               string `json:"doi"`
	Title             string `json:"title"`
	Created           bool   `json:"created"`
	AuthorshipCreated bool   `json:"authorship_created"`
}

type PaperService struct {
	db *gorm.DB
}

func NewPaperService(db *gorm.DB) *PaperService {
	if db == nil {
		db = config.DB
	}
	return &PaperService{db: db}
}

func (s *PaperService) List(ctx context.Context) ([]models.Paper, error) {
	var papers []models.Paper
	if err := s.db.WithContext(ctx).Order("id DESC").Find(&papers).Error; err != nil {
		return nil, err
	}
	return papers, nil
}

// ListForFaculty returns papers whose membership includes the faculty row.
func (s *PaperService) ListForFaculty(ctx context.Context, facultyID uint) ([]models.Paper, error) {
	var papers []models.Paper
	if err := s.db.WithContext(ctx).
		Joins("JOIN paper_authors ON paper_authors.paper_id = papers.id").
		Where("paper_authors.faculty_id = ?", facultyID).
		Order("papers.id DESC").
		Find(&papers).Error; err != nil {
		return nil, err
	}
	return papers, nil
}

func (s *PaperService) Create(ctx context.Context, paper *models.Paper) error {
	if err := normalizePaperInput(paper); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createPaper(tx, paper)
	})
}

// CreateForFaculty stores the paper and links it to the faculty with a pending authorship.
func (s *PaperService) CreateForFaculty(ctx context.Context, facultyID uint, paper *models.Paper) error {
	if err := normalizePaperInput(paper); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := createPaper(tx, paper); err != nil {
			return err
		}
		_, err := NewGormRegistryStore(tx).EnsureAuthorship(ctx, paper.ID, facultyID)
		return err
	})
}

// ImportForFaculty get-or-creates each paper by DOI and links it to the faculty.
// Entries without a DOI are ignored; blank titles become "Untitled Paper".
func (s *PaperService) ImportForFaculty(ctx context.Context, facultyID uint, entries []AdHocPaper) ([]AdHocImportResult, error) {
	results := make([]AdHocImportResult, 0, len(entries))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := NewGormRegistryStore(tx)
		for _, entry := range entries {
			doi := strings.TrimSpace(entry.DOI)
			if doi == "" {
				continue
			}
			title := strings.TrimSpace(entry.Title)
			if title == "" {
				title = untitledPaper
			}
			paper, created, err := store.GetOrCreatePaper(ctx, doi, truncateRunes(title, models.PaperTitleMaxLength))
			if err != nil {
				return err
			}
			linked, err := store.EnsureAuthorship(ctx, paper.ID, facultyID)
			if err != nil {
				return err
			}
			results = append(results, AdHocImportResult{
				PaperID:           paper.ID,
				DOI:               paper.DOI,
				Title:             paper.Title,
				Created:           created,
				AuthorshipCreated: linked,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func normalizePaperInput(paper *models.Paper) error {
	if paper == nil {
		return errors.New("paper is nil")
	}
	paper.ID = 0
	paper.Authors = nil
	paper.DOI = strings.TrimSpace(paper.DOI)
	paper.Title = strings.TrimSpace(paper.Title)
	if paper.DOI == "" {
		return ErrPaperDOIRequired
	}
	if paper.Title == "" {
		return ErrPaperTitleRequired
	}
	paper.Title = truncateRunes(paper.Title, models.PaperTitleMaxLength)
	if paper.Themes == nil {
		paper.Themes = datatypes.JSONSlice[string]{}
	}
	if paper.Keywords == nil {
		paper.Keywords = datatypes.JSONSlice[string]{}
	}
	return nil
}

func createPaper(tx *gorm.DB, paper *models.Paper) error {
	exists, err := rowExists(tx, &models.Paper{}, "doi = ?", paper.DOI)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateDOI
	}
	return tx.Omit(clause.Associations).Create(paper).Error
}
