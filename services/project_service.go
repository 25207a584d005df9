package services

import (
	"context"
	"errors"
	"strings"

	"research-registry-api/config"
	"research-registry-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrProjectTitleRequired  = errors.New("title is required")
	ErrPatentFieldsRequired  = errors.New("title and patent_number are required")
	ErrDuplicatePatentNumber = errors.New("a patent with this patent_number already exists")
)

type ProjectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	if db == nil {
		db = config.DB
	}
	return &ProjectService{db: db}
}

func (s *ProjectService) List(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if err := s.db.WithContext(ctx).Preload("Faculty").Order("id DESC").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func (s *ProjectService) ListForFaculty(ctx context.Context, facultyID uint) ([]models.Project, error) {
	var projects []models.Project
	if err := s.db.WithContext(ctx).
		Joins("JOIN project_faculty ON project_faculty.project_id = projects.id").
		Where("project_faculty.faculty_id = ?", facultyID).
		Order("projects.id DESC").
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// Create stores the project and, when facultyIDs are given, its faculty membership.
func (s *ProjectService) Create(ctx context.Context, project *models.Project, facultyIDs ...uint) error {
	if project == nil {
		return errors.New("project is nil")
	}
	project.ID = 0
	project.Faculty = nil
	project.Title = strings.TrimSpace(project.Title)
	if project.Title == "" {
		return ErrProjectTitleRequired
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(project).Error; err != nil {
			return err
		}
		return appendFaculty(tx, project, "Faculty", facultyIDs)
	})
}

type PatentService struct {
	db *gorm.DB
}

func NewPatentService(db *gorm.DB) *PatentService {
	if db == nil {
		db = config.DB
	}
	return &PatentService{db: db}
}

func (s *PatentService) List(ctx context.Context) ([]models.Patent, error) {
	var patents []models.Patent
	if err := s.db.WithContext(ctx).Preload("Faculty").Order("id DESC").Find(&patents).Error; err != nil {
		return nil, err
	}
	return patents, nil
}

func (s *PatentService) ListForFaculty(ctx context.Context, facultyID uint) ([]models.Patent, error) {
	var patents []models.Patent
	if err := s.db.WithContext(ctx).
		Joins("JOIN patent_faculty ON patent_faculty.patent_id = patents.id").
		Where("patent_faculty.faculty_id = ?", facultyID).
		Order("patents.id DESC").
		Find(&patents).Error; err != nil {
		return nil, err
	}
	return patents, nil
}

func (s *PatentService) Create(ctx context.Context, patent *models.Patent, facultyIDs ...uint) error {
	if patent == nil {
		return errors.New("patent is nil")
	}
	patent.ID = 0
	patent.Faculty = nil
	patent.Title = strings.TrimSpace(patent.Title)
	patent.PatentNumber = strings.TrimSpace(patent.PatentNumber)
	if patent.Title == "" || patent.PatentNumber == "" {
		return ErrPatentFieldsRequired
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := rowExists(tx, &models.Patent{}, "patent_number = ?", patent.PatentNumber)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicatePatentNumber
		}
		if err := tx.Omit(clause.Associations).Create(patent).Error; err != nil {
			return err
		}
		return appendFaculty(tx, patent, "Faculty", facultyIDs)
	})
}

func appendFaculty(tx *gorm.DB, owner any, association string, facultyIDs []uint) error {
	facultyIDs = uniqueIDs(facultyIDs)
	if len(facultyIDs) == 0 {
		return nil
	}
	var faculty []models.Faculty
	if err := tx.Where("id IN ?", facultyIDs).Find(&faculty).Error; err != nil {
		return err
	}
	if len(faculty) != len(facultyIDs) {
		return ErrFacultyNotFound
	}
	return tx.Model(owner).Omit("Faculty.*").Association(association).Append(&faculty)
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == 0 {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
