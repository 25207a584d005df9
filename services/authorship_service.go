package services

import (
	"context"
	"errors"
	"time"

	"research-registry-api/config"
	"research-registry-api/models"

	"gorm.io/gorm"
)

var (
	ErrAuthorshipNotFound      = errors.New("authorship not found")
	ErrInvalidAuthorshipStatus = errors.New("status must be approved or rejected")
)

// AuthorshipService exposes the review side of paper authorships.
type AuthorshipService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAuthorshipService(db *gorm.DB) *AuthorshipService {
	if db == nil {
		db = config.DB
	}
	return &AuthorshipService{db: db, now: time.Now}
}

func (s *AuthorshipService) ListForFaculty(ctx context.Context, facultyID uint) ([]models.PaperAuthorship, error) {
	var rows []models.PaperAuthorship
	if err := s.db.WithContext(ctx).Preload("Paper").
		Where("faculty_id = ?", facultyID).
		Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Decide moves an authorship to approved or rejected and stamps decided_at.
func (s *AuthorshipService) Decide(ctx context.Context, id uint, status string) (*models.PaperAuthorship, error) {
	if status != models.AuthorshipStatusApproved && status != models.AuthorshipStatusRejected {
		return nil, ErrInvalidAuthorshipStatus
	}
	now := s.now()
	res := s.db.WithContext(ctx).Model(&models.PaperAuthorship{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "decided_at": now})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrAuthorshipNotFound
	}
	var row models.PaperAuthorship
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}
