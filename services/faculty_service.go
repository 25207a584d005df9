package services

import (
	"context"
	"errors"
	"sort"
	"strings"

	"research-registry-api/config"
	"research-registry-api/models"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"gorm.io/gorm"
)

var (
	ErrFacultyNotFound        = errors.New("faculty not found")
	ErrFacultyProfileNotFound = errors.New("no faculty profile for this account")
)

type FacultyService struct {
	db *gorm.DB
}

func NewFacultyService(db *gorm.DB) *FacultyService {
	if db == nil {
		db = config.DB
	}
	return &FacultyService{db: db}
}

// ListPublic returns approved, visible profiles. A non-empty query ranks them
// by fuzzy match over name and keywords and drops non-matches.
func (s *FacultyService) ListPublic(ctx context.Context, query string) ([]models.Faculty, error) {
	var faculty []models.Faculty
	if err := s.db.WithContext(ctx).
		Where("is_approved = ? AND profile_visibility = ?", true, true).
		Order("last_name ASC, first_name ASC, id ASC").
		Find(&faculty).Error; err != nil {
		return nil, err
	}
	return RankFaculty(query, faculty), nil
}

// RankFaculty orders faculty by fuzzy distance to query; blank queries keep the input.
func RankFaculty(query string, faculty []models.Faculty) []models.Faculty {
	query = strings.TrimSpace(query)
	if query == "" {
		return faculty
	}
	targets := make([]string, len(faculty))
	for i := range faculty {
		targets[i] = facultySearchText(&faculty[i])
	}
	ranks := fuzzy.RankFindNormalizedFold(query, targets)
	sort.Stable(ranks)

	out := make([]models.Faculty, 0, len(ranks))
	for _, rank := range ranks {
		out = append(out, faculty[rank.OriginalIndex])
	}
	return out
}

func facultySearchText(f *models.Faculty) string {
	parts := []string{f.DisplayName()}
	parts = append(parts, f.Keywords...)
	return strings.Join(parts, " ")
}

func (s *FacultyService) GetByUserID(ctx context.Context, userID uint) (*models.Faculty, error) {
	var faculty models.Faculty
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&faculty).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFacultyProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &faculty, nil
}

func (s *FacultyService) Approve(ctx context.Context, id uint) (*models.Faculty, error) {
	res := s.db.WithContext(ctx).Model(&models.Faculty{}).Where("id = ?", id).Update("is_approved", true)
	if res.Error != nil {
		return nil, res.Error
	}
	var faculty models.Faculty
	err := s.db.WithContext(ctx).First(&faculty, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFacultyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &faculty, nil
}

func (s *FacultyService) UpdatePhotoURL(ctx context.Context, id uint, url string) error {
	res := s.db.WithContext(ctx).Model(&models.Faculty{}).Where("id = ?", id).Update("photo_url", url)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrFacultyNotFound
	}
	return nil
}
