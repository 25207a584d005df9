package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"research-registry-api/config"
	"research-registry-api/models"
	"research-registry-api/utils"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrSignupFieldsRequired = errors.New("username, password, and email are required")
	ErrInvalidEmail         = errors.New("email address is invalid")
	ErrUsernameTaken        = errors.New("username already exists")
	ErrEmailTaken           = errors.New("email already exists")
	ErrFacultyIDTaken       = errors.New("faculty_id already exists")
)

type FacultySignupInput struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FacultyID string `json:"faculty_id"`
}

type AuthService struct {
	db *gorm.DB
}

func NewAuthService(db *gorm.DB) *AuthService {
	if db == nil {
		db = config.DB
	}
	return &AuthService{db: db}
}

// Authenticate accepts either the username or the email as login.
func (s *AuthService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ? OR email = ?", login, login).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *AuthService) FindUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// SignupFaculty creates a user and its unapproved, visible faculty profile.
func (s *AuthService) SignupFaculty(ctx context.Context, input *FacultySignupInput) (*models.Faculty, error) {
	if input == nil {
		return nil, ErrSignupFieldsRequired
	}
	username := utils.SanitizeInput(input.Username)
	email := utils.SanitizeInput(input.Email)
	if username == "" || input.Password == "" || email == "" {
		return nil, ErrSignupFieldsRequired
	}
	if !utils.ValidateEmail(email) {
		return nil, ErrInvalidEmail
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	var faculty *models.Faculty
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if exists, err := rowExists(tx, &models.User{}, "username = ?", username); err != nil {
			return err
		} else if exists {
			return ErrUsernameTaken
		}
		if exists, err := rowExists(tx, &models.User{}, "email = ?", email); err != nil {
			return err
		} else if exists {
			return ErrEmailTaken
		}

		facultyID := strings.TrimSpace(input.FacultyID)
		if facultyID != "" {
			if exists, err := rowExists(tx, &models.Faculty{}, "faculty_id = ?", facultyID); err != nil {
				return err
			} else if exists {
				return ErrFacultyIDTaken
			}
		} else {
			for {
				facultyID = NewSignupFacultyID()
				exists, err := rowExists(tx, &models.Faculty{}, "faculty_id = ?", facultyID)
				if err != nil {
					return err
				}
				if !exists {
					break
				}
			}
		}

		user := &models.User{
			Username:     username,
			Email:        email,
			PasswordHash: hash,
			FirstName:    utils.SanitizeInput(input.FirstName),
			LastName:     utils.SanitizeInput(input.LastName),
		}
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		faculty = &models.Faculty{
			UserID:            &user.ID,
			FacultyID:         facultyID,
			Name:              strings.TrimSpace(user.FirstName + " " + user.LastName),
			FirstName:         user.FirstName,
			LastName:          user.LastName,
			Email:             &email,
			ProfileVisibility: true,
			IsApproved:        false,
		}
		if err := tx.Omit(clause.Associations).Create(faculty).Error; err != nil {
			return fmt.Errorf("create faculty profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return faculty, nil
}

// NewSignupFacultyID returns a SIGNUP- slug with 12 hex characters.
func NewSignupFacultyID() string {
	return "SIGNUP-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func rowExists(db *gorm.DB, model any, query string, args ...any) (bool, error) {
	var count int64
	if err := db.Model(model).Where(query, args...).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// HashPassword hashes password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares password with hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
