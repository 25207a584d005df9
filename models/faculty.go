package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Faculty represents a faculty member profile, keyed by the external faculty_id slug.
type Faculty struct {
	ID         uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     *uint   `gorm:"column:user_id;uniqueIndex" json:"user_id,omitempty"`
	FacultyID  string  `gorm:"column:faculty_id;type:varchar(100);not null;uniqueIndex" json:"faculty_id"`
	Name       string  `gorm:"column:name;type:varchar(255)" json:"name"`
	FirstName  string  `gorm:"column:first_name;type:varchar(100)" json:"first_name"`
	LastName   string  `gorm:"column:last_name;type:varchar(100)" json:"last_name"`
	Title      *string `gorm:"column:title;type:varchar(150)" json:"title,omitempty"`
	Department *string `gorm:"column:department;type:varchar(150)" json:"department,omitempty"`
	Email      *string `gorm:"column:email;type:varchar(254);uniqueIndex" json:"email,omitempty"`
	Office     *string `gorm:"column:office;type:varchar(150)" json:"office,omitempty"`
	Room       *string `gorm:"column:room;type:varchar(100)" json:"room,omitempty"`
	Phone      *string `gorm:"column:phone;type:varchar(20)" json:"phone,omitempty"`
	Bio        *string `gorm:"column:bio;type:text" json:"bio,omitempty"`
	PhotoURL   *string `gorm:"column:photo_url;type:varchar(512)" json:"photo_url,omitempty"`

	ProfileVisibility bool `gorm:"column:profile_visibility;not null;default:true" json:"profile_visibility"`
	IsApproved        bool `gorm:"column:is_approved;not null;default:false" json:"is_approved"`

	TotalCitations   int     `gorm:"column:total_citations;not null;default:0" json:"total_citations"`
	ArticleCount     int     `gorm:"column:article_count;not null;default:0" json:"article_count"`
	AverageCitations float64 `gorm:"column:average_citations;not null;default:0" json:"average_citations"`

	DepartmentAffiliations datatypes.JSONSlice[string] `gorm:"column:department_affiliations" json:"department_affiliations"`
	DOIs                   datatypes.JSONSlice[string] `gorm:"column:dois" json:"dois"`
	Titles                 datatypes.JSONSlice[string] `gorm:"column:titles" json:"titles"`
	Categories             datatypes.JSONSlice[string] `gorm:"column:categories" json:"categories"`
	Keywords               datatypes.JSONSlice[string] `gorm:"column:keywords" json:"keywords"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Faculty) TableName() string { return "faculties" }

// DisplayName falls back to first/last name and finally to the slug.
func (f *Faculty) DisplayName() string {
	if n := strings.TrimSpace(f.Name); n != "" {
		return n
	}
	if full := strings.TrimSpace(f.FirstName + " " + f.LastName); full != "" {
		return full
	}
	return f.FacultyID
}
