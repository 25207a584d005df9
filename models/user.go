package models

import (
	"time"
)

// User is a login account; faculty members reach their profile through Faculty.UserID.
type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"column:username;type:varchar(150);not null;uniqueIndex" json:"username"`
	Email        string    `gorm:"column:email;type:varchar(254);not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;type:varchar(255);not null" json:"-"`
	FirstName    string    `gorm:"column:first_name;type:varchar(150)" json:"first_name"`
	LastName     string    `gorm:"column:last_name;type:varchar(150)" json:"last_name"`
	IsAdmin      bool      `gorm:"column:is_admin;not null;default:false" json:"is_admin"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	// Relations
	Faculty *Faculty `gorm:"foreignKey:UserID" json:"faculty,omitempty"`
}

// TableName overrides
func (User) TableName() string {
	return "users"
}
