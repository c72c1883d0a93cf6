package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the fixed capability class of a user.
type Role string

const (
	RoleStudent          Role = "student"
	RoleCategoryReviewer Role = "category_reviewer"
	RoleBudgetReviewer   Role = "budget_reviewer"
	RoleAdmin            Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleCategoryReviewer, RoleBudgetReviewer, RoleAdmin:
		return true
	}
	return false
}

// User represents an account in the system. Role is written once at creation.
type User struct {
	ID           uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	Email        string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Name         string     `json:"name" gorm:"size:255"`
	Role         Role       `json:"role" gorm:"type:varchar(32);not null;index"`
	IsVerified   bool       `json:"is_verified" gorm:"not null;default:false"`
	OTP          *string    `json:"-" gorm:"size:6"`
	OTPExpiry    *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Profile is the public projection of a user returned after login.
type Profile struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Role  Role      `json:"role"`
}

// Profile returns the public fields of u.
func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}
