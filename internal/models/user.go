package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role enum
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleDoctor || r == RolePatient
}

// AccountStatus is the approval state of an account.
type AccountStatus string

const (
	AccountPending  AccountStatus = "pending"
	AccountApproved AccountStatus = "approved"
	AccountRejected AccountStatus = "rejected"
)

// Valid reports whether s is one of the known account statuses.
func (s AccountStatus) Valid() bool {
	return s == AccountPending || s == AccountApproved || s == AccountRejected
}

// User represents an account in the system
type User struct {
	BaseModel      `bson:",inline"`
	Name           string        `gorm:"size:200;not null" bson:"name" json:"name"`
	Email          string        `gorm:"uniqueIndex;size:255;not null" bson:"email" json:"email"`
	Password       string        `gorm:"size:255;not null" bson:"password" json:"-"` // Never send password in JSON
	Role           Role          `gorm:"size:20;default:'patient';index" bson:"role" json:"role"`
	Status         AccountStatus `gorm:"size:20;default:'approved';index" bson:"status" json:"status"`
	Phone          string        `gorm:"size:50" bson:"phone,omitempty" json:"phone,omitempty"`
	Address        string        `gorm:"size:255" bson:"address,omitempty" json:"address,omitempty"`
	Gender         string        `gorm:"size:20" bson:"gender,omitempty" json:"gender,omitempty"`
	DateOfBirth    *time.Time    `bson:"dateOfBirth,omitempty" json:"dateOfBirth,omitempty"`
	ProfilePicture string        `gorm:"size:512" bson:"profilePicture,omitempty" json:"profilePicture,omitempty"`
	RefreshToken   RefreshToken  `gorm:"embedded;embeddedPrefix:refresh_" bson:"refreshToken" json:"-"`
}

// UserSanitized represents the user data that is safe to send in API responses.
type UserSanitized struct {
	ID             string        `json:"_id"`
	Name           string        `json:"name"`
	Email          string        `json:"email"`
	Role           Role          `json:"role"`
	Status         AccountStatus `json:"status"`
	Phone          string        `json:"phone,omitempty"`
	Address        string        `json:"address,omitempty"`
	Gender         string        `json:"gender,omitempty"`
	DateOfBirth    *time.Time    `json:"dateOfBirth,omitempty"`
	ProfilePicture string        `json:"profilePicture,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// SetPassword hashes a password and sets it on the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword compares a password with the user's hashed password
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// IsApproved reports whether the account may use protected operations.
func (u *User) IsApproved() bool {
	return u.Status == AccountApproved
}

// Sanitize creates a UserSanitized struct from a User model, excluding sensitive data.
func (u *User) Sanitize() UserSanitized {
	return UserSanitized{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Role:           u.Role,
		Status:         u.Status,
		Phone:          u.Phone,
		Address:        u.Address,
		Gender:         u.Gender,
		DateOfBirth:    u.DateOfBirth,
		ProfilePicture: u.ProfilePicture,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}
