package models

import (
	"time"
)

// DoctorProfile holds the professional profile of a doctor account.
// Rating and TotalReviews are derived from approved reviews and are never
// taken from client input.
type DoctorProfile struct {
	BaseModel       `bson:",inline"`
	UserID          string              `gorm:"size:36;uniqueIndex;not null" bson:"userId" json:"userId"`
	Specialization  string              `gorm:"size:150;not null;index" bson:"specialization" json:"specialization"`
	Qualification   string              `gorm:"size:255" bson:"qualification,omitempty" json:"qualification,omitempty"`
	Experience      int                 `bson:"experience" json:"experience"`
	Availability    map[string][]string `gorm:"serializer:json" bson:"availability,omitempty" json:"availability,omitempty"`
	Bio             string              `gorm:"type:text" bson:"bio,omitempty" json:"bio,omitempty"`
	Image           string              `gorm:"size:512" bson:"image,omitempty" json:"image,omitempty"`
	ConsultationFee float64             `bson:"consultationFee" json:"consultationFee"`
	Rating          float64             `gorm:"index" bson:"rating" json:"rating"`
	TotalReviews    int                 `bson:"totalReviews" json:"totalReviews"`
	IsActive        bool                `gorm:"default:true" bson:"isActive" json:"isActive"`
	ApprovedBy      string              `gorm:"size:36" bson:"approvedBy,omitempty" json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time          `bson:"approvedAt,omitempty" json:"approvedAt,omitempty"`

	// Populated on read for responses; not persisted.
	User *UserSanitized `gorm:"-" bson:"-" json:"user,omitempty"`
}

// DoctorRequest is a pending doctor registration awaiting admin review.
type DoctorRequest struct {
	BaseModel       `bson:",inline"`
	UserID          string        `gorm:"size:36;index;not null" bson:"userId" json:"userId"`
	Specialization  string        `gorm:"size:150;not null" bson:"specialization" json:"specialization"`
	Qualification   string        `gorm:"size:255;not null" bson:"qualification" json:"qualification"`
	Experience      int           `bson:"experience" json:"experience"`
	Bio             string        `gorm:"type:text" bson:"bio,omitempty" json:"bio,omitempty"`
	Status          AccountStatus `gorm:"size:20;default:'pending';index" bson:"status" json:"status"`
	ReviewedAt      *time.Time    `bson:"reviewedAt,omitempty" json:"reviewedAt,omitempty"`
	ReviewedBy      string        `gorm:"size:36" bson:"reviewedBy,omitempty" json:"reviewedBy,omitempty"`
	RejectionReason string        `gorm:"size:500" bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`

	User *UserSanitized `gorm:"-" bson:"-" json:"user,omitempty"`
}
