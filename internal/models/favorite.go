package models

// Favorite marks a doctor as a favourite of a patient. One per pair.
type Favorite struct {
	BaseModel `bson:",inline"`
	UserID    string `gorm:"size:36;uniqueIndex:idx_favorite_pair" bson:"userId" json:"userId"`
	DoctorID  string `gorm:"size:36;uniqueIndex:idx_favorite_pair" bson:"doctorId" json:"doctorId"`

	Doctor *DoctorProfile `gorm:"-" bson:"-" json:"doctor,omitempty"`
}
