package models

import (
	"time"

	"gorm.io/datatypes"
)

// Medication is a single prescribed drug line.
type Medication struct {
	Name      string `bson:"name" json:"name" binding:"required"`
	Dosage    string `bson:"dosage" json:"dosage" binding:"required"`
	Frequency string `bson:"frequency" json:"frequency" binding:"required"`
	Duration  string `bson:"duration" json:"duration" binding:"required"`
}

// Prescription is issued by a doctor against one appointment.
type Prescription struct {
	BaseModel     `bson:",inline"`
	AppointmentID string                         `gorm:"size:36;index" bson:"appointmentId" json:"appointmentId"`
	DoctorID      string                         `gorm:"size:36;index" bson:"doctorId" json:"doctorId"` // account id of the authoring doctor
	PatientID     string                         `gorm:"size:36;index" bson:"patientId" json:"patientId"`
	Medications   datatypes.JSONSlice[Medication] `gorm:"type:json" bson:"medications" json:"medications"`
	Instructions  string                         `gorm:"type:text" bson:"instructions" json:"instructions"`
	FollowUpDate  *time.Time                     `bson:"followUpDate,omitempty" json:"followUpDate"`
}
