package models

import (
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

// Terminal reports whether no transition may leave s.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// Valid reports whether s is a known appointment status.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// AppointmentType is the consultation channel.
type AppointmentType string

const (
	TypeOnline   AppointmentType = "online"
	TypeInClinic AppointmentType = "in-clinic"
)

// Appointment represents a scheduled consultation between a patient and a doctor
type Appointment struct {
	BaseModel          `bson:",inline"`
	DoctorID           string            `gorm:"size:36;index" bson:"doctorId" json:"doctorId"`
	PatientID          string            `gorm:"size:36;index" bson:"patientId" json:"patientId"`
	PatientName        string            `gorm:"size:200" bson:"patientName" json:"patientName"`
	PatientEmail       string            `gorm:"size:255" bson:"patientEmail" json:"patientEmail"`
	PatientPhone       string            `gorm:"size:50" bson:"patientPhone" json:"patientPhone"`
	AppointmentDate    time.Time         `gorm:"index" bson:"appointmentDate" json:"appointmentDate"`
	AppointmentTime    string            `gorm:"size:20" bson:"appointmentTime" json:"appointmentTime"`
	AppointmentType    AppointmentType   `gorm:"size:20" bson:"appointmentType" json:"appointmentType"`
	Status             AppointmentStatus `gorm:"size:20;default:'pending';index" bson:"status" json:"status"`
	Symptoms           string            `gorm:"type:text" bson:"symptoms,omitempty" json:"symptoms,omitempty"`
	Notes              string            `gorm:"type:text" bson:"notes,omitempty" json:"notes,omitempty"`
	PrescriptionID     string            `gorm:"size:36" bson:"prescriptionId,omitempty" json:"prescriptionId,omitempty"`
	CancelledAt        *time.Time        `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	CancellationReason string            `gorm:"size:500" bson:"cancellationReason,omitempty" json:"cancellationReason,omitempty"`
	CancelledBy        string            `gorm:"size:36" bson:"cancelledBy,omitempty" json:"cancelledBy,omitempty"`
	GoogleEventID      string            `gorm:"size:255" bson:"googleCalendarEventId,omitempty" json:"googleCalendarEventId,omitempty"`
	AppleEventID       string            `gorm:"size:255" bson:"appleCalendarEventId,omitempty" json:"appleCalendarEventId,omitempty"`
	Version            int64             `gorm:"not null;default:0" bson:"version" json:"-"`
}

// AppointmentView is the response shape of an appointment; consultationNotes
// mirrors notes for clients that read either name.
type AppointmentView struct {
	*Appointment
	ConsultationNotes *string `json:"consultationNotes"`
}

// View wraps the appointment for a response.
func (a *Appointment) View() AppointmentView {
	v := AppointmentView{Appointment: a}
	if a.Notes != "" {
		notes := a.Notes
		v.ConsultationNotes = &notes
	}
	return v
}
