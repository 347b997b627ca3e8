package models

// ReviewStatus is the moderation state of a review.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// Review is a patient's rating of a completed appointment.
type Review struct {
	BaseModel     `bson:",inline"`
	DoctorID      string       `gorm:"size:36;index" bson:"doctorId" json:"doctorId"`
	PatientID     string       `gorm:"size:36;index" bson:"patientId" json:"patientId"`
	AppointmentID string       `gorm:"size:36;uniqueIndex" bson:"appointmentId" json:"appointmentId"`
	Rating        int          `bson:"rating" json:"rating"`
	Comment       string       `gorm:"type:text" bson:"comment" json:"comment"`
	Status        ReviewStatus `gorm:"size:20;default:'approved';index" bson:"status" json:"status"`
}
