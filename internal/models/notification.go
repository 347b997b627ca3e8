package models

// NotificationType categorises an in-app notification
type NotificationType string

const (
	NotificationAppointment  NotificationType = "appointment"
	NotificationApproval     NotificationType = "approval"
	NotificationRejection    NotificationType = "rejection"
	NotificationReminder     NotificationType = "reminder"
	NotificationPrescription NotificationType = "prescription"
	NotificationReview       NotificationType = "review"
	NotificationSystem       NotificationType = "system"
)

// Notification is an in-app message shown to one account
type Notification struct {
	BaseModel `bson:",inline"`
	UserID    string           `gorm:"size:36;index" bson:"userId" json:"userId"`
	Type      NotificationType `gorm:"size:20" bson:"type" json:"type"`
	Title     string           `gorm:"size:255" bson:"title" json:"title"`
	Message   string           `gorm:"type:text" bson:"message" json:"message"`
	IsRead    bool             `gorm:"default:false;index" bson:"isRead" json:"isRead"`
	Link      string           `gorm:"size:255" bson:"link,omitempty" json:"link,omitempty"`
}
