package models

// ActivityLog records an administrative action.
type ActivityLog struct {
	BaseModel  `bson:",inline"`
	ActorID    string            `gorm:"size:36;index" bson:"actorId" json:"actorId"`
	Action     string            `gorm:"size:255" bson:"action" json:"action"`
	EntityType string            `gorm:"size:50" bson:"entityType" json:"entityType"`
	EntityID   string            `gorm:"size:36" bson:"entityId" json:"entityId"`
	Details    map[string]string `gorm:"serializer:json" bson:"details,omitempty" json:"details,omitempty"`
	IPAddress  string            `gorm:"size:64" bson:"ipAddress,omitempty" json:"ipAddress,omitempty"`
}
