package models

import (
	"time"

	"gorm.io/gorm"
)

// AuditLog records destructive staff actions so moderation decisions stay
// reviewable after the target rows are gone.
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ActorID    uint      `gorm:"index;not null" json:"actor_id"`
	ActorName  string    `gorm:"size:100" json:"actor_name"`
	Action     string    `gorm:"size:20;not null" json:"action"`
	ObjectType string    `gorm:"size:50;not null" json:"object_type"`
	ObjectID   uint      `gorm:"not null" json:"object_id"`
	Detail     string    `gorm:"size:255" json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}

// LogDeletion writes a deletion entry. Failures are returned so callers can
// log them, but a delete is never rolled back over an audit write.
func LogDeletion(db *gorm.DB, actorID uint, actorName, objectType string, objectID uint, detail string) error {
	return db.Create(&AuditLog{
		ActorID:    actorID,
		ActorName:  actorName,
		Action:     "delete",
		ObjectType: objectType,
		ObjectID:   objectID,
		Detail:     detail,
	}).Error
}
