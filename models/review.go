package models

import (
	"time"

	"gorm.io/gorm"
)

// BookReview is an editorial review of a catalogue book. ReviewText is
// markdown. Deleting the reviewed book removes its reviews as well.
type BookReview struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	BookID       uint      `gorm:"index;not null" json:"book_id"`
	Book         Book      `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"book"`
	ReviewerName string    `gorm:"size:100" json:"reviewer_name"`
	ReviewText   string    `gorm:"type:text" json:"review_text"`
	ReviewDate   time.Time `gorm:"type:date" json:"review_date"`
	Image        string    `gorm:"size:512" json:"image"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (r *BookReview) BeforeCreate(tx *gorm.DB) error {
	if r.ReviewDate.IsZero() {
		r.ReviewDate = time.Now()
	}
	return nil
}

// BeforeDelete cascades into the review's comment tree.
func (r *BookReview) BeforeDelete(tx *gorm.DB) error {
	return DeleteItemComments(tx, KindBookReview, r.ID)
}
