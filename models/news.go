package models

import (
	"time"

	"gorm.io/gorm"
)

// News is a short announcement item. Content is markdown.
type News struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Title           string    `gorm:"size:200;not null" json:"title"`
	Content         string    `gorm:"type:text" json:"content"`
	PublicationDate time.Time `gorm:"type:date" json:"publication_date"`
	CategoryID      uint      `gorm:"index;not null" json:"category_id"`
	Category        Category  `gorm:"foreignKey:CategoryID" json:"category"`
	Image           string    `gorm:"size:512" json:"image"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (n *News) BeforeCreate(tx *gorm.DB) error {
	if n.PublicationDate.IsZero() {
		n.PublicationDate = time.Now()
	}
	return nil
}

// BeforeDelete cascades into the news item's comment tree.
func (n *News) BeforeDelete(tx *gorm.DB) error {
	return DeleteItemComments(tx, KindNews, n.ID)
}
