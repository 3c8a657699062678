package models

import "time"

// Category classifies catalogue content. Type mirrors the content family
// the category belongs to (book, blog, news).
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Type      string    `gorm:"size:20;default:'book'" json:"type"`
	Active    bool      `gorm:"default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Keyword tags articles for search; shared across articles via many2many.
type Keyword struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Word string `gorm:"size:100;uniqueIndex;not null" json:"word"`
}
