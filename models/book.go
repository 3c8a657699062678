package models

import (
	"time"

	"gorm.io/gorm"
)

// Book is a catalogue entry. Description is stored as markdown and rendered
// on the detail endpoint.
type Book struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Title           string     `gorm:"size:200;not null" json:"title"`
	Author          string     `gorm:"size:100" json:"author"`
	Description     string     `gorm:"type:text" json:"description"`
	PDFFile         string     `gorm:"size:512" json:"pdf_file"`
	PublicationDate *time.Time `gorm:"type:date" json:"publication_date"`
	CoverImage      string     `gorm:"size:512" json:"cover_image"`
	Available       bool       `gorm:"default:true" json:"available"`
	CategoryID      uint       `gorm:"index;not null" json:"category_id"`
	Category        Category   `gorm:"foreignKey:CategoryID" json:"category"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// BeforeDelete cascades into the book's comment tree.
func (b *Book) BeforeDelete(tx *gorm.DB) error {
	return DeleteItemComments(tx, KindBook, b.ID)
}
