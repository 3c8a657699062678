package models

import (
	"time"

	"gorm.io/gorm"
)

// Article is a blog post written by library staff. Content is markdown.
type Article struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Title           string    `gorm:"size:200;not null" json:"title"`
	Content         string    `gorm:"type:text" json:"content"`
	Author          string    `gorm:"size:100" json:"author"`
	PublicationDate time.Time `gorm:"type:date" json:"publication_date"`
	CategoryID      uint      `gorm:"index;not null" json:"category_id"`
	Category        Category  `gorm:"foreignKey:CategoryID" json:"category"`
	Image           string    `gorm:"size:512" json:"image"`
	Keywords        []Keyword `gorm:"many2many:article_keywords;" json:"keywords"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (a *Article) BeforeCreate(tx *gorm.DB) error {
	if a.PublicationDate.IsZero() {
		a.PublicationDate = time.Now()
	}
	return nil
}

// BeforeDelete cascades into the article's comment tree.
func (a *Article) BeforeDelete(tx *gorm.DB) error {
	return DeleteItemComments(tx, KindBlog, a.ID)
}
