package models

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

var (
	ErrEmptyTitle   = errors.New("Book title is required.")
	ErrEmptyMessage = errors.New("Message cannot be empty.")
)

// BookRequest is a reader's ask for a title the catalogue does not carry.
type BookRequest struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"index" json:"user_id,omitempty"`
	User      *User     `gorm:"foreignKey:UserID" json:"-"`
	Name      string    `gorm:"size:100" json:"name"`
	Email     string    `gorm:"size:254" json:"email"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	Author    string    `gorm:"size:100" json:"author"`
	Notes     string    `gorm:"type:text" json:"notes"`
	Handled   bool      `gorm:"default:false" json:"handled"`
	CreatedAt time.Time `json:"created_at"`
}

// ContactMessage is a message sent through the public contact form.
type ContactMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100" json:"name"`
	Email     string    `gorm:"size:254" json:"email"`
	Subject   string    `gorm:"size:200" json:"subject"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Read      bool      `gorm:"default:false" json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// BookRequestCreate validates and stores a request. userID may be nil for
// anonymous submissions.
func BookRequestCreate(db *gorm.DB, userID *uint, name, email, title, author, notes string) (*BookRequest, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	req := &BookRequest{
		UserID: userID,
		Name:   strings.TrimSpace(name),
		Email:  strings.TrimSpace(email),
		Title:  title,
		Author: strings.TrimSpace(author),
		Notes:  strings.TrimSpace(notes),
	}
	if err := db.Create(req).Error; err != nil {
		return nil, err
	}
	return req, nil
}

// ContactMessageCreate validates and stores a contact form submission.
func ContactMessageCreate(db *gorm.DB, name, email, subject, message string) (*ContactMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	msg := &ContactMessage{
		Name:    strings.TrimSpace(name),
		Email:   strings.TrimSpace(email),
		Subject: strings.TrimSpace(subject),
		Message: message,
	}
	if err := db.Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}
