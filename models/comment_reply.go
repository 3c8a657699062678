package models

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

var ErrEmptyReply = errors.New("Reply cannot be empty.")

// CommentReply is a staff response kept outside the comment trees. The
// (CommentKind, CommentID) pair points into one of the four trees by value
// only, without a foreign key, so ledger entries survive comment cascade
// deletes and are reconciled later by the orphan purge. Staff replies must
// not be dragged along by user-comment threading or deletion rules.
type CommentReply struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	CommentKind CommentKind `gorm:"size:20;not null;index:idx_reply_target" json:"comment_type"`
	CommentID   uint        `gorm:"not null;index:idx_reply_target" json:"comment_id"`
	Reply       string      `gorm:"type:text;not null" json:"reply"`
	AdminName   string      `gorm:"size:100" json:"admin_name"`
	IsActive    bool        `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time   `json:"created_at"`
}

// ReplyAdd stores a staff reply against a (kind, comment id) target. The
// target's existence is not verified here: a stale id is tolerated until the
// next orphan purge rather than rejected at write time.
func ReplyAdd(db *gorm.DB, kind CommentKind, commentID uint, text, adminName string) (*CommentReply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyReply
	}
	r := &CommentReply{
		CommentKind: kind,
		CommentID:   commentID,
		Reply:       text,
		AdminName:   adminName,
	}
	if err := db.Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// ReplyEdit replaces the text of an existing ledger entry.
func ReplyEdit(db *gorm.DB, id uint, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyReply
	}
	var r CommentReply
	if err := db.First(&r, id).Error; err != nil {
		return err
	}
	return db.Model(&r).UpdateColumn("reply", text).Error
}

// ReplyToggle flips visibility and returns the new state.
func ReplyToggle(db *gorm.DB, id uint) (bool, error) {
	var r CommentReply
	if err := db.First(&r, id).Error; err != nil {
		return false, err
	}
	next := !r.IsActive
	if err := db.Model(&r).UpdateColumn("is_active", next).Error; err != nil {
		return false, err
	}
	return next, nil
}

// ReplyDelete removes a ledger entry outright.
func ReplyDelete(db *gorm.DB, id uint) error {
	res := db.Delete(&CommentReply{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListReplies returns the ledger entries for one comment in chronological
// reading order, oldest first. This is the opposite of the comment listing.
func ListReplies(db *gorm.DB, kind CommentKind, commentID uint, activeOnly bool) ([]CommentReply, error) {
	q := db.Where("comment_kind = ? AND comment_id = ?", kind, commentID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var replies []CommentReply
	err := q.Order("created_at ASC, id ASC").Find(&replies).Error
	return replies, err
}

// FirstReplyFor returns the oldest ledger entry for a comment, or nil.
// The dashboard shows it as a quick "already answered" marker.
func FirstReplyFor(db *gorm.DB, kind CommentKind, commentID uint) (*CommentReply, error) {
	var r CommentReply
	err := db.Where("comment_kind = ? AND comment_id = ?", kind, commentID).
		Order("created_at ASC, id ASC").
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}
