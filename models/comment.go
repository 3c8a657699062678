package models

import (
	"errors"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
)

// CommentKind partitions the otherwise identical comment trees by the
// content type they hang off: blog articles, books, book reviews and news.
type CommentKind string

const (
	KindBlog       CommentKind = "blog"
	KindBook       CommentKind = "book"
	KindBookReview CommentKind = "bookreview"
	KindNews       CommentKind = "news"
)

// Kinds lists every known comment kind in a stable order.
var Kinds = []CommentKind{KindBlog, KindBook, KindBookReview, KindNews}

// ParseKind validates a caller-supplied kind tag.
func ParseKind(s string) (CommentKind, bool) {
	switch CommentKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindBlog:
		return KindBlog, true
	case KindBook:
		return KindBook, true
	case KindBookReview:
		return KindBookReview, true
	case KindNews:
		return KindNews, true
	}
	return "", false
}

var (
	ErrEmptyComment   = errors.New("Comment cannot be empty.")
	ErrRatingRange    = errors.New("Rating must be between 1 and 5.")
	ErrRatingRequired = errors.New("Rating is required.")
	ErrNoChange       = errors.New("You must change the comment or rating.")
	ErrParentNotFound = errors.New("Parent comment not found.")
	ErrNotOwner       = errors.New("You can only edit your own comment.")
	ErrBadKind        = errors.New("Invalid comment type.")
)

// Comment is a node in one of the four per-kind comment trees. A nil
// ParentID marks a root comment attached directly to the content item;
// roots carry a required 1-5 rating, replies do not. The stored Name is
// advisory when UserID is set: the live username wins at read time.
type Comment struct {
	ID                 uint        `gorm:"primaryKey" json:"id"`
	Kind               CommentKind `gorm:"size:20;not null;index:idx_kind_item;index:idx_kind_parent" json:"kind"`
	ItemID             uint        `gorm:"not null;index:idx_kind_item" json:"item_id"`
	UserID             *uint       `gorm:"index" json:"user_id,omitempty"`
	User               *User       `gorm:"foreignKey:UserID" json:"-"`
	Name               string      `gorm:"size:100" json:"name"`
	Comment            string      `gorm:"type:text;not null" json:"comment"`
	Rating             *int        `json:"rating,omitempty"`
	ParentID           *uint       `gorm:"index:idx_kind_parent" json:"parent_id,omitempty"`
	IsActive           bool        `gorm:"default:true" json:"is_active"`
	ParentIsAdminReply bool        `gorm:"default:false" json:"parent_is_admin_reply"`
	CreatedAt          time.Time   `json:"created_at"`

	// Replies is filled by BuildCommentTree; never persisted. The parent
	// column is deliberately not a database-level foreign key so that the
	// maintenance scans remain the single authority on referential health.
	Replies []*Comment `gorm:"-" json:"-"`
}

// DisplayName prefers the live username over the stored snapshot.
func (c *Comment) DisplayName() string {
	if c.User != nil && c.User.Username != "" {
		return c.User.Username
	}
	return c.Name
}

// IsRoot reports whether the comment is attached directly to a content item.
func (c *Comment) IsRoot() bool {
	return c.ParentID == nil
}

// BuildCommentTree links a flat, chronologically ascending slice of comments
// of one (kind, item) scope into root nodes with nested Replies. Children
// keep the input order, so sibling groups come out oldest-first; roots are
// re-sorted newest-first for listing. Rows whose parent is missing from the
// slice (inactive or dangling) are dropped rather than promoted.
func BuildCommentTree(all []*Comment) []*Comment {
	byID := make(map[uint]*Comment, len(all))
	for _, c := range all {
		c.Replies = nil
		byID[c.ID] = c
	}

	var roots []*Comment
	for _, c := range all {
		if c.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		if parent, ok := byID[*c.ParentID]; ok {
			parent.Replies = append(parent.Replies, c)
		}
	}

	sort.SliceStable(roots, func(i, j int) bool {
		return roots[i].CreatedAt.After(roots[j].CreatedAt)
	})
	return roots
}

// FlatReply is one entry of the linearized reply list delivered to clients.
// The tree shape is discarded; ParentName carries the attribution instead.
type FlatReply struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	Comment    string `json:"comment"`
	ParentName string `json:"parent_name"`
	Date       string `json:"date"`
}

// FlattenReplies linearizes the reply subtree of a root comment in pre-order,
// sibling groups oldest-first. A reply posted against an admin ledger entry
// is attributed to the literal "Admin"; otherwise the attribution is the
// immediate parent's display name, which for first-level replies is the
// root author.
func FlattenReplies(root *Comment) []FlatReply {
	var out []FlatReply
	flattenInto(root, &out)
	return out
}

func flattenInto(parent *Comment, out *[]FlatReply) {
	for _, reply := range parent.Replies {
		parentName := parent.DisplayName()
		if reply.ParentIsAdminReply {
			parentName = "Admin"
		}
		*out = append(*out, FlatReply{
			ID:         reply.ID,
			Name:       reply.DisplayName(),
			Comment:    reply.Comment,
			ParentName: parentName,
			Date:       reply.CreatedAt.Format("2006-01-02 15:04"),
		})
		flattenInto(reply, out)
	}
}

// ReplyCount counts every descendant reply, not just direct children.
func (c *Comment) ReplyCount() int {
	n := len(c.Replies)
	for _, r := range c.Replies {
		n += r.ReplyCount()
	}
	return n
}

// SubtreeIDs returns rootID plus the ids of every comment reachable from it
// through parent edges in the given slice. Used to make deletes cascade.
func SubtreeIDs(all []*Comment, rootID uint) []uint {
	children := make(map[uint][]uint, len(all))
	for _, c := range all {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c.ID)
		}
	}
	ids := []uint{rootID}
	for i := 0; i < len(ids); i++ {
		ids = append(ids, children[ids[i]]...)
	}
	return ids
}

// ListItemComments loads the active comment tree of one content item:
// roots newest-first, each with its active reply subtree attached.
func ListItemComments(db *gorm.DB, kind CommentKind, itemID uint) ([]*Comment, error) {
	var all []*Comment
	err := db.Where("kind = ? AND item_id = ? AND is_active = ?", kind, itemID, true).
		Preload("User").
		Order("created_at ASC, id ASC").
		Find(&all).Error
	if err != nil {
		return nil, err
	}
	return BuildCommentTree(all), nil
}

// AllComments loads every comment of every kind, newest first, for the
// moderation dashboard. No pagination: the dashboard shows the full set.
func AllComments(db *gorm.DB) ([]*Comment, error) {
	var all []*Comment
	err := db.Preload("User").Order("created_at DESC, id DESC").Find(&all).Error
	return all, err
}

// CommentCreate validates and stores a root comment or a reply. Roots must
// carry a rating in [1,5]; on replies a submitted rating is discarded. The
// parent, when given, must already exist within the same kind's tree, which
// rules out cycles by construction.
func CommentCreate(db *gorm.DB, c *Comment) error {
	c.Comment = strings.TrimSpace(c.Comment)
	if c.Comment == "" {
		return ErrEmptyComment
	}
	if c.ParentID == nil {
		if c.Rating == nil {
			return ErrRatingRequired
		}
		if *c.Rating < 1 || *c.Rating > 5 {
			return ErrRatingRange
		}
	} else {
		c.Rating = nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if c.ParentID != nil {
			var n int64
			if err := tx.Model(&Comment{}).
				Where("id = ? AND kind = ?", *c.ParentID, c.Kind).
				Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return ErrParentNotFound
			}
		}
		return tx.Create(c).Error
	})
}

// CommentEdit applies an owner edit. An edit that changes neither the body
// nor the rating is rejected outright; this mirrors the public site's
// "you must change something" guard rather than any storage constraint.
func CommentEdit(db *gorm.DB, kind CommentKind, id uint, newBody string, newRating *int, userID uint) error {
	newBody = strings.TrimSpace(newBody)
	if newBody == "" {
		return ErrEmptyComment
	}
	if newRating != nil && (*newRating < 1 || *newRating > 5) {
		return ErrRatingRange
	}

	var c Comment
	if err := db.Where("kind = ?", kind).First(&c, id).Error; err != nil {
		return err
	}
	if c.UserID == nil || *c.UserID != userID {
		return ErrNotOwner
	}
	if IsNoOpEdit(&c, newBody, newRating) {
		return ErrNoChange
	}

	updates := map[string]interface{}{"comment": newBody}
	if newRating != nil {
		updates["rating"] = *newRating
	}
	return db.Model(&c).Updates(updates).Error
}

// IsNoOpEdit reports whether the submitted body and rating leave the
// comment unchanged. An absent rating counts as "no rating change".
func IsNoOpEdit(c *Comment, newBody string, newRating *int) bool {
	if strings.TrimSpace(c.Comment) != newBody {
		return false
	}
	if newRating == nil {
		return true
	}
	return c.Rating != nil && *c.Rating == *newRating
}

// CommentToggle flips the visibility flag and returns the new state.
// Calling it twice restores the original state.
func CommentToggle(db *gorm.DB, kind CommentKind, id uint) (bool, error) {
	var c Comment
	if err := db.Where("kind = ?", kind).First(&c, id).Error; err != nil {
		return false, err
	}
	next := !c.IsActive
	if err := db.Model(&c).UpdateColumn("is_active", next).Error; err != nil {
		return false, err
	}
	return next, nil
}

// CommentDelete removes a comment and its whole reply subtree, returning the
// number of rows deleted. Ledger entries pointing at the removed rows are
// intentionally left behind; the orphan purge reconciles them later.
func CommentDelete(db *gorm.DB, kind CommentKind, id uint) (int64, error) {
	var target Comment
	if err := db.Where("kind = ?", kind).First(&target, id).Error; err != nil {
		return 0, err
	}

	var deleted int64
	err := db.Transaction(func(tx *gorm.DB) error {
		var all []*Comment
		if err := tx.Select("id", "parent_id").
			Where("kind = ?", kind).
			Find(&all).Error; err != nil {
			return err
		}
		ids := SubtreeIDs(all, id)
		res := tx.Where("kind = ? AND id IN ?", kind, ids).Delete(&Comment{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	return deleted, err
}

// DeleteItemComments cascades a content-item deletion into its comment tree.
func DeleteItemComments(tx *gorm.DB, kind CommentKind, itemID uint) error {
	return tx.Where("kind = ? AND item_id = ?", kind, itemID).Delete(&Comment{}).Error
}

// ItemExists checks that the content item a comment targets is real.
func ItemExists(db *gorm.DB, kind CommentKind, id uint) (bool, error) {
	var n int64
	var err error
	switch kind {
	case KindBlog:
		err = db.Model(&Article{}).Where("id = ?", id).Count(&n).Error
	case KindBook:
		err = db.Model(&Book{}).Where("id = ?", id).Count(&n).Error
	case KindBookReview:
		err = db.Model(&BookReview{}).Where("id = ?", id).Count(&n).Error
	case KindNews:
		err = db.Model(&News{}).Where("id = ?", id).Count(&n).Error
	default:
		return false, ErrBadKind
	}
	return n > 0, err
}
