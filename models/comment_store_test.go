package models

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)
	return db, mock
}

func TestCommentCreateValidation(t *testing.T) {
	db, mock := newMockDB(t)

	tests := []struct {
		name    string
		comment *Comment
		wantErr error
	}{
		{"empty body", &Comment{Kind: KindBook, ItemID: 1, Comment: "   "}, ErrEmptyComment},
		{"root without rating", &Comment{Kind: KindBook, ItemID: 1, Comment: "fine"}, ErrRatingRequired},
		{"rating below range", &Comment{Kind: KindBook, ItemID: 1, Comment: "fine", Rating: intPtr(0)}, ErrRatingRange},
		{"rating above range", &Comment{Kind: KindBook, ItemID: 1, Comment: "fine", Rating: intPtr(6)}, ErrRatingRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CommentCreate(db, tt.comment)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// None of the rejected writes may have reached the database.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentCreateReplyParentMissing(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT count").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectRollback()

	err := CommentCreate(db, &Comment{
		Kind:     KindBook,
		ItemID:   1,
		Comment:  "replying into the void",
		ParentID: uintPtr(99),
	})
	assert.ErrorIs(t, err, ErrParentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentCreateReplyDiscardsRating(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT count").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec("INSERT INTO `comments`").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()

	c := &Comment{
		Kind:     KindBook,
		ItemID:   1,
		Comment:  "a reply",
		Rating:   intPtr(5),
		ParentID: uintPtr(3),
	}
	require.NoError(t, CommentCreate(db, c))
	assert.Equal(t, uint(7), c.ID)
	assert.Nil(t, c.Rating, "replies never carry a rating")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentEditRejectsForeignOwner(t *testing.T) {
	db, mock := newMockDB(t)

	owner := uint(10)
	rows := sqlmock.NewRows([]string{"id", "kind", "item_id", "user_id", "name", "comment", "is_active"}).
		AddRow(5, "book", 1, owner, "alice", "hers", true)
	mock.ExpectQuery("SELECT (.+) FROM `comments`").WillReturnRows(rows)

	err := CommentEdit(db, KindBook, 5, "mine now", nil, 11)
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentEditRejectsNoOp(t *testing.T) {
	db, mock := newMockDB(t)

	owner := uint(10)
	rows := sqlmock.NewRows([]string{"id", "kind", "item_id", "user_id", "name", "comment", "rating", "is_active"}).
		AddRow(5, "book", 1, owner, "alice", "same text", 4, true)
	mock.ExpectQuery("SELECT (.+) FROM `comments`").WillReturnRows(rows)

	err := CommentEdit(db, KindBook, 5, "same text", nil, owner)
	assert.ErrorIs(t, err, ErrNoChange)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentToggleFlipsState(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"id", "kind", "item_id", "name", "comment", "is_active"}).
		AddRow(5, "book", 1, "alice", "text", true)
	mock.ExpectQuery("SELECT (.+) FROM `comments`").WillReturnRows(rows)
	mock.ExpectExec("UPDATE `comments` SET `is_active`").
		WillReturnResult(sqlmock.NewResult(0, 1))

	active, err := CommentToggle(db, KindBook, 5)
	require.NoError(t, err)
	assert.False(t, active)

	// A second toggle restores the original visibility.
	rows = sqlmock.NewRows([]string{"id", "kind", "item_id", "name", "comment", "is_active"}).
		AddRow(5, "book", 1, "alice", "text", false)
	mock.ExpectQuery("SELECT (.+) FROM `comments`").WillReturnRows(rows)
	mock.ExpectExec("UPDATE `comments` SET `is_active`").
		WillReturnResult(sqlmock.NewResult(0, 1))

	active, err = CommentToggle(db, KindBook, 5)
	require.NoError(t, err)
	assert.True(t, active)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplyAddRejectsEmptyText(t *testing.T) {
	db, mock := newMockDB(t)

	_, err := ReplyAdd(db, KindNews, 1, "  \n ", "moderator")
	assert.ErrorIs(t, err, ErrEmptyReply)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplyDeleteMissingRow(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("DELETE FROM `comment_replies`").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := ReplyDelete(db, 42)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
