package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newContentRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
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

	gin.SetMode(gin.TestMode)
	cc := NewContentController(db)
	r := gin.New()
	r.GET("/api/news/search/", cc.SearchNews)
	r.GET("/api/bookreviews/search/", cc.SearchBookReviews)
	return r, mock
}

func TestSearchNewsEmptyQuerySkipsDatabase(t *testing.T) {
	r, mock := newContentRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/news/search/", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchNewsMatchesTitleAndContent(t *testing.T) {
	r, mock := newContentRouter(t)

	newsRows := sqlmock.NewRows([]string{"id", "title", "content", "publication_date", "category_id", "image"}).
		AddRow(4, "Reading week", "Join the eclipse watch.", time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), 2, "")
	mock.ExpectQuery("SELECT (.+) FROM `news`").
		WithArgs("%eclipse%", "%eclipse%").
		WillReturnRows(newsRows)
	mock.ExpectQuery("SELECT (.+) FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(2, "Events"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/news/search/?query=eclipse", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Reading week")
	assert.Contains(t, w.Body.String(), "Events")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchBookReviewsMatchesBookTitle(t *testing.T) {
	r, mock := newContentRouter(t)

	reviewRows := sqlmock.NewRows([]string{"id", "book_id", "reviewer_name", "review_text", "review_date"}).
		AddRow(1, 3, "dara", "A slow but rewarding read.", time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC))
	mock.ExpectQuery("SELECT (.+) FROM `book_reviews`").
		WithArgs("%dune%", "%dune%", "%dune%").
		WillReturnRows(reviewRows)
	mock.ExpectQuery("SELECT (.+) FROM `books`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow(3, "Dune"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/bookreviews/search/?query=dune", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"book_title":"Dune"`)
	assert.Contains(t, w.Body.String(), "dara")
	assert.NoError(t, mock.ExpectationsWereMet())
}
