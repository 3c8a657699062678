package controllers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/bagarji/library/middleware"
	"github.com/bagarji/library/models"
)

func TestCommentErrStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.ErrParentNotFound, http.StatusNotFound},
		{gorm.ErrRecordNotFound, http.StatusNotFound},
		{models.ErrNotOwner, http.StatusForbidden},
		{models.ErrEmptyComment, http.StatusBadRequest},
		{models.ErrRatingRange, http.StatusBadRequest},
		{models.ErrRatingRequired, http.StatusBadRequest},
		{models.ErrNoChange, http.StatusBadRequest},
		{models.ErrEmptyReply, http.StatusBadRequest},
		{errors.New("db went away"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, commentErrStatus(tt.err), tt.err.Error())
	}
}

func TestCommentErrMessageHidesStoragePhrasing(t *testing.T) {
	assert.Equal(t, "Comment not found.", commentErrMessage(gorm.ErrRecordNotFound))
	assert.Equal(t, models.ErrNoChange.Error(), commentErrMessage(models.ErrNoChange))
}

func newEditRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	cc := NewCommentController(nil)
	r := gin.New()
	r.PATCH("/api/books/:id/comments/", cc.Edit(models.KindBook))
	return r
}

func TestEditRejectsMalformedBody(t *testing.T) {
	r := newEditRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/books/1/comments/", strings.NewReader("{not json"))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
	assert.Contains(t, w.Body.String(), "Invalid request body.")
}

func TestEditRejectsMissingCommentID(t *testing.T) {
	r := newEditRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/books/1/comments/", strings.NewReader(`{"comment":"hi"}`))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateRejectsAnonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cc := NewCommentController(nil)
	r := gin.New()
	r.POST("/api/books/:id/comments/", middleware.CommentAuthRequired(), cc.Create(models.KindBook))

	tests := []struct {
		name   string
		header string
	}{
		{"no authorization header", ""},
		{"wrong scheme", "Token abc"},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/books/1/comments/", strings.NewReader(`{"comment":"hi","rating":5}`))
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code, tt.name)
		assert.Contains(t, w.Body.String(), `"success":false`, tt.name)
		assert.Contains(t, w.Body.String(), "Authentication required.", tt.name)
	}
}

func TestEditRejectsBadItemID(t *testing.T) {
	r := newEditRouter()

	for _, raw := range []string{"abc", "0", "-3"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/api/books/"+raw+"/comments/", strings.NewReader(`{"id":1,"comment":"hi"}`))
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code, raw)
	}
}
