package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bagarji/library/middleware"
	"github.com/bagarji/library/models"
	"github.com/bagarji/library/utils"
)

// RequestController takes reader book requests and contact form submissions.
type RequestController struct {
	db *gorm.DB
}

// NewRequestController wires the controller with its database handle.
func NewRequestController(db *gorm.DB) *RequestController {
	return &RequestController{db: db}
}

// CreateBookRequest records a request for a title the catalogue lacks.
// The route requires authentication; the stored name snapshots the username.
func (rc *RequestController) CreateBookRequest(ctx *gin.Context) {
	var req struct {
		BookName   string `json:"book_name"`
		AuthorName string `json:"author_name"`
		Message    string `json:"message"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		fail(ctx, http.StatusBadRequest, "Invalid request body.")
		return
	}

	userID, _ := currentUserID(ctx)
	username := ctx.GetString(middleware.ContextUsernameKey)

	var user models.User
	email := ""
	if err := rc.db.First(&user, userID).Error; err == nil {
		email = user.Email
	}

	r, err := models.BookRequestCreate(rc.db, &userID, username, email,
		utils.Sanitize(req.BookName), utils.Sanitize(req.AuthorName), utils.Sanitize(req.Message))
	if err != nil {
		if err == models.ErrEmptyTitle {
			fail(ctx, http.StatusBadRequest, err.Error())
			return
		}
		utils.Sugar.Errorf("book request create failed: %v", err)
		fail(ctx, http.StatusInternalServerError, "Internal error.")
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"success": true, "id": r.ID})
}

// CreateContactMessage records a public contact form submission.
func (rc *RequestController) CreateContactMessage(ctx *gin.Context) {
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		fail(ctx, http.StatusBadRequest, "Invalid request body.")
		return
	}

	m, err := models.ContactMessageCreate(rc.db,
		utils.Sanitize(req.Name), req.Email, utils.Sanitize(req.Subject), utils.Sanitize(req.Message))
	if err != nil {
		if err == models.ErrEmptyMessage {
			fail(ctx, http.StatusBadRequest, err.Error())
			return
		}
		utils.Sugar.Errorf("contact message create failed: %v", err)
		fail(ctx, http.StatusInternalServerError, "Internal error.")
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"success": true, "id": m.ID})
}
