package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bagarji/library/middleware"
	"github.com/bagarji/library/models"
	"github.com/bagarji/library/utils"
)

// CommentController serves the public comment surface. Handlers are built per
// content kind so the four trees share one implementation.
type CommentController struct {
	db *gorm.DB
}

// NewCommentController wires the controller with its database handle.
func NewCommentController(db *gorm.DB) *CommentController {
	return &CommentController{db: db}
}

type commentView struct {
	ID           uint               `json:"id"`
	Name         string             `json:"name"`
	Comment      string             `json:"comment"`
	Rating       *int               `json:"rating,omitempty"`
	Date         string             `json:"date"`
	ProfileImage string             `json:"profile_image,omitempty"`
	IsOwner      bool               `json:"is_owner"`
	Replies      []models.FlatReply `json:"replies"`
	AdminReplies []adminReplyView   `json:"admin_replies"`
}

type adminReplyView struct {
	ID        uint   `json:"id"`
	Reply     string `json:"reply"`
	AdminName string `json:"admin_name"`
	Date      string `json:"date"`
}

// fail writes the comment surface's error envelope.
func fail(ctx *gin.Context, status int, msg string) {
	ctx.JSON(status, gin.H{"success": false, "error": msg})
}

func commentErrStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrParentNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, models.ErrEmptyComment),
		errors.Is(err, models.ErrRatingRange),
		errors.Is(err, models.ErrRatingRequired),
		errors.Is(err, models.ErrNoChange),
		errors.Is(err, models.ErrEmptyReply):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// commentErrMessage keeps storage-layer phrasing out of client responses.
func commentErrMessage(err error) string {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "Comment not found."
	}
	return err.Error()
}

func parseItemID(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil || id == 0 {
		fail(ctx, http.StatusNotFound, "Not found.")
		return 0, false
	}
	return uint(id), true
}

func currentUserID(ctx *gin.Context) (uint, bool) {
	v, ok := ctx.Get(middleware.ContextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// List returns the active comment tree of one content item: roots newest
// first, replies flattened with parent attribution, admin ledger entries
// alongside.
func (cc *CommentController) List(kind models.CommentKind) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		itemID, ok := parseItemID(ctx)
		if !ok {
			return
		}
		exists, err := models.ItemExists(cc.db, kind, itemID)
		if err != nil {
			utils.Sugar.Errorf("comment list: item lookup failed kind=%s id=%d err=%v", kind, itemID, err)
			fail(ctx, http.StatusInternalServerError, "Internal error.")
			return
		}
		if !exists {
			fail(ctx, http.StatusNotFound, "Not found.")
			return
		}

		roots, err := models.ListItemComments(cc.db, kind, itemID)
		if err != nil {
			utils.Sugar.Errorf("comment list failed kind=%s item=%d err=%v", kind, itemID, err)
			fail(ctx, http.StatusInternalServerError, "Internal error.")
			return
		}

		viewerID, viewerOK := currentUserID(ctx)
		views := make([]commentView, 0, len(roots))
		for _, root := range roots {
			ledger, err := models.ListReplies(cc.db, kind, root.ID, true)
			if err != nil {
				utils.Sugar.Errorf("ledger list failed kind=%s comment=%d err=%v", kind, root.ID, err)
				fail(ctx, http.StatusInternalServerError, "Internal error.")
				return
			}
			adminReplies := make([]adminReplyView, 0, len(ledger))
			for _, r := range ledger {
				adminReplies = append(adminReplies, adminReplyView{
					ID:        r.ID,
					Reply:     r.Reply,
					AdminName: r.AdminName,
					Date:      r.CreatedAt.Format("2006-01-02 15:04"),
				})
			}

			v := commentView{
				ID:           root.ID,
				Name:         root.DisplayName(),
				Comment:      root.Comment,
				Rating:       root.Rating,
				Date:         root.CreatedAt.Format("2006-01-02 15:04"),
				IsOwner:      viewerOK && root.UserID != nil && *root.UserID == viewerID,
				Replies:      models.FlattenReplies(root),
				AdminReplies: adminReplies,
			}
			if root.User != nil {
				v.ProfileImage = root.User.AvatarURL
			}
			views = append(views, v)
		}
		utils.Success(ctx, views)
	}
}

type createCommentRequest struct {
	Comment            string `json:"comment"`
	Rating             *int   `json:"rating"`
	ParentID           *uint  `json:"parent_id"`
	ParentIsAdminReply bool   `json:"parent_is_admin_reply"`
}

// Create stores a root comment or a threaded reply. The route requires
// authentication, so an identity is always present here.
func (cc *CommentController) Create(kind models.CommentKind) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		itemID, ok := parseItemID(ctx)
		if !ok {
			return
		}
		exists, err := models.ItemExists(cc.db, kind, itemID)
		if err != nil {
			utils.Sugar.Errorf("comment create: item lookup failed kind=%s id=%d err=%v", kind, itemID, err)
			fail(ctx, http.StatusInternalServerError, "Internal error.")
			return
		}
		if !exists {
			fail(ctx, http.StatusNotFound, "Not found.")
			return
		}

		var req createCommentRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			fail(ctx, http.StatusBadRequest, "Invalid request body.")
			return
		}

		userID, _ := currentUserID(ctx)
		username := ctx.GetString(middleware.ContextUsernameKey)

		c := &models.Comment{
			Kind:               kind,
			ItemID:             itemID,
			UserID:             &userID,
			Name:               username,
			Comment:            utils.Sanitize(req.Comment),
			Rating:             req.Rating,
			ParentID:           req.ParentID,
			IsActive:           true,
			ParentIsAdminReply: req.ParentIsAdminReply,
		}
		if err := models.CommentCreate(cc.db, c); err != nil {
			status := commentErrStatus(err)
			if status == http.StatusInternalServerError {
				utils.Sugar.Errorf("comment create failed kind=%s item=%d err=%v", kind, itemID, err)
				fail(ctx, status, "Internal error.")
				return
			}
			fail(ctx, status, commentErrMessage(err))
			return
		}
		ctx.JSON(http.StatusCreated, gin.H{"success": true, "id": c.ID})
	}
}

type editCommentRequest struct {
	ID      uint   `json:"id"`
	Comment string `json:"comment"`
	Rating  *int   `json:"rating"`
}

// Edit applies an owner edit with the strict no-op rejection.
func (cc *CommentController) Edit(kind models.CommentKind) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if _, ok := parseItemID(ctx); !ok {
			return
		}
		var req editCommentRequest
		if err := ctx.ShouldBindJSON(&req); err != nil || req.ID == 0 {
			fail(ctx, http.StatusBadRequest, "Invalid request body.")
			return
		}

		userID, _ := currentUserID(ctx)
		err := models.CommentEdit(cc.db, kind, req.ID, utils.Sanitize(req.Comment), req.Rating, userID)
		if err != nil {
			status := commentErrStatus(err)
			if status == http.StatusInternalServerError {
				utils.Sugar.Errorf("comment edit failed kind=%s id=%d err=%v", kind, req.ID, err)
				fail(ctx, status, "Internal error.")
				return
			}
			fail(ctx, status, commentErrMessage(err))
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"success": true})
	}
}
