package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bagarji/library/middleware"
	"github.com/bagarji/library/models"
	"github.com/bagarji/library/utils"
)

// AdminController is the staff moderation surface: the cross-kind dashboard,
// ledger management and destructive comment actions.
type AdminController struct {
	db *gorm.DB
}

// NewAdminController wires the controller with its database handle.
func NewAdminController(db *gorm.DB) *AdminController {
	return &AdminController{db: db}
}

type commentTarget struct {
	CommentID   uint   `json:"comment_id"`
	CommentType string `json:"comment_type"`
}

func (t *commentTarget) kind(ctx *gin.Context) (models.CommentKind, bool) {
	kind, ok := models.ParseKind(t.CommentType)
	if !ok {
		fail(ctx, http.StatusBadRequest, models.ErrBadKind.Error())
		return "", false
	}
	return kind, true
}

type dashboardEntry struct {
	ID              uint            `json:"id"`
	Kind            string          `json:"kind"`
	ItemID          uint            `json:"item_id"`
	Name            string          `json:"name"`
	Comment         string          `json:"comment"`
	Rating          *int            `json:"rating,omitempty"`
	ParentID        *uint           `json:"parent_id,omitempty"`
	IsActive        bool            `json:"is_active"`
	Date            string          `json:"date"`
	ReplyCount      int             `json:"reply_count"`
	FirstAdminReply *adminReplyView `json:"first_admin_reply,omitempty"`
}

// Dashboard concatenates every comment of every kind, newest first, with the
// recursive reply count and the oldest ledger entry per comment.
func (ac *AdminController) Dashboard(ctx *gin.Context) {
	all, err := models.AllComments(ac.db)
	if err != nil {
		utils.Sugar.Errorf("dashboard load failed: %v", err)
		fail(ctx, http.StatusInternalServerError, "Internal error.")
		return
	}

	// Link Replies per kind so ReplyCount can recurse. The flat desc order
	// is kept for output; linkage does not depend on it.
	byKind := map[models.CommentKind][]*models.Comment{}
	for _, c := range all {
		byKind[c.Kind] = append(byKind[c.Kind], c)
	}
	for _, group := range byKind {
		models.BuildCommentTree(group)
	}

	firstReplies, err := ac.firstLedgerEntries()
	if err != nil {
		utils.Sugar.Errorf("dashboard ledger load failed: %v", err)
		fail(ctx, http.StatusInternalServerError, "Internal error.")
		return
	}

	entries := make([]dashboardEntry, 0, len(all))
	for _, c := range all {
		e := dashboardEntry{
			ID:         c.ID,
			Kind:       string(c.Kind),
			ItemID:     c.ItemID,
			Name:       c.DisplayName(),
			Comment:    c.Comment,
			Rating:     c.Rating,
			ParentID:   c.ParentID,
			IsActive:   c.IsActive,
			Date:       c.CreatedAt.Format("2006-01-02 15:04"),
			ReplyCount: c.ReplyCount(),
		}
		if r, ok := firstReplies[ledgerKey{c.Kind, c.ID}]; ok {
			e.FirstAdminReply = &adminReplyView{
				ID:        r.ID,
				Reply:     r.Reply,
				AdminName: r.AdminName,
				Date:      r.CreatedAt.Format("2006-01-02 15:04"),
			}
		}
		entries = append(entries, e)
	}
	utils.Success(ctx, entries)
}

type ledgerKey struct {
	kind models.CommentKind
	id   uint
}

// firstLedgerEntries loads the whole ledger once and keeps the oldest entry
// per target, avoiding a query per dashboard row.
func (ac *AdminController) firstLedgerEntries() (map[ledgerKey]models.CommentReply, error) {
	var replies []models.CommentReply
	if err := ac.db.Order("created_at ASC, id ASC").Find(&replies).Error; err != nil {
		return nil, err
	}
	first := make(map[ledgerKey]models.CommentReply, len(replies))
	for _, r := range replies {
		k := ledgerKey{r.CommentKind, r.CommentID}
		if _, ok := first[k]; !ok {
			first[k] = r
		}
	}
	return first, nil
}

type addReplyRequest struct {
	commentTarget
	Reply string `json:"reply"`
}

// AddReply appends a ledger entry. The target comment's existence is not
// checked here; stale targets are reconciled by the orphan purge.
func (ac *AdminController) AddReply(ctx *gin.Context) {
	var req addReplyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		fail(ctx, http.StatusBadRequest, "Invalid request body.")
		return
	}
	kind, ok := req.kind(ctx)
	if !ok {
		return
	}
	adminName := ctx.GetString(middleware.ContextUsernameKey)
	r, err := models.ReplyAdd(ac.db, kind, req.CommentID, utils.Sanitize(req.Reply), adminName)
	if err != nil {
		fail(ctx, commentErrStatus(err), commentErrMessage(err))
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"success": true, "id": r.ID})
}

// DeleteComment cascades a comment delete and records the action in the
// audit log.
func (ac *AdminController) DeleteComment(ctx *gin.Context) {
	var req commentTarget
	if err := ctx.ShouldBindJSON(&req); err != nil {
		fail(ctx, http.StatusBadRequest, "Invalid request body.")
		return
	}
	kind, ok := req.kind(ctx)
	if !ok {
		return
	}

	deleted, err := models.CommentDelete(ac.db, kind, req.CommentID)
	if err != nil {
		fail(ctx, commentErrStatus(err), commentErrMessage(err))
		return
	}

	actorID, _ := currentUserID(ctx)
	actorName := ctx.GetString(middleware.ContextUsernameKey)
	detail := fmt.Sprintf("%s comment #%d (%d rows)", kind, req.CommentID, deleted)
	if err := models.LogDeletion(ac.db, actorID, actorName, "comment", req.CommentID, detail); err != nil {
		utils.Sugar.Warnf("audit log write failed: %v", err)
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "deleted": deleted})
}

// ToggleComment flips a comment's visibility and reports the new state.
func (ac *AdminController) ToggleComment(ctx *gin.Context) {
	var req commentTarget
	if err := ctx.ShouldBindJSON(&req); err != nil {
		fail(ctx, http.StatusBadRequest, "Invalid request body.")
		return
	}
	kind, ok := req.kind(ctx)
	if !ok {
		return
	}
	active, err := models.CommentToggle(ac.db, kind, req.CommentID)
	if err != nil {
		fail(ctx, commentErrStatus(err), commentErrMessage(err))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "is_active": active})
}

func parseTargetQuery(ctx *gin.Context) (models.CommentKind, uint, bool) {
	kind, ok := models.ParseKind(ctx.Query("comment_type"))
	if !ok {
		fail(ctx, http.StatusBadRequest, models.ErrBadKind.Error())
		return "", 0, false
	}
	id, err := strconv.ParseUint(ctx.Query("comment_id"), 10, 32)
	if err != nil || id == 0 {
		fail(ctx, http.StatusBadRequest, "Invalid comment id.")
		return "", 0, false
	}
	return kind, uint(id), true
}

// ListReplies returns ledger entries for one comment, oldest first.
func (ac *AdminController) ListReplies(ctx *gin.Context) {
	kind, id, ok := parseTargetQuery(ctx)
	if !ok {
		return
	}
	activeOnly := ctx.Query("active_only") == "true"
	replies, err := models.ListReplies(ac.db, kind, id, activeOnly)
	if err != nil {
		utils.Sugar.Errorf("ledger list failed kind=%s id=%d err=%v", kind, id, err)
		fail(ctx, http.StatusInternalServerError, "Internal error.")
		return
	}
	views := make([]adminReplyView, 0, len(replies))
	for _, r := range replies {
		views = append(views, adminReplyView{
			ID:        r.ID,
			Reply:     r.Reply,
			AdminName: r.AdminName,
			Date:      r.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	utils.Success(ctx, views)
}

type editReplyRequest struct {
	ReplyID uint   `json:"reply_id"`
	Reply   string `json:"reply"`
}

// EditReply replaces a ledger entry's text.
func (ac *AdminController) EditReply(ctx *gin.Context) {
	var req editReplyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.ReplyID == 0 {
		fail(ctx, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := models.ReplyEdit(ac.db, req.ReplyID, utils.Sanitize(req.Reply)); err != nil {
		fail(ctx, commentErrStatus(err), commentErrMessage(err))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

type replyIDRequest struct {
	ReplyID uint `json:"reply_id"`
}

// ToggleReply flips a ledger entry's visibility.
func (ac *AdminController) ToggleReply(ctx *gin.Context) {
	var req replyIDRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.ReplyID == 0 {
		fail(ctx, http.StatusBadRequest, "Invalid request body.")
		return
	}
	active, err := models.ReplyToggle(ac.db, req.ReplyID)
	if err != nil {
		fail(ctx, commentErrStatus(err), commentErrMessage(err))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "is_active": active})
}

// DeleteReply removes a ledger entry outright.
func (ac *AdminController) DeleteReply(ctx *gin.Context) {
	var req replyIDRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.ReplyID == 0 {
		fail(ctx, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := models.ReplyDelete(ac.db, req.ReplyID); err != nil {
		fail(ctx, commentErrStatus(err), commentErrMessage(err))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

// FlatReplies returns the flattened reply subtree of one comment with
// parent-name attribution, including hidden rows since this is a staff view.
func (ac *AdminController) FlatReplies(ctx *gin.Context) {
	kind, id, ok := parseTargetQuery(ctx)
	if !ok {
		return
	}

	var target models.Comment
	if err := ac.db.Where("kind = ?", kind).First(&target, id).Error; err != nil {
		fail(ctx, commentErrStatus(err), commentErrMessage(err))
		return
	}

	var all []*models.Comment
	err := ac.db.Where("kind = ? AND item_id = ?", kind, target.ItemID).
		Preload("User").
		Order("created_at ASC, id ASC").
		Find(&all).Error
	if err != nil {
		utils.Sugar.Errorf("flat replies load failed kind=%s id=%d err=%v", kind, id, err)
		fail(ctx, http.StatusInternalServerError, "Internal error.")
		return
	}

	models.BuildCommentTree(all)
	for _, c := range all {
		if c.ID == target.ID {
			utils.Success(ctx, models.FlattenReplies(c))
			return
		}
	}
	utils.Success(ctx, []models.FlatReply{})
}

// ListBookRequests returns reader book requests, newest first.
func (ac *AdminController) ListBookRequests(ctx *gin.Context) {
	var reqs []models.BookRequest
	if err := ac.db.Order("created_at DESC").Find(&reqs).Error; err != nil {
		utils.Sugar.Errorf("book request list failed: %v", err)
		fail(ctx, http.StatusInternalServerError, "Internal error.")
		return
	}
	utils.Success(ctx, reqs)
}

// ListContactMessages returns contact form submissions, newest first.
func (ac *AdminController) ListContactMessages(ctx *gin.Context) {
	var msgs []models.ContactMessage
	if err := ac.db.Order("created_at DESC").Find(&msgs).Error; err != nil {
		utils.Sugar.Errorf("contact message list failed: %v", err)
		fail(ctx, http.StatusInternalServerError, "Internal error.")
		return
	}
	utils.Success(ctx, msgs)
}
