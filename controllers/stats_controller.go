package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bagarji/library/models"
	"github.com/bagarji/library/utils"
)

// StatsController provides site statistics such as counts and daily views.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// GetStats returns aggregate statistics for the site.
func (s *StatsController) GetStats(ctx *gin.Context) {
	var userCount int64
	var bookCount int64
	var articleCount int64
	var commentCount int64
	var dailyViews int64

	if err := s.db.Model(&models.User{}).Where("active = ?", true).Count(&userCount).Error; err != nil {
		// Fallback to 0 instead of failing the whole endpoint
		userCount = 0
	}
	if err := s.db.Model(&models.Book{}).Count(&bookCount).Error; err != nil {
		bookCount = 0
	}
	if err := s.db.Model(&models.Article{}).Count(&articleCount).Error; err != nil {
		articleCount = 0
	}
	if err := s.db.Model(&models.Comment{}).Count(&commentCount).Error; err != nil {
		commentCount = 0
	}

	// Use string date equality to avoid timezone/type mismatches with DATE column
	today := time.Now().In(time.Local).Format("2006-01-02")
	if err := s.db.Model(&models.PageView{}).
		Where("date = ?", today).
		Select("COALESCE(SUM(count),0)").
		Scan(&dailyViews).Error; err != nil {
		dailyViews = 0
	}

	utils.Success(ctx, gin.H{
		"user_count":    userCount,
		"book_count":    bookCount,
		"article_count": articleCount,
		"comment_count": commentCount,
		"daily_views":   dailyViews,
	})
}

// GetItemStats returns cumulative views and comment count for one content
// item, identified by its kind segment and id.
func (s *StatsController) GetItemStats(kind models.CommentKind, seg string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.Param("id")

		var views int64
		path := "/api/" + seg + "/" + id + "/"
		if err := s.db.Model(&models.PageView{}).
			Where("path IN ?", []string{path, "/api/" + seg + "/" + id}).
			Select("COALESCE(SUM(count),0)").
			Scan(&views).Error; err != nil {
			views = 0
		}

		var commentsCount int64
		if err := s.db.Model(&models.Comment{}).
			Where("kind = ? AND item_id = ?", kind, id).
			Count(&commentsCount).Error; err != nil {
			commentsCount = 0
		}

		utils.Success(ctx, gin.H{
			"views":          views,
			"comments_count": commentsCount,
		})
	}
}
