package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bagarji/library/config"
	"github.com/bagarji/library/controllers"
	"github.com/bagarji/library/middleware"
	"github.com/bagarji/library/models"
	"github.com/bagarji/library/utils"
)

// contentSegments maps URL segments to the comment kind they carry.
var contentSegments = []struct {
	seg  string
	kind models.CommentKind
}{
	{"articles", models.KindBlog},
	{"books", models.KindBook},
	{"bookreviews", models.KindBookReview},
	{"news", models.KindNews},
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Record content views after each request
	r.Use(middleware.PageViewRecorder(db))

	r.Static("/media", cfg.MediaDir)

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db)
	contentController := controllers.NewContentController(db)
	commentController := controllers.NewCommentController(db)
	adminController := controllers.NewAdminController(db)
	requestController := controllers.NewRequestController(db)
	statsController := controllers.NewStatsController(db)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register/", authController.Register)
	authGroup.POST("/verify-otp/", authController.VerifyOTP)
	authGroup.POST("/send-email-code/", authController.SendEmailCode)
	authGroup.GET("/captcha/", authController.Captcha)
	authGroup.POST("/login/", authController.Login)
	authGroup.POST("/staff-login/", authController.StaffLogin)
	authGroup.POST("/logout/", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me/", middleware.AuthRequired(), authController.Me)
	authGroup.PATCH("/profile/", middleware.AuthRequired(), authController.UpdateProfile)
	authGroup.POST("/avatar/", middleware.AuthRequired(), authController.UploadAvatar)
	authGroup.DELETE("/account/", middleware.AuthRequired(), authController.DeleteAccount)

	// Content catalogue
	api.GET("/articles/", contentController.ListArticles)
	api.GET("/articles/:id/", contentController.GetArticle)
	api.GET("/articles/search/", contentController.SearchArticles)
	api.GET("/books/", contentController.ListBooks)
	api.GET("/books/:id/", contentController.GetBook)
	api.GET("/books/search/", contentController.SearchBooks)
	api.GET("/books/suggestions/", contentController.BookSuggestions)
	api.GET("/news/", contentController.ListNews)
	api.GET("/news/:id/", contentController.GetNews)
	api.GET("/news/search/", contentController.SearchNews)
	api.GET("/bookreviews/", contentController.ListBookReviews)
	api.GET("/bookreviews/:id/", contentController.GetBookReview)
	api.GET("/bookreviews/search/", contentController.SearchBookReviews)
	api.GET("/categories/", contentController.ListCategories)

	// Comment trees, one route set per content segment
	for _, cs := range contentSegments {
		api.GET("/"+cs.seg+"/:id/comments/", middleware.AuthOptional(), commentController.List(cs.kind))
		api.POST("/"+cs.seg+"/:id/comments/", middleware.CommentAuthRequired(), commentController.Create(cs.kind))
		api.PATCH("/"+cs.seg+"/:id/comments/", middleware.CommentAuthRequired(), commentController.Edit(cs.kind))
		api.GET("/"+cs.seg+"/:id/stats/", statsController.GetItemStats(cs.kind, cs.seg))
	}

	// Staff moderation surface
	staff := api.Group("", middleware.StaffRequired())
	staff.GET("/admin/comments/", adminController.Dashboard)
	staff.POST("/comments/reply/", adminController.AddReply)
	staff.POST("/comments/delete/", adminController.DeleteComment)
	staff.POST("/comments/toggle/", adminController.ToggleComment)
	staff.GET("/comments/replies/", adminController.ListReplies)
	staff.POST("/comments/replies/edit/", adminController.EditReply)
	staff.POST("/comments/replies/toggle/", adminController.ToggleReply)
	staff.POST("/comments/replies/delete/", adminController.DeleteReply)
	staff.GET("/comments/flat/", adminController.FlatReplies)
	staff.GET("/admin/requests/books/", adminController.ListBookRequests)
	staff.GET("/admin/contact/", adminController.ListContactMessages)

	// Requests & messages
	api.POST("/requests/books/", middleware.AuthRequired(), requestController.CreateBookRequest)
	api.POST("/contact/", requestController.CreateContactMessage)

	// Public stats endpoint
	api.GET("/stats/", statsController.GetStats)

	r.NoRoute(func(ctx *gin.Context) {
		path := ctx.Request.URL.Path
		if strings.HasPrefix(path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		ctx.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	})

	return r
}
