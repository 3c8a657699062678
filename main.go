package main

import (
	"os"

	"gorm.io/gorm"

	"github.com/bagarji/library/config"
	"github.com/bagarji/library/maintenance"
	"github.com/bagarji/library/models"
	"github.com/bagarji/library/routes"
	"github.com/bagarji/library/utils"
)

func migratedModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Category{},
		&models.Keyword{},
		&models.Book{},
		&models.Article{},
		&models.News{},
		&models.BookReview{},
		&models.Comment{},
		&models.CommentReply{},
		&models.BookRequest{},
		&models.ContactMessage{},
		&models.AuditLog{},
		&models.PageView{},
	}
}

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	// Maintenance commands run instead of the server when args are present.
	if len(os.Args) > 1 {
		app := maintenance.NewApp(func() *gorm.DB {
			return config.InitDatabase(migratedModels()...)
		})
		if err := app.Run(os.Args); err != nil {
			utils.Sugar.Fatalf("maintenance command failed: %v", err)
		}
		return
	}

	db := config.InitDatabase(migratedModels()...)
	r := routes.SetupRouter(db)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
