package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bagarji/library/models"
	"github.com/bagarji/library/utils"
)

const (
	previewLen      = 200
	contentCacheTTL = 5 * time.Minute
)

// ContentController serves the public catalogue: books, blog articles, news
// and book reviews, with list/detail/search surfaces.
type ContentController struct {
	db *gorm.DB
}

// NewContentController wires the controller with its database handle.
func NewContentController(db *gorm.DB) *ContentController {
	return &ContentController{db: db}
}

// applyListScopes adds the shared category filter and sort order. dateCol is
// the per-table publication column used for the chronological sorts.
func applyListScopes(ctx *gin.Context, q *gorm.DB, table, dateCol string) *gorm.DB {
	if category := ctx.Query("category"); category != "" {
		q = q.Joins(fmt.Sprintf("JOIN categories ON categories.id = %s.category_id", table)).
			Where("LOWER(categories.name) = LOWER(?)", category)
	}
	switch ctx.DefaultQuery("sort_by", "newest") {
	case "oldest":
		q = q.Order(fmt.Sprintf("%s.%s ASC, %s.id ASC", table, dateCol, table))
	case "alphabetical":
		q = q.Order(fmt.Sprintf("%s.title ASC", table))
	default:
		q = q.Order(fmt.Sprintf("%s.%s DESC, %s.id DESC", table, dateCol, table))
	}
	return q
}

func listCacheKey(seg string, ctx *gin.Context) string {
	return fmt.Sprintf("content:%s:list:%s:%s",
		seg, ctx.Query("category"), ctx.DefaultQuery("sort_by", "newest"))
}

// serveCached replies from redis when the list is cached. Only unfiltered
// query strings beyond category/sort_by reach here, so the key is complete.
func serveCached(ctx *gin.Context, key string) bool {
	if b, ok := utils.CacheGetBytes(key); ok {
		ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
		return true
	}
	return false
}

func cacheAndSucceed(ctx *gin.Context, key string, data interface{}) {
	resp := utils.JSONResponse{Code: 0, Message: "success", Data: data}
	utils.CacheSetJSON(key, resp, contentCacheTTL)
	utils.Success(ctx, data)
}

// ListBooks returns catalogue books with category filter and sort.
func (cc *ContentController) ListBooks(ctx *gin.Context) {
	key := listCacheKey("books", ctx)
	if serveCached(ctx, key) {
		return
	}
	var books []models.Book
	q := applyListScopes(ctx, cc.db.Model(&models.Book{}).Preload("Category"), "books", "publication_date")
	if err := q.Find(&books).Error; err != nil {
		utils.Sugar.Errorf("book list failed: %v", err)
		fail(ctx, http.StatusInternalServerError, "Internal error.")
		return
	}
	views := make([]gin.H, 0, len(books))
	for _, b := range books {
		views = append(views, gin.H{
			"id":               b.ID,
			"title":            b.Title,
			"author":           b.Author,
			"preview":          utils.MarkdownPreview(b.Description, previewLen),
			"cover_image":      b.CoverImage,
			"available":        b.Available,
			"category":         b.Category.Name,
			"publication_date": b.PublicationDate,
		})
	}
	cacheAndSucceed(ctx, key, views)
}

// GetBook returns one book with its description rendered to sanitized HTML.
func (cc *ContentController) GetBook(ctx *gin.Context) {
	id, ok := parseItemID(ctx)
	if !ok {
		return
	}
	var b models.Book
	if err := cc.db.Preload("Category").First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fail(ctx, http.StatusNotFound, "Not found.")
			return
		}
		utils.Sugar.Errorf("book detail failed id=%d: %v", id, err)
		fail(ctx, http.StatusInternalServerError, "Internal error.")
		return
	}
	utils.Success(ctx, gin.H{
		"id":               b.ID,
		"title":            b.Title,
		"author":           b.Author,
		"description_html": utils.RenderMarkdown(b.Description),
		"pdf_file":         b.PDFFile,
		"cover_image":      b.CoverImage,
		"available":        b.Available,
		"category":         b.Category.Name,
		"publication_date": b.PublicationDate,
	})
}

// SearchBooks matches the query across title, author and description.
func (cc *ContentController) SearchBooks(ctx *gin.Context) {
	query := ctx.Query("query")
	if query == "" {
		utils.Success(ctx, []gin.H{})
		return
	}
	like := "%" + query + "%"
	var books []models.Book
	err := cc.db.Preload("Category").
		Where("title LIKE ? OR author LIKE ? OR description LIKE ?", like, like, like).
		Order("title ASC").
		Find(&books).Error
	if err != nil {
		utils.Sugar.Errorf("book search failed: %v", err)
		fail(ctx, http.StatusInternalServerError, "Internal error.")
		return
	}
	views := make([]gin.H, 0, len(books))
	for _, b := range books {
		views = append(views, gin.H{
			"id":          b.ID,
			"title":       b.Title,
			"author":      b.Author,
			"preview":     utils.MarkdownPreview(b.Description, previewLen),
			"cover_image": b.CoverImage,
			"category":    b.Category.Name,
		})
	}
	utils.Success(ctx, views)
}

// BookSuggestions returns up to 8 title prefix matches for typeahead.
func (cc *ContentController) BookSuggestions(ctx *gin.Context) {
	query := ctx.Query("query")
	if query == "" {
		utils.Success(ctx, []gin.H{})
		return
	}
	var books []models.Book
	err := cc.db.Select("id", "title", "author").
		Where("title LIKE ?", query+"%").
		Order("title ASC").
		Limit(8).
		Find(&books).Error
	if err != nil {
		utils.Sugar.Errorf("book suggestions failed: %v", err)
		fail(ctx, http.StatusInternalServerError, "Internal error.")
		return
	}
	views := make([]gin.H, 0, len(books))
	for _, b := range books {
		views = append(views, gin.H{"id": b.ID, "title": b.Title, "author": b.Author})
	}
	utils.Success(ctx, views)
}

// ListArticles returns blog articles with category filter and sort.
func (cc *ContentController) ListArticles(ctx *gin.Context) {
	key := listCacheKey("articles", ctx)
	if serveCached(ctx, key) {
		return
	}
	var articles []models.Article
	q := applyListScopes(ctx, cc.db.Model(&models.Article{}).Preload("Category").Preload("Keywords"), "articles", "publication_date")
	if err := q.Find(&articles).Error; err != nil {
		utils.Sugar.Errorf("article list failed: %v", err)
		fail(ctx, http.StatusInternalServerError, "Internal error.")
		return
	}
	views := make([]gin.H, 0, len(articles))
	for _, a := range articles {
		keywords := make([]string, 0, len(a.Keywords))
		for _, k := range a.Keywords {
			keywords = append(keywords, k.Word)
		}
		views = append(views, gin.H{
			"id":               a.ID,
			"title":            a.Title,
			"author":           a.Author,
			"preview":          utils.MarkdownPreview(a.Content, previewLen),
			"image":            a.Image,
			"category":         a.Category.Name,
			"keywords":         keywords,
			"publication_date": a.PublicationDate,
		})
	}
	cacheAndSucceed(ctx, key, views)
}

// GetArticle returns one article with rendered content.
func (cc *ContentController) GetArticle(ctx *gin.Context) {
	id, ok := parseItemID(ctx)
	if !ok {
		return
	}
	var a models.Article
	if err := cc.db.Preload("Category").Preload("Keywords").First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fail(ctx, http.StatusNotFound, "Not found.")
			return
		}
		utils.Sugar.Errorf("article detail failed id=%d: %v", id, err)
		fail(ctx, http.StatusInternalServerError, "Internal error.")
		return
	}
	keywords := make([]string, 0, len(a.Keywords))
	for _, k := range a.Keywords {
		keywords = append(keywords, k.Word)
	}
	utils.Success(ctx, gin.H{
		"id":               a.ID,
		"title":            a.Title,
		"author":           a.Author,
		"content_html":     utils.RenderMarkdown(a.Content),
		"image":            a.Image,
		"category":         a.Category.Name,
		"keywords":         keywords,
		"publication_date": a.PublicationDate,
	})
}

// SearchArticles matches the query across title, content and author.
func (cc *ContentController) SearchArticles(ctx *gin.Context) {
	query := ctx.Query("query")
	if query == "" {
		utils.Success(ctx, []gin.H{})
		return
	}
	like := "%" + query + "%"
	var articles []models.Article
	err := cc.db.Preload("Category").
		Where("title LIKE ? OR content LIKE ? OR author LIKE ?", like, like, like).
		Order("publication_date DESC").
		Find(&articles).Error
	if err != nil {
		utils.Sugar.Errorf("article search failed: %v", err)
		fail(ctx, http.StatusInternalServerError, "Internal error.")
		return
	}
	views := make([]gin.H, 0, len(articles))
	for _, a := range articles {
		views = append(views, gin.H{
			"id":       a.ID,
			"title":    a.Title,
			"author":   a.Author,
			"preview":  utils.MarkdownPreview(a.Content, previewLen),
			"category": a.Category.Name,
		})
	}
	utils.Success(ctx, views)
}

// ListNews returns news items with category filter and sort.
func (cc *ContentController) ListNews(ctx *gin.Context) {
	key := listCacheKey("news", ctx)
	if serveCached(ctx, key) {
		return
	}
	var items []models.News
	q := applyListScopes(ctx, cc.db.Model(&models.News{}).Preload("Category"), "news", "publication_date")
	if err := q.Find(&items).Error; err != nil {
		utils.Sugar.Errorf("news list failed: %v", err)
		fail(ctx, http.StatusInternalServerError, "Internal error.")
		return
	}
	views := make([]gin.H, 0, len(items))
	for _, n := range items {
		views = append(views, gin.H{
			"id":               n.ID,
			"title":            n.Title,
			"preview":          utils.MarkdownPreview(n.Content, previewLen),
			"image":            n.Image,
			"category":         n.Category.Name,
			"publication_date": n.PublicationDate,
		})
	}
	cacheAndSucceed(ctx, key, views)
}

// GetNews returns one news item with rendered content.
func (cc *ContentController) GetNews(ctx *gin.Context) {
	id, ok := parseItemID(ctx)
	if !ok {
		return
	}
	var n models.News
	if err := cc.db.Preload("Category").First(&n, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fail(ctx, http.StatusNotFound, "Not found.")
			return
		}
		utils.Sugar.Errorf("news detail failed id=%d: %v", id, err)
		fail(ctx, http.StatusInternalServerError, "Internal error.")
		return
	}
	utils.Success(ctx, gin.H{
		"id":               n.ID,
		"title":            n.Title,
		"content_html":     utils.RenderMarkdown(n.Content),
		"image":            n.Image,
		"category":         n.Category.Name,
		"publication_date": n.PublicationDate,
	})
}

// SearchNews matches the query across title and content.
func (cc *ContentController) SearchNews(ctx *gin.Context) {
	query := ctx.Query("query")
	if query == "" {
		utils.Success(ctx, []gin.H{})
		return
	}
	like := "%" + query + "%"
	var items []models.News
	err := cc.db.Preload("Category").
		Where("title LIKE ? OR content LIKE ?", like, like).
		Order("publication_date DESC").
		Find(&items).Error
	if err != nil {
		utils.Sugar.Errorf("news search failed: %v", err)
		fail(ctx, http.StatusInternalServerError, "Internal error.")
		return
	}
	views := make([]gin.H, 0, len(items))
	for _, n := range items {
		views = append(views, gin.H{
			"id":               n.ID,
			"title":            n.Title,
			"preview":          utils.MarkdownPreview(n.Content, previewLen),
			"image":            n.Image,
			"category":         n.Category.Name,
			"publication_date": n.PublicationDate,
		})
	}
	utils.Success(ctx, views)
}

// ListBookReviews returns reviews newest first; category and alphabetical
// scopes apply to the reviewed book.
func (cc *ContentController) ListBookReviews(ctx *gin.Context) {
	key := listCacheKey("bookreviews", ctx)
	if serveCached(ctx, key) {
		return
	}
	q := cc.db.Model(&models.BookReview{}).Preload("Book")
	if category := ctx.Query("category"); category != "" {
		q = q.Joins("JOIN books ON books.id = book_reviews.book_id").
			Joins("JOIN categories ON categories.id = books.category_id").
			Where("LOWER(categories.name) = LOWER(?)", category)
	}
	switch ctx.DefaultQuery("sort_by", "newest") {
	case "oldest":
		q = q.Order("book_reviews.review_date ASC, book_reviews.id ASC")
	case "alphabetical":
		q = q.Joins("JOIN books b2 ON b2.id = book_reviews.book_id").Order("b2.title ASC")
	default:
		q = q.Order("book_reviews.review_date DESC, book_reviews.id DESC")
	}
	var reviews []models.BookReview
	if err := q.Find(&reviews).Error; err != nil {
		utils.Sugar.Errorf("book review list failed: %v", err)
		fail(ctx, http.StatusInternalServerError, "Internal error.")
		return
	}
	views := make([]gin.H, 0, len(reviews))
	for _, r := range reviews {
		views = append(views, gin.H{
			"id":            r.ID,
			"book_id":       r.BookID,
			"book_title":    r.Book.Title,
			"reviewer_name": r.ReviewerName,
			"preview":       utils.MarkdownPreview(r.ReviewText, previewLen),
			"image":         r.Image,
			"review_date":   r.ReviewDate,
		})
	}
	cacheAndSucceed(ctx, key, views)
}

// GetBookReview returns one review with rendered text.
func (cc *ContentController) GetBookReview(ctx *gin.Context) {
	id, ok := parseItemID(ctx)
	if !ok {
		return
	}
	var r models.BookReview
	if err := cc.db.Preload("Book").First(&r, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fail(ctx, http.StatusNotFound, "Not found.")
			return
		}
		utils.Sugar.Errorf("book review detail failed id=%d: %v", id, err)
		fail(ctx, http.StatusInternalServerError, "Internal error.")
		return
	}
	utils.Success(ctx, gin.H{
		"id":               r.ID,
		"book_id":          r.BookID,
		"book_title":       r.Book.Title,
		"reviewer_name":    r.ReviewerName,
		"review_text_html": utils.RenderMarkdown(r.ReviewText),
		"image":            r.Image,
		"review_date":      r.ReviewDate,
	})
}

// SearchBookReviews matches the query across the reviewed book's title, the
// review text and the reviewer name.
func (cc *ContentController) SearchBookReviews(ctx *gin.Context) {
	query := ctx.Query("query")
	if query == "" {
		utils.Success(ctx, []gin.H{})
		return
	}
	like := "%" + query + "%"
	var reviews []models.BookReview
	err := cc.db.Preload("Book").
		Joins("JOIN books ON books.id = book_reviews.book_id").
		Where("books.title LIKE ? OR book_reviews.review_text LIKE ? OR book_reviews.reviewer_name LIKE ?", like, like, like).
		Order("book_reviews.review_date DESC").
		Find(&reviews).Error
	if err != nil {
		utils.Sugar.Errorf("book review search failed: %v", err)
		fail(ctx, http.StatusInternalServerError, "Internal error.")
		return
	}
	views := make([]gin.H, 0, len(reviews))
	for _, r := range reviews {
		views = append(views, gin.H{
			"id":            r.ID,
			"book_id":       r.BookID,
			"book_title":    r.Book.Title,
			"reviewer_name": r.ReviewerName,
			"preview":       utils.MarkdownPreview(r.ReviewText, previewLen),
			"review_date":   r.ReviewDate,
		})
	}
	utils.Success(ctx, views)
}

// ListCategories returns active categories, optionally filtered by type.
func (cc *ContentController) ListCategories(ctx *gin.Context) {
	q := cc.db.Where("active = ?", true)
	if t := ctx.Query("type"); t != "" {
		q = q.Where("type = ?", t)
	}
	var cats []models.Category
	if err := q.Order("name ASC").Find(&cats).Error; err != nil {
		utils.Sugar.Errorf("category list failed: %v", err)
		fail(ctx, http.StatusInternalServerError, "Internal error.")
		return
	}
	utils.Success(ctx, cats)
}
