package controllers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bagarji/library/config"
	"github.com/bagarji/library/middleware"
	"github.com/bagarji/library/models"
	"github.com/bagarji/library/utils"
)

const tokenLifetime = 72 * time.Hour

// AuthController handles the public account lifecycle: OTP registration,
// login, logout and profile management.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// Register validates a new public account and sends the activation OTP. The
// user row is created inactive; VerifyOTP completes the signup.
func (a *AuthController) Register(ctx *gin.Context) {
	type request struct {
		Username      string `json:"username" binding:"required,min=3,max=64"`
		Email         string `json:"email" binding:"required"`
		Phone         string `json:"phone"`
		Password      string `json:"password" binding:"required,min=6"`
		Confirm       string `json:"confirm"`
		CaptchaID     string `json:"captcha_id"`
		CaptchaAnswer string `json:"captcha_answer"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if !validUsername(req.Username) {
		utils.Error(ctx, http.StatusBadRequest, 40002, "username may contain only letters, digits and '-'")
		return
	}
	if req.Password != req.Confirm {
		utils.Error(ctx, http.StatusBadRequest, 40002, "passwords do not match")
		return
	}

	if config.Get().RegisterCaptchaEnabled {
		if !utils.VerifyCaptcha(strings.TrimSpace(req.CaptchaID), strings.TrimSpace(req.CaptchaAnswer)) {
			utils.Error(ctx, http.StatusBadRequest, 40042, "captcha incorrect or expired")
			return
		}
	}

	// Anti-abuse: cooldown, per-IP daily limit, ban check
	ip := ctx.ClientIP()
	if utils.RegistrationIsBanned(ip) {
		utils.Error(ctx, http.StatusTooManyRequests, 42920, "this IP is temporarily restricted, try again later")
		return
	}
	if !utils.RegistrationCooldownTry(ip) {
		utils.Error(ctx, http.StatusTooManyRequests, 42910, "too many requests, try again later")
		return
	}
	if !utils.RegistrationDailyLimitCheck(ip) {
		utils.Error(ctx, http.StatusTooManyRequests, 42921, "daily registration limit reached")
		return
	}

	// Duplicates count only against activated accounts; a stale inactive row
	// with the same identity is reclaimed below.
	var n int64
	a.db.Model(&models.User{}).
		Where("(username = ? OR email = ?) AND active = ?", req.Username, req.Email, true).
		Count(&n)
	if n > 0 {
		utils.Error(ctx, http.StatusConflict, 40901, "username or email already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to hash password")
		return
	}

	var user models.User
	err = a.db.Where("username = ? AND active = ?", req.Username, false).First(&user).Error
	if err == nil {
		updates := map[string]interface{}{
			"email":         req.Email,
			"phone":         strings.TrimSpace(req.Phone),
			"password_hash": hash,
			"register_ip":   ip,
		}
		err = a.db.Model(&user).Updates(updates).Error
	} else {
		user = models.User{
			Username:     req.Username,
			Email:        req.Email,
			Phone:        strings.TrimSpace(req.Phone),
			PasswordHash: hash,
			RegisterIP:   ip,
			Active:       false,
		}
		err = a.db.Create(&user).Error
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to create user")
		fails := utils.RegistrationFailRecord(ip)
		if fails >= maxInt(config.Get().RegisterFailedMaxPerIPPerHour, 1) {
			utils.RegistrationBan(ip)
		}
		return
	}

	if !a.sendOTP(ctx, req.Email) {
		return
	}
	utils.Success(ctx, gin.H{"message": "verification code sent", "email": req.Email})
}

// sendOTP generates, mails and stores a 6-digit code with the per-email
// cooldown. It writes the error response itself on failure.
func (a *AuthController) sendOTP(ctx *gin.Context, email string) bool {
	if !utils.EmailCooldownTrySet(email, 60*time.Second) {
		utils.Error(ctx, http.StatusTooManyRequests, 42910, "too many requests, try again later")
		return false
	}
	code := utils.GenerateVerificationCode(6)
	subject := fmt.Sprintf("%s account verification", config.Get().SiteName)
	body := fmt.Sprintf("Your verification code is: %s\nIt is valid for 10 minutes.", code)
	if err := utils.SendMail(email, subject, body); err != nil {
		utils.Sugar.Errorf("otp mail failed to=%s err=%v", email, err)
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to send verification code")
		return false
	}
	// Store the code only after the mail goes out so dead codes don't pile up.
	utils.SaveCode(email, code, 10*time.Minute)
	return true
}

// SendEmailCode resends the activation OTP.
func (a *AuthController) SendEmailCode(ctx *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid request payload")
		return
	}
	email := strings.TrimSpace(req.Email)
	var user models.User
	if err := a.db.Where("email = ? AND active = ?", email, false).First(&user).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40402, "no pending registration for this email")
		return
	}
	if !a.sendOTP(ctx, email) {
		return
	}
	utils.Success(ctx, gin.H{"message": "verification code sent"})
}

// VerifyOTP consumes the emailed code, activates the account and issues a JWT.
func (a *AuthController) VerifyOTP(ctx *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
		Code  string `json:"code" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid request payload")
		return
	}
	email := strings.TrimSpace(req.Email)
	if !utils.VerifyAndConsumeCode(email, strings.TrimSpace(req.Code)) {
		utils.Error(ctx, http.StatusBadRequest, 40043, "verification code invalid or expired")
		return
	}

	var user models.User
	if err := a.db.Where("email = ? AND active = ?", email, false).First(&user).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40402, "no pending registration for this email")
		return
	}
	if err := a.db.Model(&user).UpdateColumn("active", true).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to activate account")
		return
	}
	utils.RegistrationDailyIncrement(user.RegisterIP)

	subject := fmt.Sprintf("Welcome to %s", config.Get().SiteName)
	body := fmt.Sprintf("Hi %s,\n\nYour account is now active. Happy reading!", user.Username)
	if err := utils.SendMail(user.Email, subject, body); err != nil {
		utils.Sugar.Warnf("welcome mail failed to=%s err=%v", user.Email, err)
	}

	token, err := utils.GenerateToken(user.ID, user.Username, user.IsStaff, tokenLifetime)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}
	utils.Success(ctx, gin.H{"token": token, "user": userResponse(user)})
}

// Captcha returns a fresh captcha id and base64 image (data URI)
func (a *AuthController) Captcha(ctx *gin.Context) {
	id, b64, err := utils.GenerateCaptcha()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to generate captcha")
		return
	}
	utils.Success(ctx, gin.H{"id": id, "image": b64})
}

// Login verifies credentials and issues a JWT. Staff accounts are refused:
// the dashboard has its own entrance and public sessions never carry staff
// rights implicitly.
func (a *AuthController) Login(ctx *gin.Context) {
	type request struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	var user models.User
	if err := a.db.Where("username = ? AND active = ?", req.Username, true).First(&user).Error; err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
		return
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
		return
	}
	if user.IsStaff {
		utils.Error(ctx, http.StatusForbidden, 40310, "You are not allowed to log in here. Please register as a public user.")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, user.IsStaff, tokenLifetime)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}
	utils.Success(ctx, gin.H{"token": token, "user": userResponse(user)})
}

// StaffLogin issues a staff token for the moderation dashboard.
func (a *AuthController) StaffLogin(ctx *gin.Context) {
	type request struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	var user models.User
	err := a.db.Where("username = ? AND active = ? AND is_staff = ?", req.Username, true, true).
		First(&user).Error
	if err != nil || !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, true, tokenLifetime)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}
	utils.Success(ctx, gin.H{"token": token, "user": userResponse(user)})
}

// Logout invalidates the token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		utils.Error(ctx, http.StatusUnauthorized, 40107, "invalid authorization header")
		return
	}

	token := strings.TrimSpace(parts[1])
	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}

	expiresAt := time.Now().Add(tokenLifetime)
	if claims.RegisteredClaims.ExpiresAt != nil {
		expiresAt = claims.RegisteredClaims.ExpiresAt.Time
	}

	utils.BlacklistToken(token, expiresAt)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the current authenticated user's information.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}
	utils.Success(ctx, userResponse(user))
}

// UpdateProfile lets the authenticated user change email and phone.
func (a *AuthController) UpdateProfile(ctx *gin.Context) {
	userID, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	var req struct {
		Email string `json:"email"`
		Phone string `json:"phone"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}

	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}

	if v := strings.TrimSpace(req.Email); v != "" {
		user.Email = v
	}
	if v := strings.TrimSpace(req.Phone); v != "" {
		user.Phone = v
	}
	if err := a.db.Save(&user).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to update profile")
		return
	}
	utils.Success(ctx, userResponse(user))
}

// UploadAvatar stores a new avatar under a uuid filename and removes the
// previous file.
func (a *AuthController) UploadAvatar(ctx *gin.Context) {
	userID, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}

	file, err := ctx.FormFile("avatar")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40032, "avatar file missing")
		return
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
	default:
		utils.Error(ctx, http.StatusBadRequest, 40033, "unsupported image type")
		return
	}

	mediaDir := filepath.Join(config.Get().MediaDir, "avatars")
	if err := os.MkdirAll(mediaDir, 0o755); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to store avatar")
		return
	}
	name := uuid.NewString() + ext
	dst := filepath.Join(mediaDir, name)
	if err := ctx.SaveUploadedFile(file, dst); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to store avatar")
		return
	}

	old := user.AvatarURL
	user.AvatarURL = "/media/avatars/" + name
	if err := a.db.Model(&user).UpdateColumn("avatar_url", user.AvatarURL).Error; err != nil {
		_ = os.Remove(dst)
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to store avatar")
		return
	}
	if strings.HasPrefix(old, "/media/") {
		_ = os.Remove(filepath.Join(config.Get().MediaDir, strings.TrimPrefix(old, "/media/")))
	}
	utils.Success(ctx, gin.H{"avatar_url": user.AvatarURL})
}

// DeleteAccount removes the user. Comments stay behind: their stored name
// keeps attributing them once the live user row is gone.
func (a *AuthController) DeleteAccount(ctx *gin.Context) {
	userID, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}
	if err := a.db.Delete(&user).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to delete account")
		return
	}

	authHeader := ctx.GetHeader("Authorization")
	if parts := strings.SplitN(authHeader, " ", 2); len(parts) == 2 {
		utils.BlacklistToken(strings.TrimSpace(parts[1]), time.Now().Add(tokenLifetime))
	}
	utils.Success(ctx, gin.H{"message": "account deleted"})
}

// validUsername allows letters, digits and '-'.
func validUsername(s string) bool {
	if l := len([]rune(s)); l < 3 || l > 64 {
		return false
	}
	for _, r := range s {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '-' {
			continue
		}
		return false
	}
	return true
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func userResponse(user models.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"email":      user.Email,
		"phone":      user.Phone,
		"avatar_url": user.AvatarURL,
		"is_staff":   user.IsStaff,
		"created_at": user.CreatedAt,
	}
}
