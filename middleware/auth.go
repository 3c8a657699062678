package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bagarji/library/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"
	// ContextIsStaffKey marks moderation-capable accounts inside Gin context.
	ContextIsStaffKey = "is_staff"
)

// AuthRequired ensures the request is authenticated via JWT.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		claims, ok := resolveClaims(ctx)
		if !ok {
			return
		}
		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextUsernameKey, claims.Username)
		ctx.Set(ContextIsStaffKey, claims.IsStaff)
		ctx.Next()
	}
}

// AuthOptional resolves identity when a valid token is present but lets
// anonymous requests through. Comment listings use it to mark is_owner.
func AuthOptional() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if claims, ok := claimsFromHeader(ctx); ok {
			ctx.Set(ContextUserIDKey, claims.UserID)
			ctx.Set(ContextUsernameKey, claims.Username)
			ctx.Set(ContextIsStaffKey, claims.IsStaff)
		}
		ctx.Next()
	}
}

// CommentAuthRequired guards the comment write endpoints, which speak the
// bare {success, error} shape. Anonymous or unverifiable requests get a
// generic 403 instead of the coded envelope AuthRequired sends.
func CommentAuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		claims, ok := claimsFromHeader(ctx)
		if !ok {
			ctx.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Authentication required."})
			ctx.Abort()
			return
		}
		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextUsernameKey, claims.Username)
		ctx.Set(ContextIsStaffKey, claims.IsStaff)
		ctx.Next()
	}
}

// StaffRequired gates moderation endpoints. It replies with the dashboard's
// bare error shape rather than the public envelope.
func StaffRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		claims, ok := resolveClaims(ctx)
		if !ok {
			return
		}
		if !claims.IsStaff {
			ctx.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Not authenticated"})
			ctx.Abort()
			return
		}
		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextUsernameKey, claims.Username)
		ctx.Set(ContextIsStaffKey, true)
		ctx.Next()
	}
}

// claimsFromHeader parses the bearer token without writing any response.
func claimsFromHeader(ctx *gin.Context) (*utils.Claims, bool) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return nil, false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, false
	}
	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" || utils.IsTokenBlacklisted(tokenString) {
		return nil, false
	}
	claims, err := utils.ParseToken(tokenString)
	if err != nil {
		return nil, false
	}
	return claims, true
}

func resolveClaims(ctx *gin.Context) (*utils.Claims, bool) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		utils.Error(ctx, http.StatusUnauthorized, 40101, "authorization header missing")
		ctx.Abort()
		return nil, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		utils.Error(ctx, http.StatusUnauthorized, 40102, "invalid authorization header format")
		ctx.Abort()
		return nil, false
	}

	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		utils.Error(ctx, http.StatusUnauthorized, 40103, "empty bearer token")
		ctx.Abort()
		return nil, false
	}

	if utils.IsTokenBlacklisted(tokenString) {
		utils.Error(ctx, http.StatusUnauthorized, 40104, "token revoked")
		ctx.Abort()
		return nil, false
	}

	claims, err := utils.ParseToken(tokenString)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		ctx.Abort()
		return nil, false
	}
	return claims, true
}
