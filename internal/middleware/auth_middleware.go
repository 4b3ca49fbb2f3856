package middleware

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zevohq/zevo/internal/helpers"
	"github.com/zevohq/zevo/internal/models"
)

// UserLookup resolves the caller's current user record for an authenticated
// request. Returning gorm.ErrRecordNotFound means the account no longer
// exists.
type UserLookup func(c *gin.Context, userID uuid.UUID) (*models.User, error)

// JWTAuthMiddleware verifies the bearer token and resolves the caller's
// identity. The role is re-fetched from the users table on every request
// rather than trusted from the claim, so a role change takes effect
// immediately, not at token expiry.
func JWTAuthMiddleware() gin.HandlerFunc {
	return JWTAuthWithLookup(lookupUser)
}

// JWTAuthWithLookup is JWTAuthMiddleware with the user lookup injected.
func JWTAuthWithLookup(lookup UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			helpers.RespondWithError(c, http.StatusUnauthorized, "Missing bearer token.")
			c.Abort()
			return
		}
		raw := strings.TrimPrefix(auth, "Bearer ")

		token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(os.Getenv("JWT_SECRET")), nil
		})
		if err != nil || !token.Valid {
			helpers.RespondWithError(c, http.StatusUnauthorized, "Invalid token.")
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			helpers.RespondWithError(c, http.StatusUnauthorized, "Invalid token claims.")
			c.Abort()
			return
		}
		sub, ok := claims["user_id"].(string)
		if !ok {
			helpers.RespondWithError(c, http.StatusUnauthorized, "Invalid token claims.")
			c.Abort()
			return
		}
		userID, err := uuid.Parse(sub)
		if err != nil {
			helpers.RespondWithError(c, http.StatusUnauthorized, "Invalid token claims.")
			c.Abort()
			return
		}

		user, err := lookup(c, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				helpers.RespondWithError(c, http.StatusUnauthorized, "Account no longer exists.")
			} else {
				helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to resolve user.")
			}
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("role", user.Role.Name)
		c.Next()
	}
}

func lookupUser(c *gin.Context, userID uuid.UUID) (*models.User, error) {
	db, exists := c.Get("db")
	if !exists {
		return nil, errors.New("database connection not found")
	}
	gormDB := db.(*gorm.DB)

	var user models.User
	if err := gormDB.Preload("Role").Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// RequireRoles is the single role-policy gate in front of protected routes.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		role, ok := c.Get("role")
		name, isString := role.(string)
		if !ok || !isString || !allowed[name] {
			helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to perform this action.")
			c.Abort()
			return
		}
		c.Next()
	}
}
