package middleware

import (
	"errors"
	"net/http"

	"parsgolf/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	CheckUserKey   = "user"
	SessionUserKey = "user_id"
)

// CurrentUser 返回当前登录用户，未登录为 nil
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(CheckUserKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// LoadUser retrieves user from session and sets to context
func LoadUser(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get(SessionUserKey)

		if userID != nil {
			var user models.User
			err := db.WithContext(c.Request.Context()).First(&user, userID).Error
			switch {
			case err == nil:
				c.Set(CheckUserKey, &user)
			case errors.Is(err, gorm.ErrRecordNotFound):
				// 账号已被删除，清掉失效的 session
				session.Delete(SessionUserKey)
				_ = session.Save()
			default:
				log.Warn("Failed to load session user", zap.Error(err))
			}
		}
		c.Next()
	}
}

// AuthRequired 未登录返回 401 JSON
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Login required",
			})
			return
		}
		c.Next()
	}
}

// ModeratorRequired employee 或 admin 才能访问
func ModeratorRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Login required",
			})
			return
		}
		if !user.IsModerator() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Employee or admin privileges required",
			})
			return
		}
		c.Next()
	}
}
