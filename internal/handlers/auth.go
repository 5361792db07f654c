package handlers

import (
	"net/http"

	"parsgolf/internal/middleware"
	"parsgolf/internal/models"
	"parsgolf/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	users  *services.UserService
	google *GoogleOAuth
	log    *zap.Logger
}

func NewAuthHandler(users *services.UserService, google *GoogleOAuth, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{users: users, google: google, log: log}
}

func userView(u *models.User) gin.H {
	return gin.H{
		"id":              u.ID,
		"username":        u.Username,
		"email":           u.Email,
		"profile_picture": u.ProfilePicture,
		"role":            u.Role,
	}
}

func (h *AuthHandler) login(c *gin.Context, user *models.User) error {
	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, user.ID)
	return session.Save()
}

// Register POST /auth/api/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "username, email and password are required")
		return
	}

	if _, err := h.users.Register(c.Request.Context(), req.Username, req.Email, req.Password, models.RoleUser); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "User registered successfully"})
}

// Login POST /auth/api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, services.ErrInvalidCredentials)
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.login(c, user); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": userView(user)})
}

// Logout POST /auth/api/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out successfully"})
}

// Me GET /auth/api/user
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, userView(middleware.CurrentUser(c)))
}
