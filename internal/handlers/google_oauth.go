package handlers

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"parsgolf/internal/config"
	"parsgolf/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	oauthStateKey      = "oauth_state"
	googleUserInfoURL  = "https://www.googleapis.com/oauth2/v2/userinfo"
	googleCallbackPath = "/auth/login/google/callback"
)

// GoogleOAuth Google 登录配置
type GoogleOAuth struct {
	config      *oauth2.Config
	userInfoURL string
}

// NewGoogleOAuth 未配置 client id / secret 时返回 nil
func NewGoogleOAuth(cfg *config.Config) *GoogleOAuth {
	if !cfg.GoogleEnabled() {
		return nil
	}
	return &GoogleOAuth{
		config: &oauth2.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.SiteURL + googleCallbackPath,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

// GoogleUserInfo Google 用户信息结构
type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// generateStateToken 生成随机 state token
func generateStateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// GoogleLogin GET /auth/login/google
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	if h.google == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Google login is not configured"})
		return
	}

	state, err := generateStateToken()
	if err != nil {
		respondError(c, err)
		return
	}

	// state 存入 session，回调时校验
	session := sessions.Default(c)
	session.Set(oauthStateKey, state)
	if err := session.Save(); err != nil {
		respondError(c, err)
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, h.google.config.AuthCodeURL(state))
}

// GoogleCallback GET /auth/login/google/callback
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if h.google == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Google login is not configured"})
		return
	}

	session := sessions.Default(c)
	savedState, _ := session.Get(oauthStateKey).(string)
	if savedState == "" || c.Query("state") != savedState {
		badRequest(c, "Invalid state parameter")
		return
	}
	session.Delete(oauthStateKey)
	_ = session.Save()

	code := c.Query("code")
	if code == "" {
		badRequest(c, "Access denied: "+c.Query("error"))
		return
	}

	ctx := c.Request.Context()
	token, err := h.google.config.Exchange(ctx, code)
	if err != nil {
		h.log.Warn("Google token exchange failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "Failed to get access token"})
		return
	}

	info, err := h.google.userInfo(ctx, token)
	if err != nil {
		h.log.Warn("Google userinfo failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "Failed to get user info"})
		return
	}
	if !info.VerifiedEmail {
		badRequest(c, "Google email is not verified")
		return
	}

	user, err := h.users.LoginOAuth(ctx, services.OAuthProfile{
		Provider: "google",
		ID:       info.ID,
		Email:    info.Email,
		Picture:  info.Picture,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.login(c, user); err != nil {
		respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (g *GoogleOAuth) userInfo(ctx context.Context, token *oauth2.Token) (*GoogleUserInfo, error) {
	resp, err := g.config.Client(ctx, token).Get(g.userInfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var info GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}
