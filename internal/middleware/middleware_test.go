package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"parsgolf/internal/models"
	"parsgolf/internal/testutil"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestModeratorRequired(t *testing.T) {
	tests := []struct {
		name string
		user *models.User
		want int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"plain user", &models.User{ID: 1, Role: models.RoleUser}, http.StatusForbidden},
		{"employee", &models.User{ID: 2, Role: models.RoleEmployee}, http.StatusOK},
		{"admin", &models.User{ID: 3, Role: models.RoleAdmin}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(func(c *gin.Context) {
				if tt.user != nil {
					c.Set(CheckUserKey, tt.user)
				}
			})
			r.GET("/", ModeratorRequired(), func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			require.Equal(t, tt.want, w.Code)
		})
	}
}

func TestAuthRequired(t *testing.T) {
	r := gin.New()
	r.GET("/", AuthRequired(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), `"success":false`)
}

func TestLoadUserFromSession(t *testing.T) {
	gdb := testutil.NewDB(t)
	user := testutil.CreateUser(t, gdb, models.RoleUser)

	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))
	r.Use(RequestLogger(zap.NewNop()))
	r.Use(LoadUser(gdb, nil))
	r.GET("/login", func(c *gin.Context) {
		s := sessions.Default(c)
		s.Set(SessionUserKey, user.ID)
		require.NoError(t, s.Save())
		c.Status(http.StatusOK)
	})
	r.GET("/me", AuthRequired(), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUser(c).Username)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, user.Username, w.Body.String())
}
