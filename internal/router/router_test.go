package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"parsgolf/internal/config"
	"parsgolf/internal/db"
	"parsgolf/internal/models"
	"parsgolf/internal/services"
	"parsgolf/internal/testutil"
	"parsgolf/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var accounts atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
}

// client 保存 session cookie 的测试客户端
type client struct {
	t       *testing.T
	r       http.Handler
	cookies []*http.Cookie
}

func (c *client) do(method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	c.r.ServeHTTP(w, req)
	if cks := w.Result().Cookies(); len(cks) > 0 {
		c.cookies = cks
	}

	var out map[string]interface{}
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func setup(t *testing.T) (*gorm.DB, http.Handler) {
	t.Helper()

	gdb := testutil.NewDB(t)
	_, err := db.SeedClubTypes(gdb, nil)
	require.NoError(t, err)

	cfg := config.Default()
	cache, err := utils.NewCache(100)
	require.NoError(t, err)
	return gdb, New(&cfg, gdb, nil, cache)
}

func login(t *testing.T, gdb *gorm.DB, r http.Handler, role string) *client {
	t.Helper()

	users := services.NewUserService(gdb, nil)
	name := fmt.Sprintf("%s%d", role, accounts.Add(1))
	email := name + "@example.com"
	_, err := users.Register(t.Context(), name, email, "birdie123", role)
	require.NoError(t, err)

	c := &client{t: t, r: r}
	w, body := c.do(http.MethodPost, "/auth/api/login", gin.H{"email": email, "password": "birdie123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, true, body["success"])
	require.NotEmpty(t, c.cookies)
	return c
}

func TestAnonymousWritesRejected(t *testing.T) {
	_, r := setup(t)
	anon := &client{t: t, r: r}

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/votes"},
		{http.MethodPost, "/api/votes/comments"},
		{http.MethodPost, "/api/clubs"},
		{http.MethodPost, "/api/players/1/vote"},
		{http.MethodGet, "/api/courses/approval-queue"},
		{http.MethodGet, "/auth/api/user"},
	} {
		w, _ := anon.do(tc.method, tc.path, gin.H{})
		require.Equal(t, http.StatusUnauthorized, w.Code, tc.path)
	}
}

func TestRegisterLoginLogout(t *testing.T) {
	_, r := setup(t)
	c := &client{t: t, r: r}

	w, _ := c.do(http.MethodPost, "/auth/api/register", gin.H{
		"username": "lefty", "email": "lefty@example.com", "password": "fairway1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, _ = c.do(http.MethodPost, "/auth/api/register", gin.H{
		"username": "lefty2", "email": "lefty@example.com", "password": "fairway1",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = c.do(http.MethodPost, "/auth/api/login", gin.H{"email": "lefty@example.com", "password": "wrong-one"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = c.do(http.MethodPost, "/auth/api/login", gin.H{"email": "lefty@example.com", "password": "fairway1"})
	require.Equal(t, http.StatusOK, w.Code)

	w, me := c.do(http.MethodGet, "/auth/api/user", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "lefty", me["username"])
	require.Equal(t, models.RoleUser, me["role"])

	w, _ = c.do(http.MethodPost, "/auth/api/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = c.do(http.MethodGet, "/auth/api/user", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubmitApproveVoteFlow(t *testing.T) {
	gdb, r := setup(t)
	user := login(t, gdb, r, models.RoleUser)
	mod := login(t, gdb, r, models.RoleEmployee)

	w, body := user.do(http.MethodPost, "/api/clubs", gin.H{"name": "Stealth 2 Driver", "price": 599.99})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Equal(t, false, body["is_approved"])
	id := uint(body["id"].(float64))
	path := fmt.Sprintf("/api/clubs/%d", id)

	// 待审核：列表不可见，详情 404，不能投票
	_, list := user.do(http.MethodGet, "/api/clubs", nil)
	require.EqualValues(t, 0, list["total"])
	require.Empty(t, list["clubs"])

	w, _ = user.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w, _ = user.do(http.MethodPost, path+"/vote", gin.H{"vote_type": "up"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// 普通用户不能审核
	w, _ = user.do(http.MethodPost, path+"/approve", nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w, queue := mod.do(http.MethodGet, "/api/clubs/approval-queue", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 1, queue["total"])

	w, _ = mod.do(http.MethodPost, path+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = mod.do(http.MethodPost, path+"/approve", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, vote := user.do(http.MethodPost, "/api/votes", gin.H{
		"votable_type": "club", "votable_id": id, "vote_type": "up",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.EqualValues(t, 1, vote["vote_score"])
	require.EqualValues(t, 1, vote["upvotes"])

	w, vote = mod.do(http.MethodPost, path+"/vote", gin.H{"vote_type": "down"})
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 0, vote["vote_score"])
	require.EqualValues(t, 1, vote["downvotes"])

	w, detail := user.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "up", detail["user_vote"])
	require.Equal(t, "Stealth 2 Driver", detail["name"])

	w, vote = user.do(http.MethodPost, "/api/votes", gin.H{
		"votable_type": "club", "votable_id": id, "vote_type": nil,
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, -1, vote["vote_score"])
	require.Equal(t, "Vote removed", vote["message"])

	_, detail = user.do(http.MethodGet, path, nil)
	require.Nil(t, detail["user_vote"])

	_, list = user.do(http.MethodGet, "/api/clubs?sort_by=newest", nil)
	require.EqualValues(t, 1, list["total"])

	// 驳回即删除
	w, _ = mod.do(http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = mod.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestVoteValidation(t *testing.T) {
	gdb, r := setup(t)
	user := login(t, gdb, r, models.RoleUser)
	player := testutil.CreatePlayer(t, gdb, "Lydia Ko", true)

	w, _ := user.do(http.MethodPost, "/api/votes", gin.H{
		"votable_type": "caddie", "votable_id": player.ID, "vote_type": "up",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = user.do(http.MethodPost, "/api/votes", gin.H{
		"votable_type": "player", "votable_id": player.ID, "vote_type": "sideways",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = user.do(http.MethodPost, "/api/votes", gin.H{"votable_type": "player"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = user.do(http.MethodPost, "/api/votes", gin.H{
		"votable_type": "player", "votable_id": 9999, "vote_type": "up",
	})
	require.Equal(t, http.StatusNotFound, w.Code)

	w, _ = user.do(http.MethodPost, "/api/players/abc/vote", gin.H{"vote_type": "up"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCommentThreadRoutes(t *testing.T) {
	gdb, r := setup(t)
	author := login(t, gdb, r, models.RoleUser)
	other := login(t, gdb, r, models.RolePlayer)
	course := testutil.CreateCourse(t, gdb, "Pebble Beach", true)

	w, body := author.do(http.MethodPost, "/api/votes/comments", gin.H{
		"commentable_type": "course", "commentable_id": course.ID, "content": "Hole 7 is **unreal**",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	root := body["comment"].(map[string]interface{})
	rootID := uint(root["id"].(float64))

	w, _ = other.do(http.MethodPost, "/api/votes/comments", gin.H{
		"commentable_type": "course", "commentable_id": course.ID, "content": "Agreed", "parent_id": rootID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = other.do(http.MethodPost, "/api/votes/comments", gin.H{
		"commentable_type": "course", "commentable_id": course.ID, "content": "   ",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// 只能编辑自己的评论
	edit := fmt.Sprintf("/api/votes/comments/%d", rootID)
	w, _ = other.do(http.MethodPut, edit, gin.H{"content": "hijacked"})
	require.Equal(t, http.StatusForbidden, w.Code)
	w, _ = author.do(http.MethodPut, edit, gin.H{"content": "Hole 7 is unreal at sunset"})
	require.Equal(t, http.StatusOK, w.Code)

	anon := &client{t: t, r: r}
	w, list := anon.do(http.MethodGet, fmt.Sprintf("/api/votes/comments?commentable_type=course&commentable_id=%d", course.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	threads := list["comments"].([]interface{})
	require.Len(t, threads, 1)
	thread := threads[0].(map[string]interface{})
	require.Equal(t, "Hole 7 is unreal at sunset", thread["content"])
	require.Len(t, thread["replies"], 1)

	w, _ = author.do(http.MethodDelete, edit, nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, list = anon.do(http.MethodGet, fmt.Sprintf("/api/votes/comments?commentable_type=course&commentable_id=%d", course.ID), nil)
	thread = list["comments"].([]interface{})[0].(map[string]interface{})
	require.Equal(t, true, thread["is_deleted"])
	require.Equal(t, "", thread["content_html"])

	w, _ = anon.do(http.MethodGet, "/api/votes/comments?commentable_type=course", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClubBrandsAndTypes(t *testing.T) {
	gdb, r := setup(t)
	user := login(t, gdb, r, models.RoleUser)
	admin := login(t, gdb, r, models.RoleAdmin)

	w, body := user.do(http.MethodGet, "/api/clubs/types", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, body["club_types"], len(models.DefaultClubTypes))

	w, _ = user.do(http.MethodPost, "/api/clubs/brands", gin.H{"name": "Titleist"})
	require.Equal(t, http.StatusForbidden, w.Code)

	w, body = admin.do(http.MethodPost, "/api/clubs/brands", gin.H{"name": "Titleist", "website": "https://titleist.com"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	brandID := uint(body["id"].(float64))

	w, _ = admin.do(http.MethodPost, "/api/clubs/brands", gin.H{"name": "Titleist"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	_, body = user.do(http.MethodGet, "/api/clubs/brands", nil)
	require.Len(t, body["brands"], 1)

	// 审核员提交自动通过，然后改品牌再清空
	w, body = admin.do(http.MethodPost, "/api/clubs", gin.H{"name": "T100 Irons", "brand_id": brandID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Equal(t, true, body["is_approved"])
	path := fmt.Sprintf("/api/clubs/%d", uint(body["id"].(float64)))

	_, detail := user.do(http.MethodGet, path, nil)
	require.Equal(t, "Titleist", detail["brand"].(map[string]interface{})["name"])

	w, _ = user.do(http.MethodPut, path, gin.H{"name": "nope"})
	require.Equal(t, http.StatusForbidden, w.Code)

	w, _ = admin.do(http.MethodPut, path, map[string]interface{}{"brand_id": nil, "price": 1299.0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	_, detail = user.do(http.MethodGet, path, nil)
	require.Nil(t, detail["brand"])
	require.EqualValues(t, 1299, detail["price"])

	_, list := user.do(http.MethodGet, fmt.Sprintf("/api/clubs?brand_id=%d", brandID), nil)
	require.EqualValues(t, 0, list["total"])
}

func TestGoogleLoginDisabled(t *testing.T) {
	_, r := setup(t)
	anon := &client{t: t, r: r}

	w, _ := anon.do(http.MethodGet, "/auth/login/google", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
