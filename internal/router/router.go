package router

import (
	"parsgolf/internal/config"
	"parsgolf/internal/handlers"
	"parsgolf/internal/logger"
	"parsgolf/internal/middleware"
	"parsgolf/internal/models"
	"parsgolf/internal/services"
	"parsgolf/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sessionName = "parsgolf_session"

// New 组装全部中间件和路由
func New(cfg *config.Config, db *gorm.DB, log *zap.Logger, cache *utils.GlobalCache) *gin.Engine {
	log = logger.OrNop(log)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
	})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(middleware.LoadUser(db, log))

	RegisterRoutes(r, cfg, db, log, cache)
	return r
}

func RegisterRoutes(r *gin.Engine, cfg *config.Config, db *gorm.DB, log *zap.Logger, cache *utils.GlobalCache) {
	// Services
	votes := services.NewVoteService(db, log)
	comments := services.NewCommentService(db, log)
	moderation := services.NewModerationService(db, log)
	catalog := services.NewCatalogService(db, log, cache)
	users := services.NewUserService(db, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(users, handlers.NewGoogleOAuth(cfg), log)
	voteHandler := handlers.NewVoteHandler(votes, comments)
	clubHandler := handlers.NewClubHandler(catalog)

	// 账号 (Auth)
	auth := r.Group("/auth")
	{
		auth.POST("/api/register", authHandler.Register)                        // 注册
		auth.POST("/api/login", authHandler.Login)                              // 登录
		auth.POST("/api/logout", middleware.AuthRequired(), authHandler.Logout) // 退出
		auth.GET("/api/user", middleware.AuthRequired(), authHandler.Me)        // 当前用户
		auth.GET("/login/google", authHandler.GoogleLogin)                      // Google 登录
		auth.GET("/login/google/callback", authHandler.GoogleCallback)          // Google 回调
	}

	api := r.Group("/api")

	// 投票与评论 (Votes & Comments)
	voteGroup := api.Group("/votes")
	{
		voteGroup.GET("/comments", voteHandler.ListComments) // 评论列表
		voteGroup.Use(middleware.AuthRequired())
		voteGroup.POST("", voteHandler.Vote)                         // 投票 / 撤票
		voteGroup.POST("/comments", voteHandler.AddComment)          // 发表评论
		voteGroup.PUT("/comments/:id", voteHandler.UpdateComment)    // 编辑评论
		voteGroup.DELETE("/comments/:id", voteHandler.DeleteComment) // 删除评论
	}

	// 球杆专有接口，静态路径优先于 /:id
	clubs := api.Group("/clubs")
	{
		clubs.GET("/brands", clubHandler.Brands)
		clubs.GET("/types", clubHandler.Types)
		clubs.POST("/brands", middleware.ModeratorRequired(), clubHandler.CreateBrand)
		clubs.POST("/types", middleware.ModeratorRequired(), clubHandler.CreateType)
		clubs.PUT("/:id", middleware.ModeratorRequired(), clubHandler.Update)
	}

	// Club / Player / Course 通用接口
	for _, kind := range models.Kinds {
		h := handlers.NewCatalogHandler(kind, catalog, moderation, cfg.ItemsPerPage)
		g := api.Group("/" + kind.TableName())

		g.GET("", h.List)                                                         // 列表
		g.GET("/:id", h.Detail)                                                   // 详情
		g.POST("", middleware.AuthRequired(), h.Create)                           // 提交，待审核
		g.POST("/:id/vote", middleware.AuthRequired(), voteHandler.VoteFor(kind)) // 投票
		g.GET("/approval-queue", middleware.ModeratorRequired(), h.Queue)         // 审核队列
		g.POST("/:id/approve", middleware.ModeratorRequired(), h.Approve)         // 审核通过
		g.DELETE("/:id", middleware.ModeratorRequired(), h.Delete)                // 删除（驳回）
	}
}
