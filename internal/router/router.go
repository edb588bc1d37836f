package router

import (
	"jejuboard/internal/handlers"
	"jejuboard/internal/live"
	"jejuboard/internal/middleware"
	"jejuboard/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const sessionName = "board_session"

type Deps struct {
	Identity      *services.IdentityService
	Issuer        *services.SessionIssuer
	Content       *services.ContentService
	Likes         *services.LikeTracker
	Images        *services.ImageStore
	Synth         services.CommentSynthesizer
	Hub           *live.Hub // 可为空，为空时不提供 /ws
	SessionSecret string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(sessions.Sessions(sessionName, cookie.NewStore([]byte(d.SessionSecret))))
	r.Use(middleware.LoadUser(d.Issuer, d.Identity))

	// Handlers
	authHandler := handlers.NewAuthHandler(d.Identity, d.Issuer)
	userHandler := handlers.NewUserHandler(d.Identity)
	postHandler := handlers.NewPostHandler(d.Content, d.Likes, d.Images)
	commentHandler := handlers.NewCommentHandler(d.Content)
	imageHandler := handlers.NewImageHandler(d.Images)
	aiHandler := handlers.NewAIHandler(d.Synth)

	// 上传的图片 (Static Uploads)
	r.Static(services.URLPrefix, d.Images.Dir)

	if d.Hub != nil {
		r.GET("/ws", d.Hub.ServeWS) // 实时事件推送
	}

	// 公共路由 (Public Routes)
	r.POST("/users/register", authHandler.Register)           // 注册
	r.POST("/users/login", authHandler.Login)                 // 登录，返回令牌
	r.POST("/users/logout", authHandler.Logout)               // 清除 cookie session
	r.GET("/posts", postHandler.List)                         // 帖子列表
	r.GET("/posts/:id", postHandler.Detail)                   // 帖子详情，浏览量 +1
	r.GET("/posts/:id/comments", commentHandler.List)         // 评论列表
	r.POST("/ai/generate-comment", aiHandler.GenerateComment) // 直接生成一条评论

	// 受保护路由 (Protected Routes)
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/users/me", authHandler.Me)                      // 当前用户
		authorized.PUT("/users/me/profile", userHandler.UpdateProfile)   // 修改昵称
		authorized.PUT("/users/me/password", userHandler.UpdatePassword) // 修改密码

		authorized.POST("/posts", postHandler.Create)        // 发帖 (multipart)
		authorized.PUT("/posts/:id", postHandler.Update)     // 修改帖子
		authorized.DELETE("/posts/:id", postHandler.Delete)  // 删除帖子及其评论
		authorized.POST("/posts/:id/like", postHandler.Like) // 点赞/取消

		authorized.POST("/posts/:id/comments", commentHandler.Create)               // 发表评论
		authorized.PUT("/posts/:id/comments/:comment_id", commentHandler.Update)    // 修改评论
		authorized.DELETE("/posts/:id/comments/:comment_id", commentHandler.Delete) // 删除评论

		authorized.POST("/uploads", imageHandler.Upload) // 单独上传图片
	}
}
