package main

import (
	"log"

	"jejuboard/internal/config"
	"jejuboard/internal/db"
	"jejuboard/internal/live"
	"jejuboard/internal/router"
	"jejuboard/internal/services"
	"jejuboard/internal/store"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	// Initialize Database
	conn, err := db.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[DB] 数据库初始化失败: %v", err)
	}
	st := store.NewGormStore(conn)

	if cfg.LLMBaseURL == "" {
		log.Println("[AI] LLM_BASE_URL not set, posts will be created without AI comments")
	}
	llm := services.NewLLMService(cfg.LLMBaseURL, cfg.LLMToken, cfg.LLMModel, cfg.LLMTimeout)
	images := services.NewImageStore(cfg.UploadDir)
	likes := services.NewLikeTracker(st)
	content := services.NewContentService(st, likes, llm.Synthesizer(), images, cfg.AIAuthor)

	hub := live.NewHub()
	content.SetNotifier(hub)
	likes.SetNotifier(hub)

	// Initialize Gin
	r := gin.Default()
	r.MaxMultipartMemory = 16 << 20

	router.RegisterRoutes(r, router.Deps{
		Identity:      services.NewIdentityService(st),
		Issuer:        services.NewSessionIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Content:       content,
		Likes:         likes,
		Images:        images,
		Synth:         llm,
		Hub:           hub,
		SessionSecret: cfg.SessionSecret,
	})

	log.Printf("Board server starting on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
