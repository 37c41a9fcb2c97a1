package handler

import (
	"time"

	"stackit/internal/microservices/http-api/middleware"
	"stackit/internal/microservices/http-api/models"
	"stackit/internal/microservices/http-api/service"
	"stackit/internal/microservices/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	Auth       service.AuthService
	Votes      service.VoteService
	Acceptance service.AcceptanceService
	Answers    service.AnswerService
	Questions  service.QuestionService
	WebSocket  *websocket.Handler

	TokenTTL     time.Duration
	CORSOrigins  []string
	HealthChecks map[string]HealthCheck
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/health", Health(cfg.HealthChecks))

	requireAuth := middleware.AuthMiddleware(cfg.Auth)
	optionalAuth := middleware.OptionalAuth(cfg.Auth)

	api := r.Group("/api")
	{
		auth := NewAuthHandler(cfg.Auth, cfg.TokenTTL)
		api.POST("/auth/login", auth.Login)

		votes := NewVoteHandler(cfg.Votes)
		api.POST("/votes", requireAuth, votes.Cast)
		api.GET("/votes", requireAuth, votes.List)

		answers := NewAnswerHandler(cfg.Answers, cfg.Acceptance)
		api.POST("/answers", requireAuth, answers.Create)
		api.PUT("/answers/:id", requireAuth, answers.Update)
		api.DELETE("/answers/:id", requireAuth, answers.Delete)
		api.POST("/answers/:id/accept", requireAuth, answers.Accept)
		api.DELETE("/answers/:id/accept", requireAuth, answers.Unaccept)

		questions := NewQuestionHandler(cfg.Questions)
		api.GET("/questions", optionalAuth, questions.List)
		api.POST("/questions", requireAuth, questions.Create)
		api.GET("/questions/:id", optionalAuth, questions.Get)
		api.PUT("/questions/:id", requireAuth, questions.Update)
		api.DELETE("/questions/:id", requireAuth, questions.Delete)
	}

	if cfg.WebSocket != nil {
		r.GET("/ws", optionalAuth, cfg.WebSocket.Serve)
		r.GET("/ws/stats", requireAuth, middleware.RequireRole(models.RoleAdmin, models.RoleModerator), cfg.WebSocket.Stats)
	}
	return r
}
