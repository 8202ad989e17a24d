package router

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/abhishek-bajpai1/athletecho/internal/config"
	"github.com/abhishek-bajpai1/athletecho/internal/gateway"
	"github.com/abhishek-bajpai1/athletecho/internal/handler"
	"github.com/abhishek-bajpai1/athletecho/internal/health"
	"github.com/abhishek-bajpai1/athletecho/internal/metrics"
	"github.com/abhishek-bajpai1/athletecho/internal/middleware"
)

// Handlers groups the HTTP handlers mounted under /api/v1.
type Handlers struct {
	Auth         *handler.AuthHandler
	User         *handler.UserHandler
	Connection   *handler.ConnectionHandler
	Conversation *handler.ConversationHandler
	Post         *handler.PostHandler
	Coaching     *handler.CoachingHandler
	Gateway      *gateway.Server
}

// Ops are the operational endpoints. Nil entries are not mounted.
type Ops struct {
	Health  *health.Checker
	Metrics http.Handler
}

// SetupRouter builds the gin engine.
func SetupRouter(
	cfg *config.Config,
	authenticator middleware.Authenticator,
	h Handlers,
	ops Ops,
	m *metrics.Metrics,
	logger *slog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.App.Mode)

	r := gin.New()
	if cfg.Storage.MaxImageBytes > 0 {
		// form fields plus one image
		r.MaxMultipartMemory = cfg.Storage.MaxImageBytes + 1<<20
	}

	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger, m))
	r.Use(middleware.CORS(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowCredentials,
	))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if ops.Health != nil {
		r.GET("/ready", gin.WrapH(ops.Health))
	}
	if ops.Metrics != nil {
		r.GET("/metrics", gin.WrapH(ops.Metrics))
	}

	limit := middleware.RateLimit(cfg.RateLimit)

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.Use(limit)
		{
			auth.GET("/google/login", h.Auth.Login)
			auth.GET("/google/callback", h.Auth.Callback)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		authenticated := v1.Group("")
		authenticated.Use(middleware.TokenAuth(authenticator), limit)
		{
			authenticated.POST("/auth/logout", h.Auth.Logout)

			user := authenticated.Group("/user")
			{
				user.GET("/profile", h.User.Me)
				user.PUT("/profile", h.User.Update)
				user.POST("/avatar", h.User.UploadPhoto)
			}

			users := authenticated.Group("/users")
			{
				users.GET("", h.User.List)
				users.GET("/:uid", h.User.Get)
			}

			connections := authenticated.Group("/connections")
			{
				connections.GET("", h.Connection.List)
				connections.GET("/statuses", h.Connection.Statuses)
				connections.GET("/:uid/status", h.Connection.Status)
				connections.POST("/:uid", h.Connection.Send)
				connections.POST("/:uid/accept", h.Connection.Accept)
				connections.DELETE("/:uid", h.Connection.Remove)
			}

			conversations := authenticated.Group("/conversations")
			{
				conversations.GET("", h.Conversation.List)
				conversations.POST("", h.Conversation.Open)
				conversations.GET("/:id/messages", h.Conversation.Messages)
				conversations.POST("/:id/messages", h.Conversation.Send)
				conversations.POST("/:id/read", h.Conversation.Read)
			}

			posts := authenticated.Group("/posts")
			{
				posts.GET("", h.Post.Feed)
				posts.POST("", h.Post.Create)
				posts.POST("/text", h.Post.CreateText)
				posts.DELETE("/:id", h.Post.Delete)
				posts.POST("/:id/like", h.Post.Like)
				posts.GET("/:id/comments", h.Post.Comments)
				posts.POST("/:id/comments", h.Post.Comment)
			}

			coaching := authenticated.Group("/coaching")
			{
				coaching.GET("/coaches", h.Coaching.Coaches)
				coaching.GET("/facilities", h.Coaching.Facilities)
			}

			if h.Gateway != nil {
				authenticated.GET("/ws", h.Gateway.ServeWS)
			}
		}
	}

	return r
}
