// Package api exposes the REST surface and the websocket upgrade route.
package api

import (
	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"collabx/auth"
	"collabx/gateway"
	"collabx/observability"
	"collabx/repositories"
	"collabx/services"
)

// NewRouter wires every route of the application. CORS mirrors the
// browser frontend's needs: credentials plus the Authorization header.
func NewRouter(
	authService services.IAuthService,
	chatService services.IChatService,
	accounts repositories.IAccountRepository,
	tokens *auth.TokenManager,
	gw *gateway.Gateway,
	stats *observability.Stats,
	allowedOrigins []string,
	log *slog.Logger,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}
	if len(allowedOrigins) == 0 {
		corsConfig.AllowOrigins = []string{"*"}
		corsConfig.AllowCredentials = false
	}
	r.Use(cors.New(corsConfig))

	h := NewHandler(authService, chatService, accounts, stats, log)

	r.GET("/ws", gw.Handle)

	apiGroup := r.Group("/api")
	apiGroup.GET("/health", h.Health)
	apiGroup.POST("/startups/signup", h.StartupSignup)
	apiGroup.POST("/startups/login", h.StartupLogin)
	apiGroup.POST("/corporates/signup", h.CorporateSignup)
	apiGroup.POST("/corporates/login", h.CorporateLogin)

	protected := apiGroup.Group("")
	protected.Use(TokenAuthMiddleware(tokens))
	protected.GET("/me", h.Me)
	protected.GET("/chats", h.ListChats)

	return r
}
