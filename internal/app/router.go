package app

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"clanhub.gg/clanhub/internal/api/handlers"
	"clanhub.gg/clanhub/internal/api/middleware"
	"clanhub.gg/clanhub/internal/auth"
	"clanhub.gg/clanhub/internal/config"
)

// newRouter wires the route map. Reads are public; every mutating route
// sits behind session auth plus the banned check. Fine-grained
// authorization (ownership, rank, checkmate) lives in the services.
func newRouter(cfg *config.Config, server *handlers.Server, tokens *auth.TokenManager, profiles middleware.ProfileLoader) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.ErrorHandler())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	authed := middleware.Auth(tokens, profiles, cfg.Auth.DeveloperDiscordID)

	router.GET("/healthz", server.Health)
	router.GET("/login", server.Login)
	router.GET("/auth/discord/callback", server.DiscordCallback)
	router.GET("/logout", server.Logout)

	user := router.Group("/api/user")
	{
		user.GET("/get-many", server.GetUsers)
		user.GET("/get/:discord_id", server.GetUser)
		user.GET("/@me", authed, server.Me)
		user.POST("/create", authed, server.CreateUser)
		user.PATCH("/update/:discord_id", authed, server.UpdateUser)
		user.DELETE("/delete/:discord_id", authed, server.DeleteUser)
		user.PUT("/ban/:discord_id", authed, server.BanUser)
		user.PUT("/unban/:discord_id", authed, server.UnbanUser)
	}

	clan := router.Group("/api/clan")
	{
		clan.GET("/get-many", server.GetClans)
		clan.GET("/get/:clan_id", server.GetClan)
		clan.POST("/create", authed, server.CreateClan)
		clan.PATCH("/update/:clan_id", authed, server.UpdateClan)
		clan.PUT("/upvote/:clan_id", authed, server.UpvoteClan)
		clan.PUT("/downvote/:clan_id", authed, server.DownvoteClan)
		clan.PUT("/transfer-ownership", authed, server.TransferOwnership)
		clan.DELETE("/delete/:clan_id", authed, server.DeleteClan)
	}

	federation := router.Group("/api/clan/application")
	{
		federation.GET("/get-many", server.GetFederationApplications)
		federation.GET("/get/:id", server.GetFederationApplication)
		federation.POST("/apply", authed, server.ApplyFederation)
		federation.PUT("/pull-application/:id", authed, server.PullFederationApplication)
		federation.PUT("/change-status/:id", authed, server.ChangeFederationStatus)
	}

	membership := router.Group("/api/clan/member/application")
	{
		membership.GET("/get-many", server.GetMembershipApplications)
		membership.GET("/get/:id", server.GetMembershipApplication)
		membership.POST("/apply", authed, server.ApplyMembership)
		membership.PUT("/pull-application/:id", authed, server.PullMembershipApplication)
		membership.PUT("/change-status/:id", authed, server.ChangeMembershipStatus)
	}

	return router
}
