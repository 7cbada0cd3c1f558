package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/reviewplay/campaign-backend/internal/config"
	"github.com/reviewplay/campaign-backend/internal/handlers"
	"github.com/reviewplay/campaign-backend/internal/middleware"
)

// HandlerDependencies bundles the handlers wired in main.
type HandlerDependencies struct {
	AuthHandler     *handlers.AuthHandler
	CampaignHandler *handlers.CampaignHandler
	SessionHandler  *handlers.SessionHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, deps HandlerDependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())

	// Public routes: participant sessions and auth
	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok"})
		})

		auth := public.Group("/auth")
		{
			auth.POST("/login", deps.AuthHandler.Login)
			auth.POST("/register", deps.AuthHandler.Register)
		}

		// Participant gate: session creation plus one route per gate event.
		public.POST("/campaigns/:id/sessions", deps.SessionHandler.CreateSession)
		sessions := public.Group("/sessions")
		{
			sessions.GET("/:id", deps.SessionHandler.GetSession)
			sessions.POST("/:id/close-instructions", deps.SessionHandler.CloseInstructions)
			sessions.POST("/:id/rating", deps.SessionHandler.SelectRating)
			sessions.POST("/:id/negative-review", deps.SessionHandler.SubmitNegativeReview)
			sessions.POST("/:id/negative-review/close", deps.SessionHandler.CloseNegativeModal)
			sessions.POST("/:id/upgrade-rating", deps.SessionHandler.UpgradeRating)
			sessions.POST("/:id/play", deps.SessionHandler.Play)
			sessions.POST("/:id/reset", deps.SessionHandler.Reset)
			sessions.DELETE("/:id", deps.SessionHandler.DeleteSession)
		}
	}

	// Protected routes: campaign and code administration
	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuthMiddleware(cfg))
	{
		campaigns := protected.Group("/campaigns")
		{
			campaigns.GET("", deps.CampaignHandler.ListCampaigns)
			campaigns.POST("", deps.CampaignHandler.CreateCampaign)
			campaigns.GET("/:id", deps.CampaignHandler.GetCampaign)
			campaigns.DELETE("/:id", deps.CampaignHandler.DeleteCampaign)

			campaigns.POST("/:id/prizes", deps.CampaignHandler.AddPrize)
			campaigns.PUT("/:id/prizes/:prizeId", deps.CampaignHandler.UpdatePrize)
			campaigns.DELETE("/:id/prizes/:prizeId", deps.CampaignHandler.DeletePrize)

			campaigns.POST("/:id/codes/generate", deps.CampaignHandler.GenerateCodes)
			campaigns.POST("/:id/codes/import", deps.CampaignHandler.ImportCodes)
			campaigns.POST("/:id/codes/delete", deps.CampaignHandler.DeleteCodes)
			campaigns.GET("/:id/codes/export", deps.CampaignHandler.ExportCodes)
			campaigns.GET("/:id/codes/stats", deps.CampaignHandler.CodeStats)
			campaigns.GET("/:id/codes/verify/:code", deps.CampaignHandler.VerifyCode)
		}
	}

	return router
}
