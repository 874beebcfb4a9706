package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"jobBoard/internal/ai"
	"jobBoard/internal/api/middleware"
	"jobBoard/internal/auth"
	"jobBoard/internal/catalog"
	"jobBoard/internal/database"
	"jobBoard/internal/payment"
	"jobBoard/internal/repository"
	"jobBoard/internal/storage"
)

// Deps 汇总路由注册所需的依赖，由 cmd/api 组装。
type Deps struct {
	DB             *gorm.DB
	Redis          redis.UniversalClient
	Auth           *auth.AuthService
	LoginLimits    LoginLimits
	Catalog        *catalog.Catalog
	Storage        ObjectStore
	Scanner        storage.Scanner
	AI             *ai.Client
	Checkout       *payment.Checkout
	Verifier       *payment.Verifier
	Processor      *payment.Processor
	AllowedOrigins []string
	Logger         *slog.Logger
}

// RegisterRoutes 注册 /v1 下的全部业务路由。
func RegisterRoutes(router *gin.Engine, d Deps) {
	jobRepo := repository.NewJobRepository(d.DB)
	companyRepo := repository.NewCompanyRepository(d.DB)

	authHandler := NewAuthHandler(d.DB, d.Auth, d.Redis, d.Logger, d.LoginLimits)
	wsHandler := NewWsHandler(d.Redis, d.Auth, d.Logger, d.AllowedOrigins)
	jobsHandler := NewJobsHandler(d.Catalog, jobRepo, d.Logger)
	plansHandler := NewPlansHandler()
	postingsHandler := NewPostingsHandler(jobRepo, d.Checkout, d.Catalog, d.Logger)
	aiHandler := NewAIHandler(d.AI, d.Logger)
	newsletterHandler := NewNewsletterHandler(repository.NewSubscriberRepository(d.DB), d.Logger)
	webhookHandler := NewWebhookHandler(d.Verifier, d.Processor, d.Catalog, d.Logger)
	companiesHandler := NewCompaniesHandler(companyRepo, d.Catalog, d.Logger)
	assetHandler := NewAssetHandler(d.Storage, d.Scanner, companyRepo, d.Redis, d.Logger)
	meHandler := NewMeHandler(repository.NewEngagementRepository(d.DB), jobRepo, d.Catalog, d.Logger)
	adminHandler := NewAdminHandler(
		repository.NewStatsRepository(d.DB),
		repository.NewSubscriberRepository(d.DB),
		jobRepo,
		d.Catalog,
		d.Logger,
	)

	authMiddleware := middleware.AuthMiddleware(d.Auth)
	employerOnly := middleware.RequireRole(database.RoleEmployer, database.RoleAdmin)
	candidateOnly := middleware.RequireRole(database.RoleCandidate)
	adminOnly := middleware.RequireRole(database.RoleAdmin)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
			authGroup.POST("/change-password", authMiddleware, authHandler.ChangePassword)
		}

		jobsGroup := v1.Group("/jobs")
		{
			jobsGroup.GET("", jobsHandler.List)
			jobsGroup.GET("/suggest", jobsHandler.Suggest)
			jobsGroup.GET("/facets", jobsHandler.Facets)
			jobsGroup.GET("/mine", authMiddleware, employerOnly, jobsHandler.Mine)
			jobsGroup.GET("/:id", jobsHandler.Get)
			jobsGroup.POST("/:id/views", jobsHandler.IncrementViews)
			jobsGroup.POST("/:id/matches", jobsHandler.IncrementMatches)
			jobsGroup.DELETE("/:id", authMiddleware, employerOnly, jobsHandler.Delete)
		}

		v1.GET("/plans", plansHandler.List)
		v1.POST("/plans/upgrade", plansHandler.Upgrade)

		v1.POST("/postings/validate", postingsHandler.Validate)
		v1.POST("/postings", authMiddleware, employerOnly, postingsHandler.Submit)

		aiGroup := v1.Group("/ai")
		aiGroup.Use(middleware.OptionalAuthMiddleware(d.Auth))
		{
			aiGroup.POST("/draft", aiHandler.Draft)
			aiGroup.POST("/resume-audit", aiHandler.ResumeAudit)
		}

		v1.POST("/newsletter/subscribe", newsletterHandler.Subscribe)
		v1.POST("/webhooks/stripe", webhookHandler.Stripe)

		v1.GET("/companies/:name", companiesHandler.Get)
		v1.PUT("/companies", authMiddleware, employerOnly, companiesHandler.Upsert)

		assetGroup := v1.Group("/assets")
		assetGroup.Use(authMiddleware, employerOnly)
		{
			assetGroup.POST("/logo", assetHandler.UploadLogo)
			assetGroup.GET("/logo", assetHandler.GetLogoURL)
			assetGroup.DELETE("/logo", assetHandler.DeleteLogo)
		}

		meGroup := v1.Group("/me")
		meGroup.Use(authMiddleware, candidateOnly)
		{
			meGroup.POST("/saved/:id", meHandler.ToggleSaved)
			meGroup.GET("/saved", meHandler.Saved)
			meGroup.GET("/recommendations", meHandler.Recommendations)
			meGroup.POST("/applications", meHandler.Apply)
			meGroup.GET("/applications", meHandler.Applications)
			meGroup.PATCH("/applications/:id", meHandler.MoveApplication)
			meGroup.POST("/alerts", meHandler.CreateAlert)
			meGroup.GET("/alerts", meHandler.Alerts)
			meGroup.DELETE("/alerts/:id", meHandler.DeleteAlert)
		}

		adminGroup := v1.Group("/admin")
		adminGroup.Use(authMiddleware, adminOnly)
		{
			adminGroup.GET("/stats", adminHandler.Stats)
			adminGroup.DELETE("/subscribers/:email", adminHandler.PurgeSubscriber)
			adminGroup.POST("/jobs/:id/publish", adminHandler.PublishJob)
			adminGroup.DELETE("/jobs/:id", adminHandler.PurgeJob)
		}
	}
}
