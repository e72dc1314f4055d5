package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"skillswap/internal/auth"
)

// SetupRouter builds the engine with every route.
func SetupRouter(deps Dependencies) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	if err := r.SetTrustedProxies(deps.Config.Server.TrustedProxies); err != nil {
		zap.S().Warnw("[Router] invalid trusted proxies, trusting none", "err", err)
		_ = r.SetTrustedProxies(nil)
	}

	r.Use(RecoveryMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware())
	r.Use(MetricsMiddleware())

	h := NewHandler(deps)
	requireAuth := auth.RequireAuth(deps.Config.Auth.JWTSecret)
	optionalAuth := auth.OptionalAuth(deps.Config.Auth.JWTSecret)

	api := r.Group("/api")
	{
		payments := api.Group("/payments")
		{
			payments.GET("/packs", h.ListPacks)
			payments.POST("/order", optionalAuth, h.CreateOrder)
			payments.POST("/webhook", h.Webhook)
			payments.POST("/confirm", optionalAuth, h.ConfirmPayment)
		}

		users := api.Group("/users")
		{
			users.POST("", optionalAuth, h.RegisterUser)
			users.GET("/:id/balance", requireAuth, h.GetBalance)
			users.GET("/:id/transactions", requireAuth, h.ListTransactions)
			users.GET("/:id/reconcile", requireAuth, h.Reconcile)
		}

		skills := api.Group("/skills")
		{
			skills.GET("", h.ListSkills)
			skills.GET("/:id", h.GetSkill)
			skills.POST("", requireAuth, h.CreateSkill)
		}

		sessions := api.Group("/sessions", requireAuth)
		{
			sessions.POST("", h.BookSession)
			sessions.GET("", h.ListSessions)
			sessions.GET("/:id", h.GetSession)
			sessions.POST("/:id/complete", h.CompleteSession)
			sessions.POST("/:id/cancel", h.CancelSession)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
