package routes

import (
	"net/http"

	"github.com/ArowuTest/easyearning-backend/internal/config"
	"github.com/ArowuTest/easyearning-backend/internal/handlers"
	"github.com/ArowuTest/easyearning-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// HandlerDependencies carries the handlers wired by main
type HandlerDependencies struct {
	Auth             middleware.Authenticator
	AuthHandler      *handlers.AuthHandler
	UserHandler      *handlers.UserHandler
	TaskHandler      *handlers.TaskHandler
	WalletHandler    *handlers.WalletHandler
	MediationHandler *handlers.MediationHandler
	EventHandler     *handlers.EventHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, deps HandlerDependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.LoggerMiddleware())

	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		auth := public.Group("/auth")
		{
			auth.POST("/login", deps.AuthHandler.Login)
			auth.POST("/admin/login", deps.AuthHandler.AdminLogin)
		}
	}

	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuthMiddleware(deps.Auth))
	{
		protected.POST("/auth/logout", deps.AuthHandler.Logout)
		protected.GET("/me", deps.UserHandler.GetMe)
		protected.GET("/me/transactions", deps.WalletHandler.GetTransactions)
		protected.GET("/me/streak", deps.TaskHandler.GetStreak)
		protected.GET("/events", deps.EventHandler.Stream)

		tasks := protected.Group("/tasks")
		{
			tasks.GET("", deps.TaskHandler.ListTasks)
			tasks.POST("/:id/start", deps.TaskHandler.StartTask)
			tasks.POST("/views/:viewId/claim", deps.TaskHandler.ClaimView)
		}

		wallet := protected.Group("/wallet")
		{
			wallet.GET("/methods", deps.WalletHandler.GetMethods)
			wallet.POST("/withdrawals", deps.WalletHandler.RequestWithdrawal)
		}

		admin := protected.Group("/admin")
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/stats", deps.UserHandler.GetStats)

			admin.GET("/withdrawals", deps.WalletHandler.GetPendingWithdrawals)
			admin.POST("/withdrawals/:id/approve", deps.WalletHandler.ApproveWithdrawal)
			admin.POST("/withdrawals/:id/reject", deps.WalletHandler.RejectWithdrawal)

			admin.GET("/users", deps.UserHandler.GetAllUsers)
			admin.GET("/users/:id", deps.UserHandler.GetUserByID)
			admin.POST("/users/:id/ban", deps.UserHandler.BanUser)
			admin.POST("/users/:id/unban", deps.UserHandler.UnbanUser)
			admin.POST("/users/:id/toggle", deps.UserHandler.ToggleBan)

			admin.POST("/tasks", deps.TaskHandler.CreateTask)
			admin.POST("/tasks/import", deps.TaskHandler.ImportTasks)
			admin.PATCH("/tasks/:id", deps.TaskHandler.UpdateTask)
			admin.DELETE("/tasks/:id", deps.TaskHandler.DeleteTask)

			mediation := admin.Group("/mediation")
			{
				mediation.GET("", deps.MediationHandler.GetSettings)
				mediation.PUT("", deps.MediationHandler.UpdateSettings)
				mediation.PUT("/ad-units", deps.MediationHandler.SetAdUnits)
				mediation.PUT("/waterfall", deps.MediationHandler.SetWaterfall)
				mediation.POST("/test", deps.MediationHandler.TestWaterfall)
				mediation.POST("/networks/:id/toggle", deps.MediationHandler.ToggleNetwork)
				mediation.POST("/networks/:id/move", deps.MediationHandler.MoveNetwork)
				mediation.PUT("/networks/:id/fill-rate", deps.MediationHandler.SetFillRate)
			}
		}
	}

	return router
}
