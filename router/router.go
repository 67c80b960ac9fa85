package router

import (
	"context"
	"net/http"
	"time"

	"fintrack/api"
	"fintrack/config"
	_ "fintrack/docs"
	"fintrack/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRouter 设置路由，ctx 结束时限流器停止清理
func SetupRouter(ctx context.Context, cfg *config.Config) *gin.Engine {
	// 设置运行模式
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(CORSMiddleware())

	r.NoRoute(func(c *gin.Context) {
		api.NotFound(c, "route not found")
	})

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	// 认证相关路由（无需登录）
	authHandler := api.NewAuthHandler(cfg)
	limiter := middleware.NewRateLimiter(ctx, 10, time.Minute)
	auth := r.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", limiter.Limit("login", "too many login attempts, try again later"), authHandler.Login)
		auth.POST("/password/forgot", limiter.Limit("password-forgot", "too many reset requests, try again later"), authHandler.ForgotPassword)
		auth.POST("/password/reset", limiter.Limit("password-reset", "too many reset attempts, try again later"), authHandler.ResetPassword)
	}

	// 需要 JWT 认证的路由
	authorized := r.Group("")
	authorized.Use(middleware.JWTAuth())
	{
		// 用户相关
		authorized.GET("/auth/me", authHandler.GetProfile)
		authorized.PUT("/auth/me", authHandler.UpdateProfile)
		authorized.DELETE("/auth/me", authHandler.DeleteProfile)
		authorized.PUT("/auth/password", authHandler.ChangePassword)

		// 账户
		accountHandler := api.NewAccountHandler()
		accounts := authorized.Group("/accounts")
		{
			accounts.POST("", accountHandler.Create)
			accounts.GET("", accountHandler.List)
			accounts.GET("/:id", accountHandler.Get)
			accounts.PUT("/:id", accountHandler.Update)
			accounts.DELETE("/:id", accountHandler.Delete)
		}

		// 类别
		categoryHandler := api.NewCategoryHandler()
		categories := authorized.Group("/categories")
		{
			categories.POST("", categoryHandler.Create)
			categories.GET("", categoryHandler.List)
			categories.GET("/:id", categoryHandler.Get)
			categories.PUT("/:id", categoryHandler.Update)
			categories.DELETE("/:id", categoryHandler.Delete)
			categories.GET("/:id/subcategories", categoryHandler.ListSubcategories)
		}

		// 子类别
		subcategoryHandler := api.NewSubcategoryHandler()
		subcategories := authorized.Group("/subcategories")
		{
			subcategories.POST("", subcategoryHandler.Create)
			subcategories.GET("/:id", subcategoryHandler.Get)
			subcategories.PUT("/:id", subcategoryHandler.Update)
			subcategories.DELETE("/:id", subcategoryHandler.Delete)
		}

		// 交易与统计
		transactionHandler := api.NewTransactionHandler()
		exportHandler := api.NewExportHandler()
		transactions := authorized.Group("/transactions")
		{
			transactions.POST("", transactionHandler.Create)
			transactions.GET("", transactionHandler.List)
			transactions.GET("/summary", transactionHandler.Summary)
			transactions.GET("/top-categories", transactionHandler.TopCategories)
			transactions.GET("/descriptions", transactionHandler.Descriptions)
			transactions.GET("/export", exportHandler.Export)
			transactions.GET("/:id", transactionHandler.Get)
			transactions.PUT("/:id", transactionHandler.Update)
			transactions.DELETE("/:id", transactionHandler.Delete)
		}

		// 转账
		transferHandler := api.NewTransferHandler()
		authorized.POST("/transfers", transferHandler.Create)
	}

	return r
}

// CORSMiddleware CORS 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Total-Count, X-Request-ID, Content-Disposition")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
