// internal/infra/router/router.go
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/paimon-guide/guide-app/internal/app/middleware"
	"github.com/paimon-guide/guide-app/internal/pkg/version"
	analytics_handler "github.com/paimon-guide/guide-app/pkg/handler/analytics"
	news_handler "github.com/paimon-guide/guide-app/pkg/handler/news"
	"github.com/paimon-guide/guide-app/pkg/response"
)

// NoCacheMiddleware 全局反缓存中间件，确保统计与公告接口不会被CDN缓存
func NoCacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate, private, max-age=0")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Next()
	}
}

// Options 路由层可调参数
type Options struct {
	IngestRPM   int
	IngestBurst int
}

// Router 封装了应用的所有路由和其依赖的处理器。
type Router struct {
	analyticsHandler *analytics_handler.Handler
	newsHandler      *news_handler.Handler
	mw               *middleware.Middleware
	opts             Options
}

// NewRouter 是 Router 的构造函数，通过依赖注入接收所有处理器。
func NewRouter(
	analyticsHandler *analytics_handler.Handler,
	newsHandler *news_handler.Handler,
	mw *middleware.Middleware,
	opts Options,
) *Router {
	return &Router{
		analyticsHandler: analyticsHandler,
		newsHandler:      newsHandler,
		mw:               mw,
		opts:             opts,
	}
}

// Setup 将所有路由注册到 Gin 引擎。
func (r *Router) Setup(engine *gin.Engine) {
	apiGroup := engine.Group("/api")
	apiGroup.Use(NoCacheMiddleware())

	apiGroup.GET("/ping", func(c *gin.Context) {
		response.Success(c, version.GetBuildInfo(), "pong")
	})

	r.registerAnalyticsRoutes(apiGroup)
	r.registerNewsRoutes(apiGroup)
}

// registerAnalyticsRoutes 注册访问统计相关的路由
func (r *Router) registerAnalyticsRoutes(api *gin.RouterGroup) {
	// --- 前台公开接口 ---
	analyticsPublic := api.Group("/public/analytics")
	{
		// 上报访问: POST /api/public/analytics/track
		analyticsPublic.POST("/track",
			middleware.CustomRateLimit(r.opts.IngestRPM, r.opts.IngestBurst),
			r.analyticsHandler.Track,
		)
	}

	// --- 后台管理接口 ---
	analyticsAdmin := api.Group("/analytics").Use(r.mw.JWTAuth(), r.mw.AdminAuth())
	{
		// 统计报表: GET /api/analytics/stats
		analyticsAdmin.GET("/stats", r.analyticsHandler.GetStats)

		// 重置数据: POST /api/analytics/reset
		analyticsAdmin.POST("/reset", r.analyticsHandler.Reset)
	}
}

// registerNewsRoutes 注册公告相关的路由
func (r *Router) registerNewsRoutes(api *gin.RouterGroup) {
	newsPublic := api.Group("/public/news")
	{
		newsPublic.GET("", r.newsHandler.List)
		newsPublic.GET("/:id", r.newsHandler.Get)
	}

	newsAdmin := api.Group("/news").Use(r.mw.JWTAuth(), r.mw.AdminAuth())
	{
		newsAdmin.POST("", r.newsHandler.Create)
		newsAdmin.DELETE("/:id", r.newsHandler.Delete)

		// 生日检查: GET 预演，POST 执行
		newsAdmin.GET("/birthday-check", r.newsHandler.BirthdayCheck)
		newsAdmin.POST("/birthday-check", r.newsHandler.BirthdayCheck)
	}
}
