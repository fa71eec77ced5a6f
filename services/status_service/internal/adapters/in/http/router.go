package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/qwqdev/livestatus/pkg/zlog"
)

// RouterDeps 组装路由需要的依赖
type RouterDeps struct {
	Handler     *StatusHandler
	Secret      string
	RateLimiter *RateLimiter // 为 nil 时不限流
	Metrics     *Metrics
	Gatherer    prometheus.Gatherer
}

// NewRouter 组装 gin 引擎
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), zlog.GinLogger())

	// 健康检查
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// 运维接口
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}
	// 运维接口的鉴权失败不计入状态上报的拒绝指标
	level := gin.WrapF(zlog.LevelHTTPHandler())
	r.GET("/log/level", level)
	r.PUT("/log/level", SharedKeyAuth(deps.Secret, nil), level)

	auth := SharedKeyAuth(deps.Secret, deps.Metrics)

	var guards []gin.HandlerFunc
	if deps.RateLimiter != nil {
		guards = append(guards, deps.RateLimiter.Middleware())
	}
	guards = append(guards, auth)

	api := r.Group("/api")
	deps.Handler.RegisterRoutes(api, guards...)

	return r
}
