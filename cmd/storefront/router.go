package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/manzanit0/storefront/cmd/storefront/api"
	"github.com/manzanit0/storefront/pkg/middleware"
)

type controllers struct {
	viewers     *api.ViewerController
	location    *api.LocationController
	accounts    *api.AccountController
	diagnostics *api.DiagnosticsController
}

func newRouter(ctrl controllers, metricsHandler http.Handler, debug bool) *gin.Engine {
	r := gin.New()
	r.Use(middleware.TraceID())
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger(debug))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})
	r.GET("/metrics", gin.WrapH(metricsHandler))

	r.POST("/auth/login", ctrl.accounts.Login)
	r.POST("/users", ctrl.accounts.Signup)

	r.POST("/viewers", ctrl.viewers.Create)
	r.GET("/viewers/:id", ctrl.viewers.Get)
	r.PUT("/viewers/:id/query", ctrl.viewers.SetQuery)
	r.POST("/viewers/:id/remount", ctrl.viewers.Remount)
	r.DELETE("/viewers/:id", ctrl.viewers.Delete)

	r.GET("/location", ctrl.location.Resolve)
	r.GET("/diagnostics/failures", ctrl.diagnostics.Failures)

	return r
}
