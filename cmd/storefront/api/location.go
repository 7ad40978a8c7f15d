package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/manzanit0/storefront/pkg/viewer"
)

type LocationController struct {
	resolver     viewer.LocationResolver
	defaultLabel string
}

func NewLocationController(r viewer.LocationResolver, defaultLabel string) *LocationController {
	return &LocationController{resolver: r, defaultLabel: defaultLabel}
}

// Resolve runs one resolution bound to the request. The error, if any, is
// part of the payload; the status is always 200.
func (g *LocationController) Resolve(c *gin.Context) {
	state := g.resolver.Resolve(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"coordinate": state.Coordinate,
		"place":      state.Place,
		"error":      state.Error,
		"label":      viewer.Label(state, g.defaultLabel),
	})
}
