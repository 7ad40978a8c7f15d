package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/manzanit0/storefront/pkg/diagnostics"
)

const defaultFailuresLimit = 20

type FailureLister interface {
	Recent(ctx context.Context, limit int) ([]diagnostics.Failure, error)
}

type DiagnosticsController struct {
	failures FailureLister
}

// NewDiagnosticsController takes a nil lister when failures are only logged.
func NewDiagnosticsController(l FailureLister) *DiagnosticsController {
	return &DiagnosticsController{failures: l}
}

func (g *DiagnosticsController) Failures(c *gin.Context) {
	if g.failures == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "diagnostics storage is not enabled"})
		return
	}

	limit := defaultFailuresLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	failures, err := g.failures.Recent(c.Request.Context(), limit)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "list failures", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"failures": failures})
}
