package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/manzanit0/storefront/pkg/viewer"
)

type mountedViewer struct {
	viewer   *viewer.Viewer
	lastSeen time.Time
}

// ViewerController keeps one viewer per id, standing in for a mounted
// product screen. Viewers nobody touched for maxIdle are closed by Sweep.
type ViewerController struct {
	newViewer func() *viewer.Viewer
	clock     clockwork.Clock
	maxIdle   time.Duration

	mu      sync.Mutex
	viewers map[string]*mountedViewer
}

// NewViewerController takes a nil clock for the real one. A zero maxIdle
// keeps viewers until they are deleted.
func NewViewerController(newViewer func() *viewer.Viewer, clock clockwork.Clock, maxIdle time.Duration) *ViewerController {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &ViewerController{
		newViewer: newViewer,
		clock:     clock,
		maxIdle:   maxIdle,
		viewers:   map[string]*mountedViewer{},
	}
}

type setQueryRequest struct {
	Query string `json:"query"`
}

func (g *ViewerController) Create(c *gin.Context) {
	v := g.newViewer()
	id := uuid.NewString()

	g.mu.Lock()
	g.viewers[id] = &mountedViewer{viewer: v, lastSeen: g.clock.Now()}
	g.mu.Unlock()

	// The flows outlive the request; only its values (the trace id) carry over.
	v.Mount(context.WithoutCancel(c.Request.Context()))
	slog.InfoContext(c.Request.Context(), "viewer mounted", "viewer_id", id)

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (g *ViewerController) Get(c *gin.Context) {
	v, ok := g.find(c)
	if !ok {
		return
	}

	if q, ok := c.GetQuery("q"); ok {
		v.SetQuery(q)
	}

	c.JSON(http.StatusOK, v.Snapshot())
}

func (g *ViewerController) SetQuery(c *gin.Context) {
	v, ok := g.find(c)
	if !ok {
		return
	}

	var req setQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	v.SetQuery(req.Query)
	c.JSON(http.StatusOK, v.Snapshot())
}

func (g *ViewerController) Remount(c *gin.Context) {
	v, ok := g.find(c)
	if !ok {
		return
	}

	v.Mount(context.WithoutCancel(c.Request.Context()))
	c.JSON(http.StatusAccepted, v.Snapshot())
}

func (g *ViewerController) Delete(c *gin.Context) {
	id := c.Param("id")

	g.mu.Lock()
	m, ok := g.viewers[id]
	delete(g.viewers, id)
	g.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "viewer not found"})
		return
	}

	m.viewer.Close()
	c.Status(http.StatusNoContent)
}

// CloseAll tears down every viewer, used on shutdown.
func (g *ViewerController) CloseAll() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for id, m := range g.viewers {
		m.viewer.Close()
		delete(g.viewers, id)
	}
}

// Sweep closes the viewers idle for longer than maxIdle and returns how many
// it closed.
func (g *ViewerController) Sweep() int {
	if g.maxIdle <= 0 {
		return 0
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	swept := 0
	for id, m := range g.viewers {
		if now.Sub(m.lastSeen) <= g.maxIdle {
			continue
		}

		m.viewer.Close()
		delete(g.viewers, id)
		swept++
		slog.Info("idle viewer closed", "viewer_id", id, "idle", now.Sub(m.lastSeen).String())
	}

	return swept
}

// RunSweeper sweeps every maxIdle until ctx ends.
func (g *ViewerController) RunSweeper(ctx context.Context) {
	if g.maxIdle <= 0 {
		return
	}

	ticker := g.clock.NewTicker(g.maxIdle)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			g.Sweep()
		}
	}
}

func (g *ViewerController) find(c *gin.Context) (*viewer.Viewer, bool) {
	g.mu.Lock()
	m, ok := g.viewers[c.Param("id")]
	if ok {
		m.lastSeen = g.clock.Now()
	}
	g.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "viewer not found"})
		return nil, false
	}

	return m.viewer, true
}
