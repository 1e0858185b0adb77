// Package server exposes the vimango notes store as a local JSON API.
//
// It serves the same operations as the MCP tools for scripts, editor
// plugins and dashboards that would rather speak HTTP than MCP. It binds to
// 127.0.0.1 only.
package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vimango/vimango-mcp/internal/store"
)

const DefaultPort = 7438

type Server struct {
	store  *store.Store
	port   int
	router *gin.Engine
}

func New(s *store.Store, port int) *Server {
	if port == 0 {
		port = DefaultPort
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	srv := &Server{store: s, port: port, router: router}

	router.GET("/health", srv.handleHealth)
	router.GET("/stats", srv.handleStats)
	router.GET("/contexts", srv.handleListContainers(store.KindContext))
	router.GET("/folders", srv.handleListContainers(store.KindFolder))
	router.GET("/search", srv.handleSearch)

	notes := router.Group("/notes")
	{
		notes.POST("", srv.handleCreateNote)
		notes.GET("/recent", srv.handleRecent)
		notes.GET("/tid/:tid", srv.handleGetNoteByTID)
		notes.GET("/:id", srv.handleGetNote)
		notes.PATCH("/:id", srv.handleUpdateNote)
	}

	return srv
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on 127.0.0.1 and blocks until the listener fails.
func (s *Server) Start() error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	slog.Info("http api listening", "addr", addr)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return httpServer.ListenAndServe()
}

// ─── Handlers ────────────────────────────────────────────────────────────────

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"service":    "vimango-mcp",
		"addressing": s.store.Addressing().String(),
		"index":      s.store.HasIndex(),
	})
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.store.Stats()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleListContainers(kind store.ContainerKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			items []store.Container
			err   error
		)
		if kind == store.KindFolder {
			items, err = s.store.ListFolders()
		} else {
			items, err = s.store.ListContexts()
		}
		if err != nil {
			writeError(c, err)
			return
		}
		if items == nil {
			items = []store.Container{}
		}
		c.JSON(http.StatusOK, items)
	}
}

func (s *Server) handleSearch(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		writeError(c, err)
		return
	}

	results, err := s.store.SearchNotes(c.Query("q"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if results == nil {
		results = []store.SearchResult{}
	}
	c.JSON(http.StatusOK, results)
}

func (s *Server) handleRecent(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		writeError(c, err)
		return
	}

	notes, err := s.store.RecentNotes(limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if notes == nil {
		notes = []store.Note{}
	}
	c.JSON(http.StatusOK, notes)
}

func (s *Server) handleGetNote(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	n, err := s.store.GetNoteByID(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (s *Server) handleGetNoteByTID(c *gin.Context) {
	tid, err := pathID(c, "tid")
	if err != nil {
		writeError(c, err)
		return
	}
	n, err := s.store.GetNoteByTID(tid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (s *Server) handleCreateNote(c *gin.Context) {
	var body store.AddNoteParams
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, fmt.Errorf("%w: %v", store.ErrInvalidInput, err))
		return
	}

	id, err := s.store.InsertNote(body)
	if err != nil {
		writeError(c, err)
		return
	}
	n, err := s.store.GetNoteByID(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id, "note": n})
}

func (s *Server) handleUpdateNote(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}

	var patch store.UpdateNoteParams
	if err := c.ShouldBindJSON(&patch); err != nil {
		writeError(c, fmt.Errorf("%w: %v", store.ErrInvalidInput, err))
		return
	}

	n, err := s.store.UpdateNote(id, patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func writeError(c *gin.Context, err error) {
	cat := store.Classify(err)
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrIndexUnavailable):
		status = http.StatusServiceUnavailable
	case cat == store.CategoryValidation:
		status = http.StatusBadRequest
	case cat == store.CategoryNotFound:
		status = http.StatusNotFound
	}
	if status >= 500 {
		slog.Error("http request failed", "method", c.Request.Method, "path", c.FullPath(), "err", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "category": cat})
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", store.ErrInvalidInput, name)
	}
	return id, nil
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", store.ErrInvalidInput, name)
	}
	return n, nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
