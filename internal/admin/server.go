// Package admin exposes a small operator HTTP API: health, job listing with
// recent run history, and manual job triggers. It is not a user surface;
// bind it to loopback or set a token.
package admin

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"stagepush/internal/scheduler"
	"stagepush/pkg/logx"
)

// Config mirrors config.AdminConfig without importing it (avoids a cycle
// once app wires reloads through here).
type Config struct {
	Enabled bool
	Addr    string
	Token   string
}

// Jobs is the scheduler surface the API needs.
type Jobs interface {
	Jobs() map[string]string
	History() []scheduler.HistoryItem
	RunNow(ctx context.Context, name string) error
}

type Server struct {
	cfg  Config
	jobs Jobs
	log  logx.Logger
	srv  *http.Server
}

func New(cfg Config, jobs Jobs, log logx.Logger) *Server {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Server{cfg: cfg, jobs: jobs, log: log}
}

// Start begins serving; it returns immediately. Disabled config is a no-op.
func (s *Server) Start(ctx context.Context) {
	if !s.cfg.Enabled {
		return
	}

	s.srv = &http.Server{
		Addr:        s.cfg.Addr,
		Handler:     s.router(),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	go func() {
		s.log.Info("admin api listening", logx.String("addr", s.cfg.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("admin api failed", logx.Err(err))
		}
	}()
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	if s.cfg.Token != "" {
		r.Use(s.auth)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/jobs", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"jobs":    s.jobs.Jobs(),
			"history": s.jobs.History(),
		})
	})
	r.POST("/jobs/:name/run", func(c *gin.Context) {
		name := c.Param("name")
		if _, ok := s.jobs.Jobs()[name]; !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown job"})
			return
		}
		// Run in the request goroutine so the caller sees the outcome;
		// batches are capped, so the request won't hang forever.
		err := s.jobs.RunNow(c.Request.Context(), name)
		switch {
		case errors.Is(err, scheduler.ErrAlreadyRunning):
			c.JSON(http.StatusConflict, gin.H{"error": "already running"})
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusOK, gin.H{"ok": true})
		}
	})
	return r
}

func (s *Server) Stop(ctx context.Context) {
	if s.srv == nil {
		return
	}
	_ = s.srv.Shutdown(ctx)
	s.srv = nil
}

func (s *Server) auth(c *gin.Context) {
	h := c.GetHeader("Authorization")
	if strings.TrimPrefix(h, "Bearer ") != s.cfg.Token {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Next()
}
