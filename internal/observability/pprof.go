// Package observability holds the optional debug surfaces. Only pprof for
// now; bind it to loopback.
package observability

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"runtime"
	"sync"
	"time"

	"stagepush/pkg/logx"
)

// PprofConfig controls the optional pprof HTTP listener. It is hot-reloaded:
// Apply starts, moves or stops the server to match.
type PprofConfig struct {
	Enabled              bool
	Address              string // default 127.0.0.1:6060
	BlockProfileRate     int
	MutexProfileFraction int
}

func (c PprofConfig) withDefaults() PprofConfig {
	if c.Address == "" {
		c.Address = "127.0.0.1:6060"
	}
	return c
}

// PprofServer manages lifecycle for the debug HTTP listener.
type PprofServer struct {
	mu   sync.Mutex
	log  logx.Logger
	srv  *http.Server
	ln   net.Listener
	addr string
}

func NewPprofServer(log logx.Logger) *PprofServer {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &PprofServer{log: log.With(logx.String("comp", "pprof"))}
}

// Apply starts/stops the server according to cfg and updates profile rates.
func (p *PprofServer) Apply(ctx context.Context, cfg PprofConfig) {
	cfg = cfg.withDefaults()

	// Update global profiling knobs even if the server is disabled.
	runtime.SetBlockProfileRate(cfg.BlockProfileRate)
	runtime.SetMutexProfileFraction(cfg.MutexProfileFraction)

	p.mu.Lock()
	defer p.mu.Unlock()

	if !cfg.Enabled {
		p.stopLocked(ctx)
		return
	}

	if p.srv != nil && p.addr == cfg.Address {
		return
	}

	p.stopLocked(ctx)
	p.startLocked(cfg)
}

func (p *PprofServer) startLocked(cfg PprofConfig) {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	srv := &http.Server{Addr: cfg.Address, Handler: mux}
	ln, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		p.log.Warn("pprof listen failed", logx.String("addr", cfg.Address), logx.Err(err))
		return
	}

	p.srv = srv
	p.ln = ln
	p.addr = ln.Addr().String()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.log.Warn("pprof server error", logx.String("addr", p.addr), logx.Err(err))
		}
	}()
	p.log.Info("pprof enabled", logx.String("addr", p.addr))
}

// Stop gracefully shuts down the server.
func (p *PprofServer) Stop(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked(ctx)
}

func (p *PprofServer) stopLocked(ctx context.Context) {
	if p.srv == nil {
		return
	}
	srv := p.srv
	ln := p.ln
	p.srv = nil
	p.ln = nil
	addr := p.addr
	p.addr = ""

	shutdownCtx := ctx
	if shutdownCtx == nil {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
	}

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		p.log.Warn("pprof shutdown error", logx.String("addr", addr), logx.Err(err))
	}
	if ln != nil {
		_ = ln.Close()
	}
	p.log.Info("pprof disabled", logx.String("addr", addr))
}

// Addr reports the actual listen address if running.
func (p *PprofServer) Addr() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.addr
}
