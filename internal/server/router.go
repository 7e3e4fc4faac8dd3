package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loykin/vigil/internal/config"
	"github.com/loykin/vigil/internal/metrics"
	"github.com/loykin/vigil/internal/supervisor"
)

// Router provides embeddable, read-only HTTP handlers over the supervisor.
// Endpoints:
//
//	GET {basePath}/health   200 while supervising, 503 once terminal
//	GET {basePath}/status   full supervision state JSON
//	GET /metrics            Prometheus metrics
//
// This surface is for the orchestrator and operators; the supervisor itself
// never consumes it. basePath may be empty or start with '/'; no trailing slash.
type Router struct {
	sup      *supervisor.Supervisor
	basePath string
}

// NewRouter constructs a Router with a configurable basePath.
// Example basePath: "/admin" results in /admin/health and /admin/status.
func NewRouter(sup *supervisor.Supervisor, basePath string) *Router {
	return &Router{sup: sup, basePath: sanitizeBase(basePath)}
}

// Handler returns an http.Handler powered by gin that can be mounted in any
// server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.GET("/health", r.handleHealth)
	group.GET("/status", r.handleStatus)
	g.GET("/metrics", gin.WrapH(metrics.Handler()))
	return g
}

// NewServer starts a standalone admin HTTP server per cfg. The server runs in
// a background goroutine; startup TLS errors are returned synchronously.
func NewServer(cfg config.ServerConfig, sup *supervisor.Supervisor) (*http.Server, error) {
	r := NewRouter(sup, cfg.BasePath)
	tlsCfg, err := cfg.TLS.ServerConfig()
	if err != nil {
		return nil, err
	}
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           r.Handler(),
		TLSConfig:         tlsCfg,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		if tlsCfg != nil {
			_ = srv.ListenAndServeTLS("", "")
		} else {
			_ = srv.ListenAndServe()
		}
	}()
	return srv, nil
}

// --- Handlers ---

type healthResp struct {
	OK                  bool   `json:"ok"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	FailureThreshold    int    `json:"failure_threshold"`
	LastProbeError      string `json:"last_probe_error,omitempty"`
}

func (r *Router) handleHealth(c *gin.Context) {
	st := r.sup.Snapshot()
	code := http.StatusOK
	if st.Terminal {
		code = http.StatusServiceUnavailable
	}
	writeJSON(c, code, healthResp{
		OK:                  !st.Terminal,
		ConsecutiveFailures: st.ConsecutiveFailures,
		FailureThreshold:    st.FailureThreshold,
		LastProbeError:      st.LastProbeError,
	})
}

func (r *Router) handleStatus(c *gin.Context) {
	writeJSON(c, http.StatusOK, r.sup.Snapshot())
}
