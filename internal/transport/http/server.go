package statushttp

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"polyquant/internal/logger"
	"polyquant/internal/store/signallog"
	"polyquant/internal/store/sqlite"
	"polyquant/internal/trader"

	"github.com/gin-gonic/gin"
)

// SnapshotProvider is the read-only view onto the trading loop.
type SnapshotProvider interface {
	CurrentSnapshot() trader.Snapshot
}

// ServerConfig wires the status API dependencies.
type ServerConfig struct {
	Addr    string
	Loop    SnapshotProvider
	Signals *signallog.Store
	Events  *sqlite.Store
}

// Server exposes a read-only status API: loop snapshot, risk state, recent
// signals and position events. It never mutates trading state.
type Server struct {
	addr   string
	router *gin.Engine
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Loop == nil {
		return nil, errors.New("status server requires the trading loop snapshot")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9980"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.GET("/positions", func(c *gin.Context) {
		snap := cfg.Loop.CurrentSnapshot()
		c.JSON(http.StatusOK, gin.H{
			"state":      snap.State,
			"cycle_seq":  snap.CycleSeq,
			"updated_at": snap.UpdatedAt,
			"positions":  snap.Positions,
		})
	})
	api.GET("/risk", func(c *gin.Context) {
		snap := cfg.Loop.CurrentSnapshot()
		c.JSON(http.StatusOK, snap.Risk)
	})
	if cfg.Signals != nil {
		api.GET("/signals", func(c *gin.Context) {
			limit, _ := strconv.Atoi(c.Query("limit"))
			records, err := cfg.Signals.ListRecent(c.Request.Context(), signallog.Query{
				InstrumentID: c.Query("instrument"),
				Limit:        limit,
			})
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"signals": records})
		})
	}
	if cfg.Events != nil {
		api.GET("/events", func(c *gin.Context) {
			limit, _ := strconv.Atoi(c.Query("limit"))
			rows, err := cfg.Events.ListEvents(c.Request.Context(), c.Query("instrument"), limit)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"events": rows})
		})
	}

	return &Server{addr: cfg.Addr, router: router}, nil
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("status API listening on %s", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler { return s.router }

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugf("http %s %s status=%d dur=%s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Truncate(time.Millisecond))
	}
}
