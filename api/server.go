// Package api serves ladder computations over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/rustyeddy/dca/planner"
)

// SymbolSource looks up cached symbol rules. *cache.Cache implements it.
type SymbolSource = planner.RulesSource

type Server struct {
	planner *planner.Planner
	symbols SymbolSource
	ttl     time.Duration
	log     *zap.Logger
	engine  *gin.Engine

	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	now       func() time.Time
	mu        sync.Mutex
	limiters  map[string]*client
	lastSweep time.Time
}

// client is the rate limiter of one remote IP.
type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// DefaultLimiterIdle is how long a client's limiter is kept after its last request.
const DefaultLimiterIdle = 10 * time.Minute

type Options struct {
	Planner *planner.Planner
	Symbols SymbolSource // optional, enables GET /api/symbols/:symbol
	TTL     time.Duration
	Log     *zap.Logger

	// Per-client request rate; zero disables limiting.
	RateLimit rate.Limit
	Burst     int

	// Limiters idle longer than this are dropped; 0 means DefaultLimiterIdle.
	LimiterIdle time.Duration
}

func NewServer(opts Options) *Server {
	s := &Server{
		planner:  opts.Planner,
		symbols:  opts.Symbols,
		ttl:      opts.TTL,
		log:      opts.Log,
		limit:    opts.RateLimit,
		burst:    opts.Burst,
		idleTTL:  opts.LimiterIdle,
		now:      time.Now,
		limiters: make(map[string]*client),
	}
	if s.idleTTL <= 0 {
		s.idleTTL = DefaultLimiterIdle
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.burst <= 0 {
		s.burst = 1
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	s.engine = r
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.health)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api", s.rateLimiter())
	api.POST("/ladder", s.computeLadder)
	api.GET("/symbols/:symbol", s.getSymbol)
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("api listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("api shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func (s *Server) rateLimiter() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limit == 0 {
			c.Next()
			return
		}
		if !s.limiterFor(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func (s *Server) limiterFor(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= s.idleTTL {
		s.sweep(now)
	}

	c, ok := s.limiters[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.limiters[ip] = c
	}
	c.lastSeen = now
	return c.limiter
}

// sweep drops limiters idle for at least idleTTL. Callers hold s.mu.
func (s *Server) sweep(now time.Time) {
	for ip, c := range s.limiters {
		if now.Sub(c.lastSeen) >= s.idleTTL {
			delete(s.limiters, ip)
		}
	}
	s.lastSweep = now
}
