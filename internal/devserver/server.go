// Package devserver is a small practice backend serving the exercise
// endpoints the client talks to. Exercises come from an
// authoring.Generator; pending exercises live in memory.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/repeticio/repeticio/internal/authoring"
	"github.com/repeticio/repeticio/internal/backend"
)

const shutdownTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	Generator authoring.Generator
	Level     authoring.Level

	// Paths default to /get_new_exercise, /submit_answer and
	// /apply_thumbs_up_or_down.
	FetchPath  string
	SubmitPath string
	RatePath   string

	// TokenSecret enables bearer-token identification when set.
	TokenSecret    string
	AllowedUsers   []string
	AllowedOrigins []string

	RateLimit    int
	RateInterval time.Duration

	// GinMode is passed to gin.SetMode when set.
	GinMode string
	Logger  zerolog.Logger
}

// Server is the practice backend.
type Server struct {
	opts    Options
	log     zerolog.Logger
	pending *registry
	limiter *RateLimiter
	engine  *gin.Engine
}

// New builds the server and its routes.
func New(opts Options) (*Server, error) {
	if opts.Generator == nil {
		return nil, errors.New("devserver: a generator is required")
	}
	if opts.Level == "" {
		opts.Level = authoring.LevelA1
	}
	if opts.FetchPath == "" {
		opts.FetchPath = "/get_new_exercise"
	}
	if opts.SubmitPath == "" {
		opts.SubmitPath = "/submit_answer"
	}
	if opts.RatePath == "" {
		opts.RatePath = "/apply_thumbs_up_or_down"
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 60
	}
	if opts.RateInterval <= 0 {
		opts.RateInterval = time.Minute
	}
	if opts.GinMode != "" {
		gin.SetMode(opts.GinMode)
	}
	setupValidator()

	s := &Server{
		opts:    opts,
		log:     opts.Logger.With().Str("component", "devserver").Logger(),
		pending: newRegistry(),
		limiter: NewRateLimiter(opts.RateLimit, opts.RateInterval),
	}
	s.engine = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(s.opts.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = s.opts.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", backend.HeaderRequestID, backend.HeaderIdentity}
	corsConfig.ExposeHeaders = []string{backend.HeaderRequestID}
	corsConfig.MaxAge = 12 * time.Hour
	r.Use(cors.New(corsConfig))

	r.Use(requestID(), accessLog(s.log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/")
	api.Use(s.limiter.Middleware(), identify(s.opts.TokenSecret), allowUsers(s.opts.AllowedUsers))
	{
		api.GET(s.opts.FetchPath, s.getNewExercise)
		api.POST(s.opts.SubmitPath, s.submitAnswer)
		api.POST(s.opts.RatePath, s.applyRating)
	}
	return r
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	go s.limiter.RunCleanup(cleanupCtx)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", ln.Addr().String()).Msg("practice backend listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
