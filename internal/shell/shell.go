// Package shell runs the local app-shell server that stands in for the CRM
// front end's navigation layer: every screen request passes the route
// authorization gate, and the session lifecycle drives redirects to login.
package shell

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/leadgrid-dev/leadgrid/internal/apiclient"
	"github.com/leadgrid-dev/leadgrid/internal/config"
	"github.com/leadgrid-dev/leadgrid/internal/credstore"
	"github.com/leadgrid-dev/leadgrid/internal/routegate"
	"github.com/leadgrid-dev/leadgrid/internal/session"
	"github.com/leadgrid-dev/leadgrid/internal/tokenclock"
)

// Shell is the local navigation server.
type Shell struct {
	router   *gin.Engine
	cfg      *config.Config
	store    *credstore.Store
	clock    *tokenclock.Clock
	gate     *routegate.Gate
	manager  *session.Manager
	api      *apiclient.Client
	table    routegate.Table
	validate *validator.Validate
	logger   zerolog.Logger
	expired  atomic.Bool
}

// New creates a shell over the shared session components.
func New(cfg *config.Config, store *credstore.Store, clock *tokenclock.Clock,
	manager *session.Manager, gate *routegate.Gate, api *apiclient.Client,
	table routegate.Table, logger zerolog.Logger) *Shell {

	s := &Shell{
		cfg:      cfg,
		store:    store,
		clock:    clock,
		gate:     gate,
		manager:  manager,
		api:      api,
		table:    table,
		validate: validator.New(),
		logger:   logger,
	}
	s.setupRouter()
	return s
}

// Router exposes the gin engine, used by tests and embedding callers.
func (s *Shell) Router() *gin.Engine {
	return s.router
}

// InitSession starts the session lifecycle. The expire callback records
// that the session ended so the login screen can show a notice; the
// redirect itself happens on the next gated navigation.
func (s *Shell) InitSession() {
	s.manager.Init(func() {
		s.expired.Store(true)
		s.logger.Info().Msg("session ended, next navigation redirects to login")
	})
}

// setupRouter configures the gin router with routes and middleware.
func (s *Shell) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	if len(s.cfg.Shell.CORSOrigins) > 0 {
		s.router.Use(cors.New(cors.Config{
			AllowOrigins:     s.cfg.Shell.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	s.router.GET("/health", s.healthCheck)

	// Root resolves to the role's landing dashboard, or login
	s.router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, s.gate.ResolveRoot())
	})

	s.router.GET(routegate.LoginPath, s.loginScreen)
	s.router.POST(routegate.LoginPath, s.login)
	s.router.POST("/logout", s.logout)
	s.router.GET("/session", s.sessionStatus)

	// UI preference state, cleared on logout alongside the credentials
	filters := s.router.Group("/api/filters")
	filters.Use(s.gateMiddleware(nil))
	{
		filters.GET("", s.getFilters)
		filters.PUT("", s.putFilters)
		filters.PATCH("", s.patchFilters)
	}

	// Every protected screen from the route table goes through the gate
	for _, route := range s.table.Routes {
		route := route
		s.router.GET(route.Path, s.gateMiddleware(route.Roles), s.renderScreen(route.Path))
	}
}

// gateMiddleware consults the authorization gate the way the browser
// router would on each navigation, turning denials into soft redirects.
func (s *Shell) gateMiddleware(allowed []routegate.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := s.gate.Decide(allowed)
		if !decision.Allow {
			c.Redirect(http.StatusFound, decision.RedirectTo)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Shell) renderScreen(path string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"screen": path,
			"role":   s.gate.CurrentRole(),
		})
	}
}

func (s *Shell) loginScreen(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"screen":         routegate.LoginPath,
		"sessionExpired": s.expired.Load(),
	})
}

// loginRequest is the login form payload.
type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (s *Shell) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	resp, err := s.api.Login(req.Email, req.Password)
	if err != nil {
		s.logger.Warn().Err(err).Msg("login rejected by API")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if err := s.store.SetToken(resp.Token); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist credentials"})
		return
	}
	if err := s.store.SetUser(&resp.User); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist user profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist credentials"})
		return
	}

	s.expired.Store(false)
	s.manager.ArmTimer()

	c.JSON(http.StatusOK, gin.H{"redirect": s.gate.ResolveRoot()})
}

func (s *Shell) logout(c *gin.Context) {
	s.manager.Logout()
	c.JSON(http.StatusOK, gin.H{"redirect": routegate.LoginPath})
}

func (s *Shell) sessionStatus(c *gin.Context) {
	status := gin.H{
		"authenticated":  s.clock.IsAuthenticated(),
		"expired":        s.clock.IsExpired(),
		"sessionExpired": s.expired.Load(),
		"role":           s.gate.CurrentRole(),
	}
	if exp, ok := s.clock.ExpiresAt(); ok {
		status["expiresAt"] = exp.UTC()
	}
	c.JSON(http.StatusOK, status)
}

func (s *Shell) getFilters(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Filters(map[string]any{}))
}

func (s *Shell) putFilters(c *gin.Context) {
	var filters map[string]any
	if err := c.ShouldBindJSON(&filters); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := s.store.SetFilters(filters); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist filters"})
		return
	}
	c.JSON(http.StatusOK, s.store.Filters(map[string]any{}))
}

func (s *Shell) patchFilters(c *gin.Context) {
	var partial map[string]any
	if err := c.ShouldBindJSON(&partial); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := s.store.MergeFilters(partial); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist filters"})
		return
	}
	c.JSON(http.StatusOK, s.store.Filters(map[string]any{}))
}

// loggingMiddleware creates a request logging middleware using zerolog.
func (s *Shell) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	}
}

func (s *Shell) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "leadgrid-shell",
	})
}

// Start initializes the session and serves until SIGINT/SIGTERM.
func (s *Shell) Start() error {
	s.InitSession()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              s.cfg.Shell.ListenAddr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	s.logger.Info().Str("addr", s.cfg.Shell.ListenAddr).Msg("app shell listening")

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		s.logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	return s.manager.Close()
}
