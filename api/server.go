// Package api provides the web shell for commodityavg.
//
// It serves the query form and result page, chart images, a small JSON API
// over the same per-session query controller, and a WebSocket stream of
// state transitions.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/commodityavg/internal/config"
	"github.com/seenimoa/commodityavg/internal/infra"
	"github.com/seenimoa/commodityavg/internal/query"
	"github.com/seenimoa/commodityavg/pkg/models"
	"github.com/seenimoa/commodityavg/pkg/utils"
	"github.com/seenimoa/commodityavg/web"
)

// Version is reported by /health; the CLI overwrites it at startup.
var Version = "dev"

// sweepInterval is how often expired sessions are dropped.
const sweepInterval = time.Minute

// Server is the HTTP server of the web shell.
type Server struct {
	router   chi.Router
	cfg      *config.Config
	logger   *zap.Logger
	client   infra.Doer
	sessions *infra.Store[*query.Controller]
	wsHub    *WSHub
	pages    *template.Template
	now      func() time.Time

	// bg outlives requests; asynchronous submits run under it.
	bg context.Context
}

// Option configures a Server.
type Option func(*Server)

// WithHTTPClient sets the client the session controllers use for the pricing API.
func WithHTTPClient(d infra.Doer) Option {
	return func(s *Server) { s.client = d }
}

// NewServer creates a configured server with all routes and middleware.
func NewServer(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := &Server{
		cfg:      cfg,
		logger:   logger,
		sessions: infra.NewStore[*query.Controller](cfg.Server.SessionTTL),
		wsHub:    NewWSHub(),
		now:      time.Now,
		bg:       context.Background(),
	}
	for _, o := range opts {
		o(srv)
	}

	pages, err := web.Templates(template.FuncMap{})
	if err != nil {
		return nil, fmt.Errorf("parsing page templates: %w", err)
	}
	srv.pages = pages

	srv.router = srv.buildRouter()
	return srv, nil
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	s.bg = ctx

	g.Go(func() error {
		s.wsHub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if n := s.sessions.Sweep(); n > 0 {
					s.logger.Debug("expired sessions dropped", zap.Int("count", n))
				}
			}
		}
	})
	g.Go(func() error {
		s.logger.Info("web shell listening", zap.String("addr", addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("shutting down web shell")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	// CORS
	origins := []string{"*"}
	if len(s.cfg.Server.CORSOrigins) > 0 {
		origins = s.cfg.Server.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(web.StaticFS())))
	r.Get("/diagram", s.handleDiagram)

	// Everything below is bound to the caller's session.
	r.Group(func(r chi.Router) {
		r.Use(s.withSession)

		r.Get("/", s.handleIndex)
		r.Post("/resource", s.handleResourceForm)
		r.Post("/fetch", s.handleFetchForm)
		r.Get("/chart.svg", s.handleChartSVG)
		r.Get("/chart.png", s.handleChartPNG)

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/health", s.handleHealth)
			r.Get("/resources", s.handleResources)
			r.Get("/config", s.handleGetConfig)
			r.Get("/state", s.handleState)
			r.Put("/params", s.handleParams)
			r.Post("/submit", s.handleSubmit)
			r.Get("/ws", s.handleWebSocket)
		})
	})

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ParamsRequest is the body for PUT /api/v1/params. Absent fields are left
// unchanged; an empty date string clears the date.
type ParamsRequest struct {
	Resource  *string `json:"resource,omitempty"`
	Interval  *string `json:"interval,omitempty"`
	StartDate *string `json:"start_date,omitempty"`
	EndDate   *string `json:"end_date,omitempty"`
}

// ============================================================
// JSON handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":     "ok",
			"version":    Version,
			"sessions":   s.sessions.Len(),
			"ws_clients": s.wsHub.ClientCount(),
			"time_utc":   s.now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: models.Resources()})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	c := controllerFrom(r.Context())
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: c.Snapshot()})
}

func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	var req ParamsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	c := controllerFrom(r.Context())
	if err := applyParams(c, req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: c.Snapshot()})
}

// handleSubmit starts a fetch and answers with the Loading snapshot. The
// outcome arrives through GET /api/v1/state or the WebSocket stream.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	c := controllerFrom(r.Context())
	c.SubmitAsync(s.bg)
	writeJSON(w, http.StatusAccepted, APIResponse{Success: true, Data: c.Snapshot()})
}

// applyParams applies the fields of req in order: resource, interval, dates.
func applyParams(c *query.Controller, req ParamsRequest) error {
	if req.Resource != nil {
		res, err := models.ParseResource(*req.Resource)
		if err != nil {
			return err
		}
		if res != c.Params().Resource {
			if err := c.SetResource(res); err != nil {
				return err
			}
		}
	}
	if req.Interval != nil {
		if err := c.SetInterval(models.Interval(*req.Interval)); err != nil {
			return err
		}
	}
	if req.StartDate != nil {
		d, err := utils.ParseDate(*req.StartDate)
		if err != nil {
			return fmt.Errorf("start_date: %w", err)
		}
		c.SetStartDate(d)
	}
	if req.EndDate != nil {
		d, err := utils.ParseDate(*req.EndDate)
		if err != nil {
			return fmt.Errorf("end_date: %w", err)
		}
		c.SetEndDate(d)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
