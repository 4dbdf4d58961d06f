package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seenimoa/commodityavg/internal/query"
)

// SessionCookie names the cookie that binds a browser to its controller.
const SessionCookie = "session_id"

type ctxKey int

const (
	ctxSessionID ctxKey = iota
	ctxController
)

// withSession resolves the session cookie, issuing a new id when it is missing
// or malformed, and puts the session's controller into the request context.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if ck, err := r.Cookie(SessionCookie); err == nil {
			if _, err := uuid.Parse(ck.Value); err == nil {
				id = ck.Value
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		c, created := s.sessions.GetOrCreate(id, func() *query.Controller { return s.newController(id) })
		if created {
			s.logger.Debug("session started", zap.String("session", id))
		}

		ctx := context.WithValue(r.Context(), ctxSessionID, id)
		ctx = context.WithValue(ctx, ctxController, c)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// newController builds a session controller whose transitions feed the hub.
func (s *Server) newController(id string) *query.Controller {
	opts := []query.Option{query.WithLogger(s.logger.With(zap.String("session", id)))}
	if s.client != nil {
		opts = append(opts, query.WithClient(s.client))
	}
	c := query.NewController(s.cfg.API.BaseURL, opts...)
	c.Subscribe(func(st query.State, p query.Params) {
		s.wsHub.Broadcast(id, WSMessage{Type: "state", Data: query.Snap(st, p)})
	})
	return c
}

func sessionFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxSessionID).(string)
	return id
}

func controllerFrom(ctx context.Context) *query.Controller {
	c, _ := ctx.Value(ctxController).(*query.Controller)
	return c
}

// requestLogger logs one line per request with zap.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
