package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"voice-analytics/internal/domain"
	"voice-analytics/internal/domain/model"
	"voice-analytics/internal/infra/api"
	"voice-analytics/internal/infra/logging"
	"voice-analytics/internal/infra/metrics"
	"voice-analytics/internal/usecase"
)

type Options struct {
	MaxUploadBytes int64
	RequestTimeout time.Duration
}

type Server struct {
	transcriptions usecase.TranscriptionUseCase
	auth           usecase.AuthUseCase
	orgs           usecase.OrganizationUseCase
	tokens         *AuthManager
	opts           Options
	log            *zerolog.Logger
}

func NewServer(
	transcriptions usecase.TranscriptionUseCase,
	auth usecase.AuthUseCase,
	orgs usecase.OrganizationUseCase,
	tokens *AuthManager,
	opts Options,
	logger *zerolog.Logger,
) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 100 << 20
	}
	l := logger.With().Str("component", "http").Logger()
	return &Server{
		transcriptions: transcriptions,
		auth:           auth,
		orgs:           orgs,
		tokens:         tokens,
		opts:           opts,
		log:            &l,
	}
}

// Router builds the full HTTP surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(
		api.TraceID(),
		api.CORS(),
		api.RequestLog(s.log, routePattern),
		api.Recover(s.log),
		api.Timeout(s.opts.RequestTimeout),
	)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", s.handleSignup)
		r.Post("/login", s.handleLogin)
		r.With(s.authMiddleware).Get("/me", s.handleMe)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post("/transcribe", s.handleTranscribe)
		r.Get("/status/{request_id}", s.handleStatus)
		r.Get("/result/{request_id}", s.handleResult)
		r.Get("/requests", s.handleList)
		r.Delete("/requests/{request_id}", s.handleDelete)
	})

	r.Route("/orgs/{org_id}", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/", s.handleGetOrg)
		r.Get("/users", s.handleListOrgUsers)
		r.Post("/invite", s.handleInvite)
	})
	return r
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		return rc.RoutePattern()
	}
	return ""
}

type callerKey struct{}

func withCaller(ctx context.Context, c model.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

func callerFrom(ctx context.Context) model.Caller {
	c, _ := ctx.Value(callerKey{}).(model.Caller)
	return c
}

// authMiddleware resolves the bearer token to a caller. Tokens whose user no
// longer exists are rejected like invalid ones.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.tokens.ParseFromRequest(r)
		if err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		caller, err := s.auth.Identify(r.Context(), claims.Subject)
		if errors.Is(err, domain.ErrNotFound) {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		if err != nil {
			s.fail(w, r, err, "User")
			return
		}
		ctx := logging.WithUserID(withCaller(r.Context(), caller), caller.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to Voice Analytics API!"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "voice-analytics-api"})
}
