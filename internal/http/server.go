package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"fittrack/api/internal/auth"
	"fittrack/api/internal/config"
	"fittrack/api/internal/identity"
	"fittrack/api/internal/mail"
	"fittrack/api/internal/metrics"
	"fittrack/api/internal/oauth"
	"fittrack/api/internal/ratelimit"
)

const (
	sessionCookie = "token"
	stateCookie   = "oauth_state"
	stateTTL      = 10 * time.Minute
	maxBodyBytes  = 1 << 20
)

type Server struct {
	cfg      config.Config
	identity *identity.Service
	signer   *auth.Signer
	mailer   mail.Mailer
	google   oauth.Provider
	limiter  ratelimit.Limiter
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type Option func(*Server)

func WithMailer(m mail.Mailer) Option {
	return func(s *Server) { s.mailer = m }
}

// WithGoogle enables the Google sign-in routes.
func WithGoogle(p oauth.Provider) Option {
	return func(s *Server) { s.google = p }
}

func WithLimiter(l ratelimit.Limiter) Option {
	return func(s *Server) { s.limiter = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

func NewServer(cfg config.Config, svc *identity.Service, signer *auth.Signer, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		identity: svc,
		signer:   signer,
		limiter:  ratelimit.Unlimited{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.mailer == nil {
		s.mailer = mail.LogMailer{Logger: s.logger}
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(s.recoverer)
	r.Use(s.metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.cfg.CORSOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/clients", func(r chi.Router) {
		r.Post("/", s.handleSignup)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Get("/verify-email", s.handleVerifyEmail)
		r.Post("/password-reset", s.handlePasswordResetRequest)
		r.Post("/password-reset/confirm", s.handlePasswordResetConfirm)

		r.With(s.authMiddleware).Get("/profile", s.handleGetProfile)
		r.With(s.authMiddleware).Put("/profile", s.handleUpdateProfile)
		r.With(s.authMiddleware).Put("/goals", s.handleUpdateGoals)
		r.With(s.authMiddleware).Put("/workouts", s.handleSetWorkouts)
		r.With(s.authMiddleware).Post("/logs", s.handleAppendLog)
		r.With(s.authMiddleware).Get("/logs", s.handleListLogs)
	})

	r.Get("/auth/google", s.handleGoogleStart)
	r.Get("/auth/google/callback", s.handleGoogleCallback)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.identity.Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "store ping failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// sendMail delivers msg within the SMTP timeout. Failures are logged and
// counted, never returned.
func (s *Server) sendMail(ctx context.Context, msg mail.Message) {
	timeout := s.cfg.SMTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.metrics.EmailFailed()
		s.logger.ErrorContext(ctx, "email delivery failed", "subject", msg.Subject, "error", err)
	}
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string, sameSite http.SameSite) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.cfg.SessionTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.Production(),
		SameSite: sameSite,
	})
}

func (s *Server) clearCookie(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.Production(),
		SameSite: http.SameSiteLaxMode,
	})
}
