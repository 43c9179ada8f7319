// Package http serves the WAIST web interface.
package http

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"waist/internal/ai"
	"waist/internal/auth"
	"waist/internal/log"
	"waist/internal/metrics"
	"waist/internal/middleware/ratelimit"
	"waist/internal/middleware/security"
	"waist/internal/middleware/trace"
	"waist/internal/services"
	appweb "waist/web"
)

// Deps are the collaborators the handlers need. Advisor, Metrics and Logger
// may be nil.
type Deps struct {
	Transactions services.Store
	Analytics    *services.Analytics
	Credentials  *auth.CredentialStore
	Tokens       *auth.TokenManager
	Advisor      *ai.Advisor
	Metrics      *metrics.Metrics
	Logger       *log.Logger

	RateLimit     int
	SecureCookies bool
}

type Server struct {
	http.Server
	templates *template.Template

	transactions  services.Store
	analytics     *services.Analytics
	credentials   *auth.CredentialStore
	tokens        *auth.TokenManager
	advisor       *ai.Advisor
	metrics       *metrics.Metrics
	logger        *log.Logger
	limiter       *ratelimit.Limiter
	clientIP      *security.ClientIPResolver
	secureCookies bool
}

// NewServer wires routes and middleware. It panics if the embedded
// templates fail to parse.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	advisor := deps.Advisor
	if advisor == nil {
		advisor = ai.NewAdvisor(nil, ai.Options{Logger: logger})
	}

	s := &Server{
		templates:     mustParseTemplates(),
		transactions:  deps.Transactions,
		analytics:     deps.Analytics,
		credentials:   deps.Credentials,
		tokens:        deps.Tokens,
		advisor:       advisor,
		metrics:       deps.Metrics,
		logger:        logger.WithComponent(log.ComponentHTTP),
		limiter:       ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimit}),
		clientIP:      security.NewClientIPResolver(),
		secureCookies: deps.SecureCookies,
	}
	if s.analytics == nil {
		s.analytics = services.NewAnalytics(deps.Transactions)
	}

	mux := http.NewServeMux()
	s.routes(mux)

	// The trace middleware must see the same *Request the mux annotates with
	// its matched pattern, so nothing between them may call WithContext.
	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.clientIP.ClientIP, s.handleRateLimited, http.MethodPost)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = trace.NewMiddleware(s.clientIP.ClientIP, logger, deps.Metrics).Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(http.FileServerFS(appweb.StaticFS)))

	mux.HandleFunc("GET /signup", s.handleSignupPage)
	mux.HandleFunc("POST /signup", s.handleSignup)
	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /logout", s.handleLogout)
	mux.HandleFunc("GET /forgot-password", s.handleForgotPasswordPage)
	mux.HandleFunc("POST /forgot-password", s.handleForgotPassword)
	mux.HandleFunc("GET /reset-password", s.handleResetPasswordPage)
	mux.HandleFunc("POST /reset-password", s.handleResetPassword)

	mux.Handle("GET /{$}", s.requireAuth(s.handleHome))
	mux.Handle("GET /transactions", s.requireAuth(s.handleTransactions))
	mux.Handle("GET /add", s.requireAuth(s.handleAddPage))
	mux.Handle("POST /add", s.requireAuth(s.handleAdd))
	mux.Handle("GET /edit/{id}", s.requireAuth(s.handleEditPage))
	mux.Handle("POST /edit/{id}", s.requireAuth(s.handleEdit))
	mux.Handle("POST /delete/{id}", s.requireAuth(s.handleDelete))
	mux.Handle("GET /analysis", s.requireAuth(s.handleAnalysis))
	mux.Handle("GET /insights", s.requireAuth(s.handleInsights))
	mux.Handle("GET /export", s.requireAuth(s.handleExport))
	mux.Handle("POST /suggest-category", s.requireAuth(s.handleSuggestCategory))
	mux.Handle("GET /change-password", s.requireAuth(s.handleChangePasswordPage))
	mux.Handle("POST /change-password", s.requireAuth(s.handleChangePassword))
}

// Shutdown drains connections and stops the rate limiter sweep.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}
