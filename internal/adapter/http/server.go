package adapthttp

import (
	"net/http"

	"focuslock/internal/app"
	"focuslock/internal/domain"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// Services bundles the application services the HTTP adapter drives.
type Services struct {
	Auth     *app.AuthService
	Lock     *app.LockService
	Stats    *app.StatsService
	Focus    *app.FocusService
	Settings *app.SettingsService
}

// OIDCConfig enables single sign-on. PostLoginRedirect, when set, is where the
// browser is sent after a successful callback; otherwise the callback answers
// with JSON.
type OIDCConfig struct {
	Enabled           bool
	OAuth2Config      *oauth2.Config
	Provider          *oidc.Provider
	PostLoginRedirect string
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	auth     *app.AuthService
	lock     *app.LockService
	stats    *app.StatsService
	focus    *app.FocusService
	settings *app.SettingsService

	oidcConfig       OIDCConfig
	trustForwardAuth bool
	disableAuth      bool
	testUser         *domain.User
}

// New creates a Server wired to the given application services.
func New(svcs Services, oidcConfig OIDCConfig) *Server {
	return &Server{
		auth:       svcs.Auth,
		lock:       svcs.Lock,
		stats:      svcs.Stats,
		focus:      svcs.Focus,
		settings:   svcs.Settings,
		oidcConfig: oidcConfig,
	}
}

// WithForwardAuth trusts the Remote-User header set by an authenticating
// reverse proxy.
func (s *Server) WithForwardAuth() *Server {
	s.trustForwardAuth = true
	return s
}

// WithoutAuth disables authentication and serves every request as user 1.
// Only tests use it.
func (s *Server) WithoutAuth() *Server {
	s.disableAuth = true
	s.testUser = &domain.User{ID: 1, Email: "test@example.com", Name: "test"}
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	api.HandleFunc("/auth/config", s.handleConfig)
	api.HandleFunc("/auth/register", s.handleRegister)
	api.HandleFunc("/auth/login", s.handleLogin)
	api.HandleFunc("/auth/logout", s.handleLogout)
	api.HandleFunc("/auth/reset-password", s.handleResetPassword)
	api.HandleFunc("/auth/sso/login", s.handleSSOLogin)
	api.HandleFunc("/auth/sso/callback", s.handleSSOCallback)

	protected := http.NewServeMux()
	protected.HandleFunc("/auth/me", s.handleMe)

	protected.HandleFunc("/lock/session", s.handleLockSession)
	protected.HandleFunc("/lock/complete", s.handleLockComplete)
	protected.HandleFunc("/lock/unlock", s.handleLockUnlock)
	protected.HandleFunc("/lock/attempt", s.handleLockAttempt)
	protected.HandleFunc("/lock/fee", s.handleLockFee)
	protected.HandleFunc("/lock/fee/reset", s.handleLockFeeReset)
	protected.HandleFunc("/lock/history", s.handleLockHistory)
	protected.HandleFunc("/lock/uninstall", s.handleLockUninstall)

	protected.HandleFunc("/stats", s.handleStats)
	protected.HandleFunc("/stats/session", s.handleStatsSession)
	protected.HandleFunc("/stats/weekly", s.handleStatsWeekly)
	protected.HandleFunc("/stats/monthly", s.handleStatsMonthly)
	protected.HandleFunc("/stats/daily/reset", s.handleStatsDailyReset)

	protected.HandleFunc("/focus/tasks", s.handleFocusTasks)
	protected.HandleFunc("/focus/tasks/toggle", s.handleFocusTaskToggle)
	protected.HandleFunc("/focus/tasks/remove", s.handleFocusTaskRemove)
	protected.HandleFunc("/focus/apps", s.handleFocusApps)

	protected.HandleFunc("/settings", s.handleSettings)

	api.Handle("/", s.authMiddleware(protected))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	return s.loggingMiddleware(withNoCache(root))
}
