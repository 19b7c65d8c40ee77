package http

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	loginflow "queueboard/frontend/login"
	sessioncontext "queueboard/frontend/shared/context"
	"queueboard/infrastructure/audit"
	"queueboard/infrastructure/cache"
	"queueboard/infrastructure/queueapi"
	"queueboard/infrastructure/queuestate"
	"queueboard/infrastructure/rbac"
	sessioncookie "queueboard/infrastructure/session"
	"queueboard/infrastructure/sqlite"
	"queueboard/models"
)

//go:embed assets/*
var assets embed.FS

var ShutdownTimeout = 2 * time.Second

// Deps are the long-lived services the routes are wired to.
type Deps struct {
	DB           *sqlite.DB
	API          *queueapi.Client
	Board        *queuestate.Store
	Viewers      *cache.ViewerRegistry
	SessionCache *cache.OfficerSessionCache
	RbacCache    *cache.RbacRolesCache
	Rbac         *rbac.Rbac
	Audit        *audit.Service
	OutletID     string
}

// Server bundles dependencies and route wiring.
type Server struct {
	Addr   string
	ln     net.Listener
	server *http.Server
	router *chi.Mux

	Deps
}

// NewServer creates a new http server.
func NewServer(addr string, deps Deps) *Server {
	s := &Server{
		Addr:   addr,
		router: chi.NewRouter(),
		Deps:   deps,
		server: &http.Server{
			MaxHeaderBytes:    1 << 20,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	// Secure headers first.
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			next.ServeHTTP(w, r)
		})
	})

	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Compress(5))
	s.router.Use(s.CSRFMiddleware)

	s.router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Serve assets from embedded FS.
	var assetsFS fs.FS = assets
	if sub, err := fs.Sub(assets, "assets"); err == nil {
		assetsFS = sub
	} else {
		slog.Error("assets subfs init failed; serving fallback fs", slog.Any("err", err))
	}
	s.router.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.FS(assetsFS))))

	s.RegisterLoginRoutes()

	s.router.Group(func(r chi.Router) {
		r.Use(s.VisitorMiddleware)
		s.RegisterPublicRoutes(r)
	})

	s.router.Route("/officer", func(r chi.Router) {
		r.Use(s.AuthenticateMiddleware)
		s.RegisterOfficerRoutes(r)
	})

	s.server.Handler = otelhttp.NewHandler(s.router, "queueboard",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health"
		}),
	)
	return s
}

// Handler is the fully wrapped root handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// VisitorMiddleware gives every browser a stable anonymous ID so its token
// tracking survives reloads.
func (s *Server) VisitorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		visitorID := ""
		if c, err := r.Cookie(sessioncookie.VisitorCookieName); err == nil {
			if id, err := uuid.Parse(c.Value); err == nil {
				visitorID = id.String()
			}
		}
		if visitorID == "" {
			visitorID = uuid.NewString()
			http.SetCookie(w, sessioncookie.VisitorCookie(visitorID))
			ctx = sessioncontext.NewContextWithNewVisitor(ctx)
		}
		next.ServeHTTP(w, r.WithContext(sessioncontext.NewContextWithVisitor(ctx, visitorID)))
	})
}

// AuthenticateMiddleware loads the officer session, applies RBAC checks and
// hands the officer's backend token to the API client.
func (s *Server) AuthenticateMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionCookie, err := r.Cookie(sessioncookie.CookieName)
		if err != nil || sessionCookie.Value == "" {
			redirectToLogin(w, r)
			return
		}

		sessionToken := sessionCookie.Value
		session, ok := s.resolveSession(r.Context(), sessionToken)
		if !ok {
			slog.Warn("session not found", slog.String("method", r.Method), slog.String("path", r.URL.Path))
			http.SetCookie(w, sessioncookie.ClearSessionCookie())
			redirectToLogin(w, r)
			return
		}

		if session.Expired() {
			http.SetCookie(w, sessioncookie.ClearSessionCookie())
			s.SessionCache.DeleteSessionBySessionToken(sessionToken)
			if err := loginflow.DeleteSessionByToken(r.Context(), s.DB, sessionToken); err != nil {
				slog.Error("cannot delete session from DB", slog.Any("err", err))
			}
			redirectToLogin(w, r)
			return
		}

		if session.ScreenPermissions == nil {
			session.ScreenPermissions = s.RbacCache.ScreenPermissions(session.UserRoles)
		}
		if !s.Rbac.Allowed(session.UserRoles, r.URL.Path, r.Method) {
			slog.Warn("officer route forbidden",
				slog.Int64("officer_id", session.OfficerID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path))
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		ctx := sessioncontext.NewContextWithSession(r.Context(), session)
		if session.Officer.APIToken != "" {
			ctx = queueapi.WithBearerToken(ctx, session.Officer.APIToken)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := "/login"
	if r.Method == http.MethodGet {
		target += "?next=" + url.QueryEscape(r.URL.RequestURI())
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) resolveSession(ctx context.Context, token string) (models.Session, bool) {
	if cached, found := s.SessionCache.FindSessionBySessionToken(token); found {
		return cached, true
	}

	dbSession, err := loginflow.LoadSessionByToken(ctx, s.DB, token)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("load session from db failed", slog.Any("err", err))
		}
		return models.Session{}, false
	}

	dbSession.ScreenPermissions = s.RbacCache.ScreenPermissions(dbSession.UserRoles)
	s.SessionCache.AddSession(dbSession)
	return dbSession, true
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	var err error
	if s.ln, err = net.Listen("tcp", s.Addr); err != nil {
		return err
	}
	go func() {
		if err := s.server.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped", slog.Any("err", err))
		}
	}()
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.ln == nil {
		return fmt.Errorf("HTTP server has not been started or is already stopped")
	}
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	s.ln = nil
	return nil
}
