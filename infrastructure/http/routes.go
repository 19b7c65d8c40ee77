package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"queueboard/frontend/analytics"
	"queueboard/frontend/board"
	"queueboard/frontend/login"
	"queueboard/frontend/officer"
	"queueboard/frontend/registration"
	"queueboard/frontend/tokens"
	"queueboard/infrastructure/rbac"
)

// RegisterLoginRoutes registers login/logout routes.
func (s *Server) RegisterLoginRoutes() {
	s.router.Get("/login", login.GetLoginScreenHandler)
	s.router.Post("/login", login.CreateLoginHandler(s.DB, s.SessionCache, s.Audit))
	s.router.Post("/logout", login.LogoutHandler(s.DB, s.SessionCache))
}

// RegisterPublicRoutes registers the customer, board and analytics screens.
// They run without an officer session.
func (s *Server) RegisterPublicRoutes(r chi.Router) {
	r.Get("/", registration.RegistrationPageQueryHandler(s.API))
	r.Post("/register", registration.RegisterCommandHandler(s.API, s.Viewers))
	r.Get("/lookup", registration.LookupQueryHandler(s.API))

	r.Post("/tokens/done", tokens.DoneCommandHandler(s.Viewers))
	r.Get("/tokens/{token}", tokens.TokenPageQueryHandler(s.API, s.Viewers))
	r.Get("/tokens/{token}/status.json", tokens.StatusJSONHandler(s.API, s.Viewers))
	r.Get("/tokens/{token}/qr.png", tokens.QRCodeHandler(s.Viewers))
	r.Get("/tokens/{token}/ticket.pdf", tokens.TicketPDFHandler(s.API, s.Viewers))

	r.Get("/board", board.BoardQueryHandler(s.Board, s.OutletID))
	r.Get("/board/snapshot.json", board.SnapshotJSONHandler(s.Board, s.OutletID))

	r.Get("/analytics", analytics.DashboardQueryHandler(s.API, s.Board))
}

// RegisterOfficerRoutes registers the session-protected officer screens.
func (s *Server) RegisterOfficerRoutes(r chi.Router) {
	s.Rbac.Add(rbac.RoleOfficer, rbac.CodeQueueView, http.MethodGet, "/officer/queue")
	r.Get("/queue", officer.QueuePageQueryHandler(s.API, s.OutletID))

	s.Rbac.Add(rbac.RoleOfficer, rbac.CodeQueueUpdate, http.MethodPost, "/officer/queue/*/status")
	r.Post("/queue/{token}/status", officer.UpdateStatusCommandHandler(s.DB, s.API, s.Audit, s.Board, s.OutletID))

	s.Rbac.Add(rbac.RoleOfficer, rbac.CodeDashboardView, http.MethodGet, "/officer/dashboard")
	r.Get("/dashboard", officer.DashboardQueryHandler(s.DB, s.API, s.Audit, s.OutletID))

	s.Rbac.Add(rbac.RoleSupervisor, rbac.CodeQueueExport, http.MethodGet, "/officer/queue.csv")
	r.Get("/queue.csv", officer.QueueExportCSVHandler(s.DB, s.API, s.Audit, s.OutletID))
}
