package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	audithttp "github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/audit/http"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/auth"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/election"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/observability"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/platform/httpx"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/positions"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/rbac"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/roster"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/shared"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/users"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/voting"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	SessionManager   *shared.SessionManager
	CSRFManager      *shared.CSRFManager
	AuthHandler      *auth.Handler
	ElectionHandler  *election.Handler
	PositionsHandler *positions.Handler
	VotingHandler    *voting.Handler
	RosterHandler    *roster.Handler
	UsersHandler     *users.Handler
	AuditHandler     *audithttp.Handler
	JobHandler       *jobs.Handler
	RBACMiddleware   rbac.Middleware
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Clients fetch a CSRF token here before issuing state-changing calls.
	r.Get("/auth/csrf", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		token, err := params.CSRFManager.EnsureToken(r.Context(), sess)
		if err != nil {
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"csrf_token": token})
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	// Public directory: positions, promoted candidates, the election
	// calendar and published results need no sign-in.
	if params.PositionsHandler != nil {
		params.PositionsHandler.MountPublicRoutes(r)
	}
	if params.ElectionHandler != nil {
		params.ElectionHandler.MountPublicRoutes(r)
	}

	// Signed-in students: candidacy declaration, voter registration and
	// ballots. Any authenticated account qualifies; role gates apply only
	// to committee surfaces.
	r.Group(func(gr chi.Router) {
		gr.Use(params.RBACMiddleware.RequireRole(""))
		if params.ElectionHandler != nil {
			params.ElectionHandler.MountDeclareRoutes(gr)
		}
		if params.VotingHandler != nil {
			params.VotingHandler.MountVoterRoutes(gr)
		}
	})

	// Committee surfaces sit behind the admin role.
	r.Route("/admin", func(ar chi.Router) {
		ar.Use(params.RBACMiddleware.RequireRole(rbac.RoleAdmin))
		if params.ElectionHandler != nil {
			params.ElectionHandler.MountAdminRoutes(ar)
		}
		if params.PositionsHandler != nil {
			params.PositionsHandler.MountAdminRoutes(ar)
		}
		if params.VotingHandler != nil {
			params.VotingHandler.MountAdminRoutes(ar)
		}
		if params.RosterHandler != nil {
			params.RosterHandler.MountRoutes(ar)
		}
		if params.UsersHandler != nil {
			ar.Route("/users", params.UsersHandler.MountRoutes)
		}
	})

	// The audit timeline is visible to auditors and admins.
	if params.AuditHandler != nil {
		r.Group(func(gr chi.Router) {
			gr.Use(params.RBACMiddleware.RequireAnyRole(rbac.RoleAuditor, rbac.RoleAdmin))
			params.AuditHandler.MountRoutes(gr)
		})
	}

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
