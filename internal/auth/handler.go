package auth

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/audit"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/identity"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/platform/httpx"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/shared"
)

// AuditPort records sign-in and sign-out events.
type AuditPort interface {
	Record(ctx context.Context, event audit.Event)
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	broadcaster    *identity.Broadcaster
	audit          AuditPort
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, broadcaster *identity.Broadcaster, auditor AuditPort) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		broadcaster:    broadcaster,
		audit:          auditor,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/me", h.handleMe)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid email or password")
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	userID := strconv.FormatInt(user.ID, 10)
	sess.SetUser(userID)

	expiresAt := time.Now().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, user.ID, expiresAt, clientIP(r), r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}

	if h.broadcaster != nil {
		h.broadcaster.Publish(identity.Identity{ID: userID}, true)
	}
	if h.audit != nil {
		h.audit.Record(r.Context(), audit.Event{
			Action:     audit.ActionSignIn,
			EntityType: "session",
			EntityID:   sess.ID,
			IPAddress:  clientIP(r),
		})
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"user_id":   user.ID,
		"email":     user.Email,
		"full_name": user.FullName,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.User() == "" {
		httpx.NoContent(w)
		return
	}
	// Record before the session user is gone; the recorder needs the actor.
	if h.audit != nil {
		h.audit.Record(r.Context(), audit.Event{
			Action:     audit.ActionSignOut,
			EntityType: "session",
			EntityID:   sess.ID,
			IPAddress:  clientIP(r),
		})
	}
	if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
		h.logger.Warn("remove session", slog.Any("error", err))
	}
	sess.ClearUser()
	h.sessionManager.Destroy(sess)
	if h.broadcaster != nil {
		h.broadcaster.Publish(identity.Identity{}, false)
	}
	httpx.NoContent(w)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.User() == "" {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"user_id": sess.User()})
}

// LoginForTest exposes the login handler for tests.
func (h *Handler) LoginForTest(w http.ResponseWriter, r *http.Request) {
	h.handleLogin(w, r)
}

// LogoutForTest exposes the logout handler for tests.
func (h *Handler) LogoutForTest(w http.ResponseWriter, r *http.Request) {
	h.handleLogout(w, r)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
