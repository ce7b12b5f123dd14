package positions

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/platform/httpx"
)

// Handler wires HTTP endpoints for position management.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountPublicRoutes registers the read-only endpoints.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Get("/positions", h.handleList)
	r.Get("/positions/{id}", h.handleGet)
}

// MountAdminRoutes registers the committee endpoints. The caller wraps them
// in the admin role gate.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Post("/positions", h.handleCreate)
	r.Put("/positions/{id}", h.handleUpdate)
	r.Post("/positions/{id}/toggle", h.handleToggle)
}

type positionJSON struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	MinCGPA float64 `json:"min_cgpa"`
	Active  bool    `json:"active"`
}

func toPositionJSON(p Position) positionJSON {
	return positionJSON{ID: p.ID.String(), Name: p.Name, MinCGPA: p.MinCGPA, Active: p.Active}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]positionJSON, 0, len(list))
	for _, p := range list {
		out = append(out, toPositionJSON(p))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"positions": out})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	position, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPositionJSON(position))
}

type positionRequest struct {
	Name    string  `json:"name" validate:"required"`
	MinCGPA float64 `json:"min_cgpa" validate:"gte=0,lte=5"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.Create(r.Context(), req.Name, req.MinCGPA)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toPositionJSON(created))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req positionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	updated, err := h.service.Update(r.Context(), id, req.Name, req.MinCGPA)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPositionJSON(updated))
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	active, err := h.service.Toggle(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"active": active})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid position id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		if h.logger != nil {
			h.logger.Error("positions handler", slog.Any("error", err))
		}
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
