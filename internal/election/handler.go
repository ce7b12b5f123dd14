package election

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/platform/httpx"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/positions"
)

// Handler wires HTTP endpoints for the aspirant lifecycle.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountDeclareRoutes registers the endpoints any signed-in student may use.
func (h *Handler) MountDeclareRoutes(r chi.Router) {
	r.Post("/aspirants", h.handleDeclare)
	r.Post("/eligibility/check", h.handleEligibilityCheck)
}

// MountPublicRoutes registers the candidate directory.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Get("/candidates", h.handleCandidates)
}

// MountAdminRoutes registers the committee endpoints. The caller wraps them
// in the admin role gate.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/aspirants", h.handleList)
	r.Get("/aspirants/{id}", h.handleGet)
	r.Post("/aspirants/{id}/review", h.handleReview)
	r.Post("/aspirants/{id}/verify-payment", h.handleVerifyPayment)
	r.Post("/aspirants/{id}/screening", h.handleScheduleScreening)
	r.Post("/aspirants/{id}/screening/complete", h.handleCompleteScreening)
	r.Post("/aspirants/{id}/promote", h.handlePromote)
	r.Post("/aspirants/{id}/disqualify", h.handleDisqualify)
	r.Post("/candidates", h.handleAddCandidate)
	r.Put("/candidates/{id}", h.handleEditCandidate)
	r.Delete("/candidates/{id}", h.handleDeleteCandidate)
}

type declareRequest struct {
	UserID       int64   `json:"user_id" validate:"required"`
	FullName     string  `json:"full_name" validate:"required"`
	MatricNumber string  `json:"matric_number" validate:"required"`
	Department   string  `json:"department" validate:"required"`
	PositionID   string  `json:"position_id" validate:"required,uuid"`
	CGPA         float64 `json:"cgpa" validate:"required,gte=2,lte=5"`
}

type aspirantJSON struct {
	ID               string     `json:"id"`
	FullName         string     `json:"full_name"`
	MatricNumber     string     `json:"matric_number"`
	Department       string     `json:"department"`
	DepartmentCode   string     `json:"department_code"`
	PositionID       string     `json:"position_id"`
	CGPA             float64    `json:"cgpa"`
	State            string     `json:"state"`
	Public           bool       `json:"public"`
	PaymentVerified  bool       `json:"payment_verified"`
	ScreeningSlot    *time.Time `json:"screening_slot,omitempty"`
	ScreeningOutcome string     `json:"screening_outcome,omitempty"`
	DisqualifyReason string     `json:"disqualify_reason,omitempty"`
	Manifesto        string     `json:"manifesto,omitempty"`
	PhotoURL         string     `json:"photo_url,omitempty"`
}

func toAspirantJSON(a Aspirant) aspirantJSON {
	return aspirantJSON{
		ID:               a.ID.String(),
		FullName:         a.FullName,
		MatricNumber:     a.MatricNumber,
		Department:       string(a.Department),
		DepartmentCode:   a.Department.Code(),
		PositionID:       a.PositionID.String(),
		CGPA:             a.CGPA,
		State:            string(a.State),
		Public:           a.Public,
		PaymentVerified:  a.PaymentVerified,
		ScreeningSlot:    a.ScreeningSlot,
		ScreeningOutcome: string(a.ScreeningOutcome),
		DisqualifyReason: a.DisqualifyReason,
		Manifesto:        a.Manifesto,
		PhotoURL:         a.PhotoURL,
	}
}

func (h *Handler) handleDeclare(w http.ResponseWriter, r *http.Request) {
	var req declareRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	positionID, err := uuid.Parse(req.PositionID)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid position id")
		return
	}
	created, err := h.service.Declare(r.Context(), DeclareInput{
		UserID:       req.UserID,
		FullName:     req.FullName,
		MatricNumber: req.MatricNumber,
		Department:   Department(req.Department),
		PositionID:   positionID,
		CGPA:         req.CGPA,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toAspirantJSON(created))
}

type eligibilityRequest struct {
	DeclaredCGPA float64 `json:"declared_cgpa" validate:"required,gte=2,lte=5"`
	MinimumCGPA  float64 `json:"minimum_cgpa" validate:"gte=0"`
}

func (h *Handler) handleEligibilityCheck(w http.ResponseWriter, r *http.Request) {
	var req eligibilityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	verdict := MeetsRequirement(req.DeclaredCGPA, req.MinimumCGPA)
	httpx.JSON(w, http.StatusOK, map[string]string{"verdict": verdict.String()})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	aspirants, err := h.service.List(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]aspirantJSON, 0, len(aspirants))
	for _, a := range aspirants {
		out = append(out, toAspirantJSON(a))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"aspirants": out})
}

func (h *Handler) handleCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.service.ListCandidates(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]aspirantJSON, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, toAspirantJSON(c))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"candidates": out})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	asp, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toAspirantJSON(asp))
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Review(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"state": string(StateUnderReview)})
}

func (h *Handler) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.VerifyPayment(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"payment_verified": true})
}

type scheduleRequest struct {
	Slot time.Time `json:"slot" validate:"required"`
}

func (h *Handler) handleScheduleScreening(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req scheduleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.ScheduleScreening(r.Context(), id, req.Slot); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"slot": req.Slot.UTC().Format(time.RFC3339)})
}

type completeScreeningRequest struct {
	Outcome string `json:"outcome" validate:"required,oneof=PASSED FAILED"`
}

func (h *Handler) handleCompleteScreening(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req completeScreeningRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.CompleteScreening(r.Context(), id, ScreeningOutcome(req.Outcome)); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"outcome": req.Outcome})
}

type promoteRequest struct {
	Confirm      bool   `json:"confirm"`
	MatricNumber string `json:"matric_number"`
}

func (h *Handler) handlePromote(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req promoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	// Promotion is one-way; require the confirmation step to echo the
	// aspirant summary before the controller runs.
	asp, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if !req.Confirm || req.MatricNumber != asp.MatricNumber {
		httpx.JSON(w, http.StatusPreconditionRequired, map[string]any{
			"confirm_required": true,
			"summary": map[string]string{
				"full_name":     asp.FullName,
				"matric_number": asp.MatricNumber,
				"department":    string(asp.Department),
				"position_id":   asp.PositionID.String(),
			},
		})
		return
	}
	promoted, err := h.service.Promote(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toAspirantJSON(promoted))
}

type disqualifyRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (h *Handler) handleDisqualify(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req disqualifyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.Disqualify(r.Context(), id, req.Reason); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"state": string(StateDisqualified)})
}

func (h *Handler) handleAddCandidate(w http.ResponseWriter, r *http.Request) {
	var req declareRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	positionID, err := uuid.Parse(req.PositionID)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid position id")
		return
	}
	candidate, err := h.service.AddCandidate(r.Context(), DeclareInput{
		UserID:       req.UserID,
		FullName:     req.FullName,
		MatricNumber: req.MatricNumber,
		Department:   Department(req.Department),
		PositionID:   positionID,
		CGPA:         req.CGPA,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toAspirantJSON(candidate))
}

type editCandidateRequest struct {
	Manifesto string `json:"manifesto"`
	PhotoURL  string `json:"photo_url" validate:"omitempty,url"`
}

func (h *Handler) handleEditCandidate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req editCandidateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.UpdateCandidateProfile(r.Context(), id, req.Manifesto, req.PhotoURL); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) handleDeleteCandidate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.RemoveCandidate(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid aspirant id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var ineligible *IneligibleError
	switch {
	case errors.As(err, &ineligible):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Ineligible",
			"CGPA below minimum requirement")
	case errors.Is(err, ErrInvalidState):
		httpx.Problem(w, http.StatusConflict, "Invalid State", err.Error())
	case errors.Is(err, ErrNotFound), errors.Is(err, positions.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		if h.logger != nil {
			h.logger.Error("election handler", slog.Any("error", err))
		}
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
