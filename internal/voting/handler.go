package voting

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/platform/httpx"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/shared"
)

// VoteCounter increments the cast-vote metric.
type VoteCounter interface {
	CountVote()
}

// Handler wires HTTP endpoints for the voting window, registration,
// ballots and results.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	counter   VoteCounter
	validator *validator.Validate
}

// NewHandler constructs a Handler instance. counter may be nil.
func NewHandler(logger *slog.Logger, service *Service, counter VoteCounter) *Handler {
	return &Handler{logger: logger, service: service, counter: counter, validator: validator.New()}
}

// MountVoterRoutes registers the endpoints any signed-in student may use.
func (h *Handler) MountVoterRoutes(r chi.Router) {
	r.Post("/voters/register", h.handleRegister)
	r.Post("/elections/{id}/votes", h.handleCastVote)
	r.Get("/elections/{id}/results", h.handlePublishedResults)
	r.Get("/timeline", h.handleTimeline)
}

// MountAdminRoutes registers the committee endpoints. The caller wraps them
// in the admin role gate.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Post("/elections", h.handleCreateElection)
	r.Get("/elections/{id}", h.handleGetElection)
	r.Post("/elections/{id}/start", h.handleStart)
	r.Post("/elections/{id}/pause", h.handlePause)
	r.Post("/elections/{id}/resume", h.handleResume)
	r.Post("/elections/{id}/close", h.handleClose)
	r.Post("/elections/{id}/publish", h.handlePublish)
	r.Get("/elections/{id}/tally", h.handleTally)
	r.Post("/timeline", h.handleCreateTimeline)
	r.Put("/timeline/{id}", h.handleUpdateTimeline)
	r.Post("/timeline/{id}/toggle", h.handleToggleTimeline)
}

type createElectionRequest struct {
	Name string `json:"name" validate:"required"`
}

type electionJSON struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phase string `json:"phase"`
}

func toElectionJSON(e Election) electionJSON {
	return electionJSON{ID: e.ID.String(), Name: e.Name, Phase: string(e.Phase)}
}

func (h *Handler) handleCreateElection(w http.ResponseWriter, r *http.Request) {
	var req createElectionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.CreateElection(r.Context(), req.Name)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toElectionJSON(created))
}

func (h *Handler) handleGetElection(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	election, err := h.service.GetElection(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toElectionJSON(election))
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Start, PhaseOpen)
}

func (h *Handler) handlePause(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Pause, PhasePaused)
}

func (h *Handler) handleResume(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Resume, PhaseOpen)
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Close, PhaseClosed)
}

func (h *Handler) handlePublish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.PublishResults, PhasePublished)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id uuid.UUID) error, to Phase) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := fn(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"phase": string(to)})
}

type registerRequest struct {
	MatricNumber string `json:"matric_number" validate:"required"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	userID, ok := h.sessionUserID(w, r)
	if !ok {
		return
	}
	voter, err := h.service.Register(r.Context(), req.MatricNumber, userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"voter_id":      voter.ID.String(),
		"matric_number": voter.MatricNumber,
		"registered":    true,
	})
}

type castVoteRequest struct {
	VoterID     string `json:"voter_id" validate:"required,uuid"`
	PositionID  string `json:"position_id" validate:"required,uuid"`
	CandidateID string `json:"candidate_id" validate:"required,uuid"`
}

func (h *Handler) handleCastVote(w http.ResponseWriter, r *http.Request) {
	electionID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	userID, ok := h.sessionUserID(w, r)
	if !ok {
		return
	}
	var req castVoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	voterID, _ := uuid.Parse(req.VoterID)
	positionID, _ := uuid.Parse(req.PositionID)
	candidateID, _ := uuid.Parse(req.CandidateID)
	vote, err := h.service.CastVote(r.Context(), electionID, userID, voterID, positionID, candidateID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if h.counter != nil {
		h.counter.CountVote()
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{
		"vote_id": vote.ID.String(),
		"cast_at": time.Now().UTC().Format(time.RFC3339),
	})
}

type tallyJSON struct {
	PositionID    string `json:"position_id"`
	PositionName  string `json:"position_name"`
	CandidateID   string `json:"candidate_id"`
	CandidateName string `json:"candidate_name"`
	Votes         int64  `json:"votes"`
}

func toTallyJSON(tallies []Tally) []tallyJSON {
	out := make([]tallyJSON, 0, len(tallies))
	for _, t := range tallies {
		out = append(out, tallyJSON{
			PositionID:    t.PositionID.String(),
			PositionName:  t.PositionName,
			CandidateID:   t.CandidateID.String(),
			CandidateName: t.CandidateName,
			Votes:         t.Votes,
		})
	}
	return out
}

func (h *Handler) handleTally(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	tallies, err := h.service.Results(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tallies": toTallyJSON(tallies)})
}

func (h *Handler) handlePublishedResults(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	tallies, err := h.service.PublishedResults(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tallies": toTallyJSON(tallies)})
}

type timelineRequest struct {
	Label    string    `json:"label" validate:"required"`
	StartsAt time.Time `json:"starts_at" validate:"required"`
	EndsAt   time.Time `json:"ends_at" validate:"required"`
}

type timelineJSON struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	Active   bool      `json:"active"`
}

func toTimelineJSON(e TimelineEntry) timelineJSON {
	return timelineJSON{
		ID:       e.ID.String(),
		Label:    e.Label,
		StartsAt: e.StartsAt,
		EndsAt:   e.EndsAt,
		Active:   e.Active,
	}
}

func (h *Handler) handleCreateTimeline(w http.ResponseWriter, r *http.Request) {
	var req timelineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	entry, err := h.service.CreateTimelineEntry(r.Context(), req.Label, req.StartsAt, req.EndsAt)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toTimelineJSON(entry))
}

func (h *Handler) handleUpdateTimeline(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req timelineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	entry, err := h.service.UpdateTimelineEntry(r.Context(), id, req.Label, req.StartsAt, req.EndsAt)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTimelineJSON(entry))
}

func (h *Handler) handleToggleTimeline(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	active, err := h.service.ToggleTimelineEntry(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"active": active})
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Timeline(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]timelineJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, toTimelineJSON(e))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"timeline": out})
}

func (h *Handler) sessionUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.User() == "" {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
		return 0, false
	}
	userID, err := strconv.ParseInt(sess.User(), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid session")
		return 0, false
	}
	return userID, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrPhase):
		httpx.Problem(w, http.StatusConflict, "Invalid Phase", err.Error())
	case errors.Is(err, ErrAlreadyVoted):
		httpx.Problem(w, http.StatusConflict, "Already Voted", err.Error())
	case errors.Is(err, ErrAlreadyRegistered):
		httpx.Problem(w, http.StatusConflict, "Already Registered", err.Error())
	case errors.Is(err, ErrVoterMismatch):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrNotRegistered), errors.Is(err, ErrNotOnBallot):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Not Eligible", err.Error())
	case errors.Is(err, ErrNotOnRoster):
		httpx.Problem(w, http.StatusNotFound, "Not On Roster", err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		if h.logger != nil {
			h.logger.Error("voting handler", slog.Any("error", err))
		}
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
