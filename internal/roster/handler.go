package roster

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/platform/httpx"
)

const maxUploadBytes = 5 << 20

// Handler wires HTTP endpoints for roster management.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the committee roster endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/roster", h.handleUpload)
	r.Get("/roster/size", h.handleSize)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "multipart form with a file field required")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "file field required")
		return
	}
	defer file.Close()

	report, err := h.service.Upload(r.Context(), file, header.Filename)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyFile), errors.Is(err, ErrBadHeader):
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		default:
			if h.logger != nil {
				h.logger.Error("roster upload", slog.Any("error", err))
			}
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		}
		return
	}
	httpx.JSON(w, http.StatusAccepted, report)
}

func (h *Handler) handleSize(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.Size(r.Context())
	if err != nil {
		if h.logger != nil {
			h.logger.Error("roster size", slog.Any("error", err))
		}
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int64{"size": n})
}
