package handler

import (
	"log/slog"
	"net/http"

	"github.com/ecoride/ecoride-core/internal/middleware"
	"github.com/ecoride/ecoride-core/internal/service"
	"github.com/ecoride/ecoride-core/pkg/utils"
	"github.com/go-chi/chi/v5"
)

// TrustHandler serves trust profiles and ride habit suggestions, the two
// read-only views derived from a user's ride history.
type TrustHandler struct {
	trustService      service.TrustService
	predictionService service.PredictionService
	logger            *slog.Logger
}

func NewTrustHandler(trustService service.TrustService, predictionService service.PredictionService, logger *slog.Logger) *TrustHandler {
	return &TrustHandler{
		trustService:      trustService,
		predictionService: predictionService,
		logger:            logger,
	}
}

func (h *TrustHandler) RegisterRoutes(r chi.Router) {
	r.Get("/trust/{userId}", h.GetProfile)
	r.Get("/prediction/suggestions", h.Suggestions)
}

// GET /trust/{userId}
func (h *TrustHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if !utils.IsValidUUID(userID) {
		utils.NotFound(w, "user")
		return
	}

	profile, err := h.trustService.Profile(r.Context(), userID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	utils.Success(w, http.StatusOK, profile)
}

// GET /prediction/suggestions
func (h *TrustHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	suggestions, err := h.predictionService.Suggestions(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	utils.Success(w, http.StatusOK, suggestions)
}
