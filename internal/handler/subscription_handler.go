package handler

import (
	"log/slog"
	"net/http"

	"github.com/ecoride/ecoride-core/internal/middleware"
	"github.com/ecoride/ecoride-core/internal/models"
	"github.com/ecoride/ecoride-core/internal/service"
	"github.com/ecoride/ecoride-core/pkg/utils"
	"github.com/go-chi/chi/v5"
)

type SubscriptionHandler struct {
	subscriptionService service.SubscriptionService
	logger              *slog.Logger
}

func NewSubscriptionHandler(subscriptionService service.SubscriptionService, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService, logger: logger}
}

func (h *SubscriptionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/subscription", h.CreatePool)
	r.Get("/subscription/my", h.MyPools)
	r.Post("/subscription/{id}/join", h.JoinPool)
}

// POST /subscription
func (h *SubscriptionHandler) CreatePool(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePoolRequest
	if !decode(w, r, &req) {
		return
	}

	pool, err := h.subscriptionService.CreatePool(r.Context(), middleware.UserID(r.Context()), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	utils.Created(w, pool)
}

// POST /subscription/{id}/join
func (h *SubscriptionHandler) JoinPool(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !utils.IsValidUUID(id) {
		utils.NotFound(w, "subscription pool")
		return
	}

	pool, err := h.subscriptionService.JoinPool(r.Context(), id, middleware.UserID(r.Context()))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	utils.Success(w, http.StatusOK, pool)
}

// GET /subscription/my
func (h *SubscriptionHandler) MyPools(w http.ResponseWriter, r *http.Request) {
	pools, err := h.subscriptionService.MyPools(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	utils.Success(w, http.StatusOK, pools)
}
