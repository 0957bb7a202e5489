package handler

import (
	"log/slog"
	"net/http"

	"github.com/ecoride/ecoride-core/internal/middleware"
	"github.com/ecoride/ecoride-core/internal/service"
	"github.com/ecoride/ecoride-core/pkg/utils"
	"github.com/go-chi/chi/v5"
)

type WalletHandler struct {
	ledgerService service.LedgerService
	logger        *slog.Logger
}

func NewWalletHandler(ledgerService service.LedgerService, logger *slog.Logger) *WalletHandler {
	return &WalletHandler{ledgerService: ledgerService, logger: logger}
}

func (h *WalletHandler) RegisterRoutes(r chi.Router) {
	r.Get("/wallet", h.GetWallet)
	r.Get("/wallet/campus-summary", h.CampusSummary)
}

// GET /wallet
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.ledgerService.WalletFor(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	utils.Success(w, http.StatusOK, wallet)
}

// GET /wallet/campus-summary
func (h *WalletHandler) CampusSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.ledgerService.CampusSummary(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	utils.Success(w, http.StatusOK, summary)
}
