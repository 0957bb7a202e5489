package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ecoride/ecoride-core/internal/middleware"
	"github.com/ecoride/ecoride-core/internal/models"
	"github.com/ecoride/ecoride-core/internal/service"
	"github.com/ecoride/ecoride-core/pkg/utils"
	"github.com/go-chi/chi/v5"
)

type RideHandler struct {
	rideService     service.RideService
	matchingService service.MatchingService
	logger          *slog.Logger
}

func NewRideHandler(rideService service.RideService, matchingService service.MatchingService, logger *slog.Logger) *RideHandler {
	return &RideHandler{
		rideService:     rideService,
		matchingService: matchingService,
		logger:          logger,
	}
}

func (h *RideHandler) RegisterRoutes(r chi.Router) {
	r.Post("/rides", h.CreateRide)
	r.Get("/rides/my", h.MyRides)
	r.Get("/rides/match", h.Match)
	r.Get("/rides/{id}", h.GetRide)
	r.Post("/rides/{id}/join", h.JoinRide)
	r.Post("/rides/{id}/leave", h.LeaveRide)
	r.Post("/rides/{id}/participants/{userId}/confirm", h.ConfirmParticipant)
	r.Post("/rides/{id}/complete", h.CompleteRide)
	r.Post("/rides/{id}/cancel", h.CancelRide)
}

// POST /rides
func (h *RideHandler) CreateRide(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRideRequest
	if !decode(w, r, &req) {
		return
	}

	ride, err := h.rideService.CreateRide(r.Context(), middleware.UserID(r.Context()), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	utils.Created(w, ride)
}

// GET /rides/{id}
func (h *RideHandler) GetRide(w http.ResponseWriter, r *http.Request) {
	id, ok := rideID(w, r)
	if !ok {
		return
	}

	ride, err := h.rideService.GetRide(r.Context(), id)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	utils.Success(w, http.StatusOK, ride)
}

// GET /rides/my
func (h *RideHandler) MyRides(w http.ResponseWriter, r *http.Request) {
	rides, err := h.rideService.ListForUser(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	utils.Success(w, http.StatusOK, rides)
}

// GET /rides/match?zone=&destination=&time=
func (h *RideHandler) Match(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	zone := strings.TrimSpace(q.Get("zone"))
	if zone == "" {
		utils.BadRequest(w, "zone is required")
		return
	}

	at := time.Now()
	if raw := q.Get("time"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			utils.BadRequest(w, "time must be an ISO-8601 timestamp")
			return
		}
		at = parsed
	}

	matches, err := h.matchingService.FindMatches(r.Context(), models.MatchQuery{
		RequesterID:   middleware.UserID(r.Context()),
		PickupZone:    zone,
		Destination:   q.Get("destination"),
		RequestedTime: at,
	})
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	utils.Success(w, http.StatusOK, matches)
}

// POST /rides/{id}/join
func (h *RideHandler) JoinRide(w http.ResponseWriter, r *http.Request) {
	id, ok := rideID(w, r)
	if !ok {
		return
	}
	if err := h.rideService.JoinRide(r.Context(), id, middleware.UserID(r.Context())); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	utils.Message(w, "joined ride successfully")
}

// POST /rides/{id}/leave
func (h *RideHandler) LeaveRide(w http.ResponseWriter, r *http.Request) {
	id, ok := rideID(w, r)
	if !ok {
		return
	}
	if err := h.rideService.LeaveRide(r.Context(), id, middleware.UserID(r.Context())); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	utils.Message(w, "left ride")
}

// POST /rides/{id}/participants/{userId}/confirm
func (h *RideHandler) ConfirmParticipant(w http.ResponseWriter, r *http.Request) {
	id, ok := rideID(w, r)
	if !ok {
		return
	}
	userID := chi.URLParam(r, "userId")
	if !utils.IsValidUUID(userID) {
		utils.NotFound(w, "participant")
		return
	}
	if err := h.rideService.ConfirmParticipant(r.Context(), id, middleware.UserID(r.Context()), userID); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	utils.Message(w, "participant confirmed")
}

// POST /rides/{id}/complete
func (h *RideHandler) CompleteRide(w http.ResponseWriter, r *http.Request) {
	id, ok := rideID(w, r)
	if !ok {
		return
	}
	if err := h.rideService.CompleteRide(r.Context(), id, middleware.UserID(r.Context())); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	utils.Message(w, "ride completed")
}

// POST /rides/{id}/cancel
func (h *RideHandler) CancelRide(w http.ResponseWriter, r *http.Request) {
	id, ok := rideID(w, r)
	if !ok {
		return
	}
	if err := h.rideService.CancelRide(r.Context(), id, middleware.UserID(r.Context())); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	utils.Message(w, "ride cancelled")
}

func rideID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if !utils.IsValidUUID(id) {
		utils.NotFound(w, "ride")
		return "", false
	}
	return id, true
}
