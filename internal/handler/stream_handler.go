package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ecoride/ecoride-core/internal/events"
	"github.com/ecoride/ecoride-core/internal/repository"
	"github.com/ecoride/ecoride-core/pkg/utils"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

const (
	streamHeartbeat = 15 * time.Second
	streamBuffer    = 16
)

// StreamHandler pushes ride lifecycle events to browsers over SSE. It is
// itself an events.Publisher for single-instance setups; with Redis, Listen
// feeds it from the shared channel instead.
type StreamHandler struct {
	rideRepo repository.RideRepository
	logger   *slog.Logger

	mu      sync.RWMutex
	clients map[string]map[chan []byte]struct{} // ride id -> subscribers
}

func NewStreamHandler(rideRepo repository.RideRepository, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{
		rideRepo: rideRepo,
		logger:   logger,
		clients:  make(map[string]map[chan []byte]struct{}),
	}
}

func (h *StreamHandler) RegisterRoutes(r chi.Router) {
	r.Get("/rides/{id}/stream", h.Stream)
}

// GET /rides/{id}/stream
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	rideID := chi.URLParam(r, "id")
	if !utils.IsValidUUID(rideID) {
		utils.NotFound(w, "ride")
		return
	}
	ride, err := h.rideRepo.GetByID(r.Context(), rideID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	if ride == nil {
		utils.NotFound(w, "ride")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.InternalError(w, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ch := h.subscribe(rideID)
	defer h.unsubscribe(rideID, ch)

	// Current state first so the client never starts blind.
	snapshot, _ := json.Marshal(events.RideEvent{
		Type:           "ride.snapshot",
		RideID:         ride.ID,
		Status:         ride.Status,
		AvailableSeats: ride.AvailableSeats,
		OccurredAt:     time.Now().UTC(),
	})
	fmt.Fprintf(w, "event: ride\ndata: %s\n\n", snapshot)
	flusher.Flush()

	ticker := time.NewTicker(streamHeartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg := <-ch:
			fmt.Fprintf(w, "event: ride\ndata: %s\n\n", msg)
			flusher.Flush()
		case t := <-ticker.C:
			fmt.Fprintf(w, "event: heartbeat\ndata: {\"time\":%q}\n\n", t.UTC().Format(time.RFC3339))
			flusher.Flush()
		}
	}
}

// Publish delivers the event to subscribers connected to this instance.
func (h *StreamHandler) Publish(ctx context.Context, event events.RideEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	h.broadcast(event.RideID, data)
	return nil
}

func (h *StreamHandler) Close() error { return nil }

// Listen relays events.RideUpdatesChannel to local subscribers until ctx ends.
func (h *StreamHandler) Listen(ctx context.Context, client *redis.Client) {
	pubsub := client.Subscribe(ctx, events.RideUpdatesChannel)
	defer pubsub.Close()

	msgs := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var event events.RideEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				h.logger.Warn("dropping malformed ride event", "error", err)
				continue
			}
			h.broadcast(event.RideID, []byte(msg.Payload))
		}
	}
}

func (h *StreamHandler) subscribe(rideID string) chan []byte {
	ch := make(chan []byte, streamBuffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[rideID] == nil {
		h.clients[rideID] = make(map[chan []byte]struct{})
	}
	h.clients[rideID][ch] = struct{}{}
	return ch
}

func (h *StreamHandler) unsubscribe(rideID string, ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.clients[rideID]; ok {
		delete(subs, ch)
		if len(subs) == 0 {
			delete(h.clients, rideID)
		}
	}
}

func (h *StreamHandler) broadcast(rideID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.clients[rideID] {
		select {
		case ch <- data:
		default:
			// Slow client; it will catch up from the next event.
		}
	}
}
