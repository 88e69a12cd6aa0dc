package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/opsicle/seatkeep/internal/clock"
	"github.com/opsicle/seatkeep/internal/dispatch"
	"github.com/opsicle/seatkeep/internal/model"
	"github.com/opsicle/seatkeep/internal/waitlist"
)

// WaitlistHandler exposes joining a departure's waitlist and notifying it
// on demand (spec §4.C6.2 is "invoked by C9 or manually"). PromotionWorker
// also calls waitlist.Engine.Promote directly on its own schedule; Notify
// is the same operation reached through the dispatcher for a caller that
// wants it run right now.
type WaitlistHandler struct {
	Waitlist   *waitlist.Engine
	Dispatcher *dispatch.Dispatcher
	Clock      clock.Clock
	BatchCap   int32
}

func NewWaitlistHandler(w *waitlist.Engine, d *dispatch.Dispatcher, c clock.Clock, batchCap int32) *WaitlistHandler {
	return &WaitlistHandler{Waitlist: w, Dispatcher: d, Clock: c, BatchCap: batchCap}
}

type joinWaitlistReq struct {
	DepartureID uuid.UUID `json:"departure_id"`
	CustomerRef string    `json:"customer_ref"`
}

// Join adds a customer to a departure's waitlist.
func (h *WaitlistHandler) Join(c echo.Context) error {
	key := c.Request().Header.Get("Idempotency-Key")
	if key == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Idempotency-Key header is required"})
	}
	var req joinWaitlistReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	status, body, err := h.Dispatcher.Execute(ctx, http.MethodPost, key, req, func(ctx context.Context) (int, any, error) {
		entry, err := h.Waitlist.Join(ctx, req.DepartureID, req.CustomerRef)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusCreated, entry, nil
	})
	return respond(c, status, body, err)
}

type notifyWaitlistReq struct {
	DepartureID uuid.UUID `json:"departure_id"`
}

type notifyWaitlistResp struct {
	ProcessedCount int          `json:"processed_count"`
	HoldsCreated   []model.Hold `json:"holds_created"`
}

// Notify runs one promotion pass for a departure, manufacturing up to
// k := capacity_available short-TTL holds for its oldest unnotified
// waitlist entries and returning exactly which holds were created.
func (h *WaitlistHandler) Notify(c echo.Context) error {
	key := c.Request().Header.Get("Idempotency-Key")
	if key == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Idempotency-Key header is required"})
	}
	var req notifyWaitlistReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	status, body, err := h.Dispatcher.Execute(ctx, http.MethodPost, key, req, func(ctx context.Context) (int, any, error) {
		epoch := h.Clock.Now().Unix()
		results, err := h.Waitlist.Promote(ctx, req.DepartureID, h.BatchCap, epoch)
		if err != nil {
			return 0, nil, err
		}
		holds := make([]model.Hold, 0, len(results))
		for _, r := range results {
			if r.Err == nil && r.Hold != nil {
				holds = append(holds, *r.Hold)
			}
		}
		resp := notifyWaitlistResp{ProcessedCount: len(holds), HoldsCreated: holds}
		return http.StatusOK, resp, nil
	})
	return respond(c, status, body, err)
}
