package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/opsicle/seatkeep/internal/booking"
	"github.com/opsicle/seatkeep/internal/capacity"
	"github.com/opsicle/seatkeep/internal/dispatch"
	"github.com/opsicle/seatkeep/internal/model"
	"github.com/opsicle/seatkeep/internal/problem"
	"github.com/opsicle/seatkeep/internal/repository"
	"github.com/opsicle/seatkeep/internal/service"
)

// BookingHandler exposes the hold/confirm/cancel lifecycle, wrapping every
// mutating call behind the idempotency dispatcher so retried requests never
// double-book or double-cancel.
type BookingHandler struct {
	Capacity   *capacity.Engine
	Bookings   *booking.Engine
	Dispatcher *dispatch.Dispatcher
	Publisher  *service.EventPublisher
}

func NewBookingHandler(cap *capacity.Engine, b *booking.Engine, d *dispatch.Dispatcher, p *service.EventPublisher) *BookingHandler {
	return &BookingHandler{Capacity: cap, Bookings: b, Dispatcher: d, Publisher: p}
}

type createHoldReq struct {
	DepartureID uuid.UUID `json:"departure_id"`
	Seats       int32     `json:"seats"`
	CustomerRef string    `json:"customer_ref"`
	TTLSeconds  int64     `json:"ttl_seconds"`
}

// CreateHold places a hold against a departure's available capacity.
// Requires an Idempotency-Key header so a retried request replays instead
// of placing a second hold.
func (h *BookingHandler) CreateHold(c echo.Context) error {
	key := c.Request().Header.Get("Idempotency-Key")
	if key == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Idempotency-Key header is required"})
	}
	var req createHoldReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	status, body, err := h.Dispatcher.Execute(ctx, http.MethodPost, key, req, func(ctx context.Context) (int, any, error) {
		hold, err := h.Capacity.CreateHold(ctx, capacity.CreateHoldInput{
			DepartureID:    req.DepartureID,
			Seats:          req.Seats,
			CustomerRef:    req.CustomerRef,
			IdempotencyKey: key,
			TTL:            time.Duration(req.TTLSeconds) * time.Second,
		})
		if err != nil {
			return 0, nil, err
		}
		return http.StatusCreated, hold, nil
	})
	return respond(c, status, body, err)
}

type confirmHoldReq struct {
	HoldID uuid.UUID `json:"hold_id"`
}

// Confirm turns an ACTIVE hold into a CONFIRMED booking.
func (h *BookingHandler) Confirm(c echo.Context) error {
	key := c.Request().Header.Get("Idempotency-Key")
	if key == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Idempotency-Key header is required"})
	}
	var req confirmHoldReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	status, body, err := h.Dispatcher.Execute(ctx, http.MethodPost, key, req, func(ctx context.Context) (int, any, error) {
		b, err := h.Bookings.Confirm(ctx, req.HoldID)
		if err != nil {
			return 0, nil, err
		}
		if h.Publisher != nil && b.Status == model.BookingConfirmed {
			if pubErr := h.Publisher.PublishBookingConfirmed(b.ID, b.HoldID, b.DepartureID, b.Code, b.Seats, b.CustomerRef); pubErr != nil {
				log.Printf("booking handler: publish booking confirmed failed: %v", pubErr)
			}
		}
		return http.StatusOK, b, nil
	})
	return respond(c, status, body, err)
}

type cancelBookingReq struct {
	BookingID uuid.UUID `json:"booking_id"`
}

// Cancel reverses a CONFIRMED booking and restores its seats.
func (h *BookingHandler) Cancel(c echo.Context) error {
	key := c.Request().Header.Get("Idempotency-Key")
	if key == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Idempotency-Key header is required"})
	}
	var req cancelBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	status, body, err := h.Dispatcher.Execute(ctx, http.MethodPost, key, req, func(ctx context.Context) (int, any, error) {
		b, err := h.Bookings.Cancel(ctx, req.BookingID)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, b, nil
	})
	return respond(c, status, body, err)
}

// Get loads a booking by ID. Read-only, no idempotency key required.
func (h *BookingHandler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := h.Bookings.Get(ctx, id)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// respond writes a dispatcher result, translating a domain error into a
// problem-details envelope when one is present.
func respond(c echo.Context, status int, body []byte, err error) error {
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSONBlob(status, body)
}

// writeErr maps repository/problem sentinel errors to HTTP responses.
func writeErr(c echo.Context, err error) error {
	if pe, ok := problem.As(err); ok {
		return c.JSON(pe.Status, pe.Details)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
