package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/opsicle/seatkeep/internal/dispatch"
	"github.com/opsicle/seatkeep/internal/inventory"
)

// InventoryHandler exposes the operator-only capacity-adjustment endpoint.
// Callers reach this behind JWTAuth + RequireRole(ADMIN, OPERATOR).
type InventoryHandler struct {
	Inventory  *inventory.Engine
	Dispatcher *dispatch.Dispatcher
}

func NewInventoryHandler(inv *inventory.Engine, d *dispatch.Dispatcher) *InventoryHandler {
	return &InventoryHandler{Inventory: inv, Dispatcher: d}
}

type adjustInventoryReq struct {
	DepartureID uuid.UUID `json:"departure_id"`
	Delta       int32     `json:"delta"`
	Reason      string    `json:"reason"`
}

// Adjust changes a departure's capacity_total, recording an audit row.
// Actor is taken from the authenticated operator, never the request body.
func (h *InventoryHandler) Adjust(c echo.Context) error {
	key := c.Request().Header.Get("Idempotency-Key")
	if key == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Idempotency-Key header is required"})
	}
	var req adjustInventoryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	actor, _ := c.Get("user_id").(string)
	if actor == "" {
		actor = "unknown"
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	status, body, err := h.Dispatcher.Execute(ctx, http.MethodPost, key, req, func(ctx context.Context) (int, any, error) {
		record, err := h.Inventory.Adjust(ctx, inventory.AdjustInput{
			DepartureID: req.DepartureID,
			Delta:       req.Delta,
			Reason:      req.Reason,
			Actor:       actor,
		})
		if err != nil {
			return 0, nil, err
		}
		return http.StatusCreated, record, nil
	})
	return respond(c, status, body, err)
}
