package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/opsicle/seatkeep/internal/worker"
)

// Health is a plain liveness check that always returns an unconditional 200.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// staleAfter is how long a worker can go without a successful tick before
// readiness reports it unhealthy.
const staleAfter = 2 * time.Minute

// ReadinessHandler extends health with background worker liveness, since
// readiness here depends on the expiry and promotion workers actually
// running, not just the HTTP server accepting connections.
type ReadinessHandler struct {
	Expiry    *worker.Heartbeat
	Promotion *worker.Heartbeat
}

func NewReadinessHandler(expiry, promotion *worker.Heartbeat) *ReadinessHandler {
	return &ReadinessHandler{Expiry: expiry, Promotion: promotion}
}

// Ready reports 200 when both workers have ticked recently, 503 otherwise.
func (h *ReadinessHandler) Ready(c echo.Context) error {
	now := time.Now().UTC()
	expiryOK := now.Sub(h.Expiry.LastTick()) < staleAfter
	promotionOK := now.Sub(h.Promotion.LastTick()) < staleAfter

	status := http.StatusOK
	if !expiryOK || !promotionOK {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, echo.Map{
		"expiry_worker_ok":    expiryOK,
		"promotion_worker_ok": promotionOK,
		"expiry_last_tick":    h.Expiry.LastTick(),
		"promotion_last_tick": h.Promotion.LastTick(),
	})
}
