package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/opsicle/seatkeep/internal/repository"
)

// DepartureHandler exposes the read-only departure lookup clients need to
// check available capacity before placing a hold.
type DepartureHandler struct {
	Departures *repository.DepartureRepo
}

func NewDepartureHandler(d *repository.DepartureRepo) *DepartureHandler {
	return &DepartureHandler{Departures: d}
}

// Get loads a departure by ID.
func (h *DepartureHandler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid departure id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	d, err := h.Departures.GetByID(ctx, id)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, d)
}
