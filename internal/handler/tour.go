package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/opsicle/seatkeep/internal/repository"
)

// TourHandler exposes the read-only tour lookup supplemented from
// original_source; tour creation and listing stay out of scope.
type TourHandler struct {
	Tours *repository.TourRepo
}

func NewTourHandler(t *repository.TourRepo) *TourHandler {
	return &TourHandler{Tours: t}
}

// Get loads a tour by ID.
func (h *TourHandler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tour id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tours.GetByID(ctx, id)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, t)
}
