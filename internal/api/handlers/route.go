package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"adfleet-backend/internal/registry"
	"adfleet-backend/internal/services"
	"adfleet-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type RouteHandler struct {
	routeService *services.RouteService
}

func NewRouteHandler(routeService *services.RouteService) *RouteHandler {
	return &RouteHandler{routeService: routeService}
}

// GetRoute reconstructs a device's route over a single day or a date range.
// Accepts either ?date=YYYY-MM-DD or ?startDate=...&endDate=..., plus an
// optional ?limit= trimming the returned polyline.
func (h *RouteHandler) GetRoute(c *gin.Context) {
	deviceID := c.Param("deviceId")
	if deviceID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Device ID is required", nil)
		return
	}

	from, to, err := parseDateWindow(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid date parameter", err)
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			utils.ErrorResponse(c, http.StatusBadRequest, "limit must be a non-negative integer", nil)
			return
		}
	}

	result, err := h.routeService.Reconstruct(deviceID, from, to, limit)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrNotRegistered):
			utils.ErrorResponse(c, http.StatusNotFound, "Device is not registered", err)
		case errors.Is(err, services.ErrNoData):
			utils.ErrorResponse(c, http.StatusNotFound, "No tracking data in the requested range", err)
		default:
			utils.InternalErrorResponse(c, "Failed to reconstruct route", err)
		}
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Route retrieved", result)
}

// parseDateWindow resolves the query parameters into a [from, to] window.
// A bare ?date= collapses both ends to the same day. With no parameters the
// window defaults to today.
func parseDateWindow(c *gin.Context) (time.Time, time.Time, error) {
	if raw := c.Query("date"); raw != "" {
		day, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return day, day, nil
	}

	var from, to time.Time
	var err error

	if raw := c.Query("startDate"); raw != "" {
		from, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		from = time.Now().UTC()
	}

	if raw := c.Query("endDate"); raw != "" {
		to, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	if !to.IsZero() && to.Before(from) {
		return time.Time{}, time.Time{}, errors.New("endDate precedes startDate")
	}

	return from, to, nil
}
