package handlers

import (
	"errors"
	"net/http"

	"adfleet-backend/internal/registry"
	"adfleet-backend/internal/services"
	"adfleet-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type TrackingHandler struct {
	ingestService *services.IngestService
	validator     *validator.Validate
}

func NewTrackingHandler(ingestService *services.IngestService) *TrackingHandler {
	return &TrackingHandler{
		ingestService: ingestService,
		validator:     validator.New(),
	}
}

// UpdateLocation ingests a GPS fix from a tablet
func (h *TrackingHandler) UpdateLocation(c *gin.Context) {
	var req services.LocationUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	result, err := h.ingestService.HandleLocation(&req)
	if err != nil {
		h.ingestError(c, "Failed to record location", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Location recorded", result)
}

// UpdateStatus ingests a tablet's online/offline report
func (h *TrackingHandler) UpdateStatus(c *gin.Context) {
	var req services.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	result, err := h.ingestService.HandleStatus(&req)
	if err != nil {
		h.ingestError(c, "Failed to update status", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Status updated", result)
}

// RecordAdPlayback ingests an ad playback event
func (h *TrackingHandler) RecordAdPlayback(c *gin.Context) {
	var req services.AdPlaybackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	result, err := h.ingestService.HandleAdPlayback(&req)
	if err != nil {
		h.ingestError(c, "Failed to record ad playback", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Ad playback recorded", result)
}

// RecordQRScan ingests a QR scan event
func (h *TrackingHandler) RecordQRScan(c *gin.Context) {
	var req services.QRScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	result, err := h.ingestService.HandleQRScan(&req)
	if err != nil {
		h.ingestError(c, "Failed to record QR scan", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "QR scan recorded", result)
}

// GetVehicleStatus returns the consolidated open-day record for a vehicle-group
func (h *TrackingHandler) GetVehicleStatus(c *gin.Context) {
	materialID := c.Param("materialId")
	if materialID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Material ID is required", nil)
		return
	}

	record, err := h.ingestService.GetVehicleStatus(materialID)
	if err != nil {
		if errors.Is(err, services.ErrNoData) {
			utils.ErrorResponse(c, http.StatusNotFound, "No tracking data for material", err)
			return
		}
		utils.InternalErrorResponse(c, "Failed to retrieve vehicle status", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Vehicle status retrieved", record)
}

func (h *TrackingHandler) ingestError(c *gin.Context, message string, err error) {
	switch {
	case errors.Is(err, registry.ErrNotRegistered):
		utils.ErrorResponse(c, http.StatusNotFound, "Device is not registered", err)
	case errors.Is(err, services.ErrInvalidMaterialID):
		utils.ErrorResponse(c, http.StatusBadRequest, "Material ID looks like a device ID", err)
	default:
		utils.InternalErrorResponse(c, message, err)
	}
}
