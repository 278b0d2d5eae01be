package handlers

import (
	"errors"
	"net/http"
	"time"

	"adfleet-backend/internal/services"
	"adfleet-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type ArchiveHandler struct {
	archiveService *services.ArchiveService
}

func NewArchiveHandler(archiveService *services.ArchiveService) *ArchiveHandler {
	return &ArchiveHandler{archiveService: archiveService}
}

// TriggerArchive runs an archival pass on demand. An optional ?date=YYYY-MM-DD
// restricts the pass to a single closed day; without it every open record
// dated before today is archived.
func (h *ArchiveHandler) TriggerArchive(c *gin.Context) {
	var result *services.ArchiveResult
	var err error

	if raw := c.Query("date"); raw != "" {
		day, parseErr := time.Parse("2006-01-02", raw)
		if parseErr != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid date parameter", parseErr)
			return
		}
		result, err = h.archiveService.ArchiveDate(day)
	} else {
		result, err = h.archiveService.Run()
	}

	if err != nil {
		if errors.Is(err, services.ErrOpenDay) {
			utils.ErrorResponse(c, http.StatusConflict, "Requested day is still open", err)
			return
		}
		utils.InternalErrorResponse(c, "Archive run failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Archive run completed", result)
}

// GetArchiveStatus reports the last archival pass and the current backlog
func (h *ArchiveHandler) GetArchiveStatus(c *gin.Context) {
	status, err := h.archiveService.Status()
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to read archive status", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Archive status retrieved", status)
}
