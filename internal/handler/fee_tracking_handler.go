package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javedansari81/sunrise-school-management-sub000/internal/service"
	appErrors "github.com/javedansari81/sunrise-school-management-sub000/pkg/errors"
	"github.com/javedansari81/sunrise-school-management-sub000/pkg/response"
)

// FeeTrackingHandler exposes batch fee tracking enablement.
type FeeTrackingHandler struct {
	service *service.FeeTrackingService
}

// NewFeeTrackingHandler creates a new handler.
func NewFeeTrackingHandler(svc *service.FeeTrackingService) *FeeTrackingHandler {
	return &FeeTrackingHandler{service: svc}
}

// EnableTracking godoc
// @Summary Enable monthly fee tracking
// @Description Enable monthly fee tracking for a batch of students. Each student is processed independently; per-student failures are reported in the result list.
// @Tags Fees
// @Accept json
// @Produce json
// @Param payload body service.EnableTrackingRequest true "Enablement payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /fees/tracking/enable [post]
func (h *FeeTrackingHandler) EnableTracking(c *gin.Context) {
	var req service.EnableTrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid enable tracking payload"))
		return
	}

	results, err := h.service.EnableTracking(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	meta := map[string]interface{}{
		"total":     len(results),
		"succeeded": succeeded,
		"failed":    len(results) - succeeded,
	}

	response.JSON(c, http.StatusOK, results, nil, meta)
}
