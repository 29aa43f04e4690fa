package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javedansari81/sunrise-school-management-sub000/internal/models"
	"github.com/javedansari81/sunrise-school-management-sub000/internal/service"
	"github.com/javedansari81/sunrise-school-management-sub000/pkg/response"
)

// FeeStructureHandler exposes read-only fee structure listings.
type FeeStructureHandler struct {
	service *service.FeeStructureService
}

// NewFeeStructureHandler creates a new handler.
func NewFeeStructureHandler(svc *service.FeeStructureService) *FeeStructureHandler {
	return &FeeStructureHandler{service: svc}
}

// List godoc
// @Summary List fee structures
// @Description Fee structures matching the optional class/session filter
// @Tags Fees
// @Produce json
// @Param sessionId query string false "Session identifier"
// @Param classId query string false "Class identifier"
// @Param active query bool false "Filter by active flag"
// @Success 200 {object} response.Envelope
// @Router /fees/structures [get]
func (h *FeeStructureHandler) List(c *gin.Context) {
	filter := models.FeeStructureFilter{
		SessionID: c.Query("sessionId"),
		ClassID:   c.Query("classId"),
	}
	if raw := c.Query("active"); raw != "" {
		active := raw == "true"
		filter.Active = &active
	}

	structures, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, structures, nil)
}
