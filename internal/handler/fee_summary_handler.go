package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/javedansari81/sunrise-school-management-sub000/internal/models"
	"github.com/javedansari81/sunrise-school-management-sub000/internal/service"
	appErrors "github.com/javedansari81/sunrise-school-management-sub000/pkg/errors"
	"github.com/javedansari81/sunrise-school-management-sub000/pkg/response"
)

// FeeSummaryHandler exposes per-student and bulk fee summaries.
type FeeSummaryHandler struct {
	service *service.FeeSummaryService
}

// NewFeeSummaryHandler creates a new handler.
func NewFeeSummaryHandler(svc *service.FeeSummaryService) *FeeSummaryHandler {
	return &FeeSummaryHandler{service: svc}
}

// StudentSummary godoc
// @Summary Fee summary for one student
// @Description Aggregate fee position of a student for a session with the per-month breakdown
// @Tags Fees
// @Produce json
// @Param studentId path string true "Student identifier"
// @Param sessionId query string true "Session identifier"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /fees/students/{studentId}/summary [get]
func (h *FeeSummaryHandler) StudentSummary(c *gin.Context) {
	studentID := c.Param("studentId")
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "sessionId query parameter is required"))
		return
	}

	summary, err := h.service.Summarize(c.Request.Context(), studentID, sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summary, nil)
}

// ListSummaries godoc
// @Summary List fee summaries
// @Description Paginated fee summaries of active students in a session, optionally narrowed to a class
// @Tags Fees
// @Produce json
// @Param sessionId query string true "Session identifier"
// @Param classId query string false "Class identifier"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /fees/summaries [get]
func (h *FeeSummaryHandler) ListSummaries(c *gin.Context) {
	filter := models.SummaryFilter{
		SessionID: c.Query("sessionId"),
		ClassID:   c.Query("classId"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "pageSize", 20),
	}

	summaries, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summaries, pagination)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
