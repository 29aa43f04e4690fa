package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javedansari81/sunrise-school-management-sub000/internal/service"
	appErrors "github.com/javedansari81/sunrise-school-management-sub000/pkg/errors"
	"github.com/javedansari81/sunrise-school-management-sub000/pkg/response"
)

// ReportHandler exposes rendered fee documents.
type ReportHandler struct {
	service *service.ExportService
}

// NewReportHandler creates a new handler.
func NewReportHandler(svc *service.ExportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// CollectionReport godoc
// @Summary Fee collection report
// @Description Download the payment ledger of a session as CSV or PDF
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param sessionId query string true "Session identifier"
// @Param classId query string false "Class identifier"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /fees/reports/collection [get]
func (h *ReportHandler) CollectionReport(c *gin.Context) {
	format := service.ReportFormat(c.DefaultQuery("format", string(service.ReportFormatCSV)))

	result, err := h.service.CollectionReport(c.Request.Context(), c.Query("sessionId"), c.Query("classId"), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	writeAttachment(c, result)
}

// Receipt godoc
// @Summary Payment receipt
// @Description Download the PDF receipt of a payment transaction
// @Tags Reports
// @Produce application/pdf
// @Param id path string true "Transaction identifier"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /fees/payments/{id}/receipt [get]
func (h *ReportHandler) Receipt(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "transaction id is required"))
		return
	}

	result, err := h.service.Receipt(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	writeAttachment(c, result)
}

func writeAttachment(c *gin.Context, result *service.ExportResult) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
