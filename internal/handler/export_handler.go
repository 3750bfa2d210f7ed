package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vidyalay/school-saas-api/internal/service"
	"github.com/vidyalay/school-saas-api/pkg/response"
)

// ExportHandler serves roster and report card downloads.
type ExportHandler struct {
	service *service.RosterExportService
}

// NewExportHandler creates a new handler.
func NewExportHandler(svc *service.RosterExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// ClassRoster godoc
// @Summary Download a class roster as CSV
// @Tags Exports
// @Produce text/csv
// @Param id path string true "Class ID"
// @Success 200 {file} byte
// @Failure 404 {object} response.Envelope
// @Router /secure/admin/classes/{id}/roster.csv [get]
func (h *ExportHandler) ClassRoster(c *gin.Context) {
	data, filename, err := h.service.ClassRosterCSV(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv", data)
}

// StudentReport godoc
// @Summary Download a student report card as PDF
// @Tags Exports
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Success 200 {file} byte
// @Failure 404 {object} response.Envelope
// @Router /secure/admin/students/{id}/report.pdf [get]
func (h *ExportHandler) StudentReport(c *gin.Context) {
	data, filename, err := h.service.StudentReportPDF(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
