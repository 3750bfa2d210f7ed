package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vidyalay/school-saas-api/internal/models"
	"github.com/vidyalay/school-saas-api/internal/service"
	appErrors "github.com/vidyalay/school-saas-api/pkg/errors"
	"github.com/vidyalay/school-saas-api/pkg/response"
)

// GradeHandler exposes grade recording endpoints.
type GradeHandler struct {
	service *service.GradeService
}

// NewGradeHandler creates a new handler.
func NewGradeHandler(svc *service.GradeService) *GradeHandler {
	return &GradeHandler{service: svc}
}

// Record godoc
// @Summary Record a grade
// @Description Insert or overwrite the grade for a student, class, subject and term
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body service.RecordGradeRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /secure/records/grades [post]
func (h *GradeHandler) Record(c *gin.Context) {
	var req service.RecordGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid grade payload"))
		return
	}

	grade, err := h.service.Record(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade)
}

// List godoc
// @Summary List grades
// @Description List grades in own school, optionally filtered by student, class or subject
// @Tags Grades
// @Produce json
// @Param student_id query string false "Student ID"
// @Param class_id query string false "Class ID"
// @Param subject query string false "Subject"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /secure/records/grades [get]
func (h *GradeHandler) List(c *gin.Context) {
	filter := models.GradeFilter{
		StudentID: c.Query("student_id"),
		ClassID:   c.Query("class_id"),
		Subject:   c.Query("subject"),
	}

	grades, err := h.service.List(c.Request.Context(), claimsFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades)
}
