package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vidyalay/school-saas-api/internal/service"
	"github.com/vidyalay/school-saas-api/pkg/response"
)

// PickerHandler serves lightweight id/name lists for form dropdowns.
type PickerHandler struct {
	service *service.PickerService
	metrics *service.MetricsService
}

// NewPickerHandler creates a new handler.
func NewPickerHandler(svc *service.PickerService, metrics *service.MetricsService) *PickerHandler {
	return &PickerHandler{service: svc, metrics: metrics}
}

// Teachers godoc
// @Summary List teacher picker entries
// @Tags Pickers
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /secure/admin/teachers-list [get]
func (h *PickerHandler) Teachers(c *gin.Context) {
	refs, hit, err := h.service.Teachers(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordCacheOperation(hit)
	response.JSON(c, http.StatusOK, refs, map[string]interface{}{"cache_hit": hit})
}

// Classes godoc
// @Summary List class picker entries
// @Tags Pickers
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /secure/admin/classes-list [get]
func (h *PickerHandler) Classes(c *gin.Context) {
	refs, hit, err := h.service.Classes(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordCacheOperation(hit)
	response.JSON(c, http.StatusOK, refs, map[string]interface{}{"cache_hit": hit})
}
