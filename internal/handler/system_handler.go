package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-admin-api/internal/dto"
	"github.com/noah-isme/school-admin-api/pkg/response"
)

type systemService interface {
	DatabaseStatus(ctx context.Context) (*dto.DatabaseStatus, error)
}

// SystemHandler exposes database diagnostics.
type SystemHandler struct {
	system systemService
}

// NewSystemHandler constructs SystemHandler.
func NewSystemHandler(system systemService) *SystemHandler {
	return &SystemHandler{system: system}
}

// Database godoc
// @Summary Database status
// @Tags System
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /system/database [get]
func (h *SystemHandler) Database(c *gin.Context) {
	status, err := h.system.DatabaseStatus(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}
