package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskdeck/internal/services"
)

type ReportHandler struct {
	Service *services.ReportService
}

func NewReportHandler(service *services.ReportService) *ReportHandler {
	return &ReportHandler{Service: service}
}

func (h *ReportHandler) GetSummary(c *gin.Context) {
	data, err := h.Service.GetSummary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *ReportHandler) ExportPDF(c *gin.Context) {
	path, err := h.Service.ExportPDF(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.FileAttachment(path, "tasks.pdf")
}
