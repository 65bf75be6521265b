package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"medibill/internal/domain"
	"medibill/internal/service"
)

// ExtractRequest is the request body for POST /extract-bill-data.
type ExtractRequest struct {
	Document string `json:"document" binding:"required,url"`
}

// ExtractHandler handles bill extraction requests.
type ExtractHandler struct {
	svc service.ExtractionService
}

// NewExtractHandler creates a new ExtractHandler.
func NewExtractHandler(svc service.ExtractionService) *ExtractHandler {
	return &ExtractHandler{svc: svc}
}

// Extract handles POST /extract-bill-data
func (h *ExtractHandler) Extract(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		msg := "document must be a valid URL"
		c.JSON(http.StatusBadRequest, domain.ResponseEnvelope{
			IsSuccess: false,
			Error:     &msg,
		})
		return
	}

	env, err := h.svc.ExtractBillData(c.Request.Context(), req.Document)
	if err != nil {
		status := MapExtractionError(err)
		if status >= 500 {
			requestID, _ := c.Get("request_id")
			log.Printf("[%s] extraction failed: %v", requestID, err)
		}
		c.JSON(status, env)
		return
	}

	c.JSON(http.StatusOK, env)
}
