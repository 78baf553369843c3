package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/po-tati-x/potatix-sub004/internal/http/response"
	"github.com/po-tati-x/potatix-sub004/internal/pkg/dbctx"
	"github.com/po-tati-x/potatix-sub004/internal/services"
)

type EnrichmentHandler struct {
	enrichment services.EnrichmentService
}

func NewEnrichmentHandler(enrichment services.EnrichmentService) *EnrichmentHandler {
	return &EnrichmentHandler{enrichment: enrichment}
}

// GET /api/lessons/:id/chapters
//
// Served without an enrollment check; gating lesson visibility is the course
// layer's job.
func (h *EnrichmentHandler) GetChapters(c *gin.Context) {
	lessonID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_failed", fmt.Errorf("invalid lesson id"))
		return
	}

	data, err := h.enrichment.GetOrGenerateChapters(dbctx.Context{Ctx: c.Request.Context()}, lessonID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"language":     data.Language,
		"chapters":     data.Chapters,
		"generated_at": data.GeneratedAt,
	})
}
