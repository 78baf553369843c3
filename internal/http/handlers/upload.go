package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/po-tati-x/potatix-sub004/internal/domain"
	"github.com/po-tati-x/potatix-sub004/internal/http/response"
	"github.com/po-tati-x/potatix-sub004/internal/pkg/dbctx"
	"github.com/po-tati-x/potatix-sub004/internal/services"
)

type UploadHandler struct {
	uploads  services.UploadService
	progress services.ProgressService
}

func NewUploadHandler(uploads services.UploadService, progress services.ProgressService) *UploadHandler {
	return &UploadHandler{uploads: uploads, progress: progress}
}

func (h *UploadHandler) lessonID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_failed", fmt.Errorf("invalid lesson id"))
		return uuid.Nil, false
	}
	return id, true
}

// POST /api/lessons/:id/upload-session
func (h *UploadHandler) CreateSession(c *gin.Context) {
	lessonID, ok := h.lessonID(c)
	if !ok {
		return
	}

	session, err := h.uploads.CreateSession(dbctx.Context{Ctx: c.Request.Context()}, lessonID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"upload": session})
}

// DELETE /api/lessons/:id/upload-session
func (h *UploadHandler) CancelSession(c *gin.Context) {
	lessonID, ok := h.lessonID(c)
	if !ok {
		return
	}

	if err := h.uploads.Cancel(dbctx.Context{Ctx: c.Request.Context()}, lessonID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"upload_status": domain.UploadStatusCancelled})
}

type setStatusRequest struct {
	Status domain.UploadStatus `json:"status"`
}

// PUT /api/lessons/:id/upload-status
func (h *UploadHandler) SetStatus(c *gin.Context) {
	lessonID, ok := h.lessonID(c)
	if !ok {
		return
	}

	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_failed", fmt.Errorf("invalid request body"))
		return
	}

	lesson, err := h.uploads.SetClientStatus(dbctx.Context{Ctx: c.Request.Context()}, lessonID, req.Status)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"upload_status": lesson.UploadStatus})
}

type recordProgressRequest struct {
	Percent *int `json:"percent"`
}

// PUT /api/lessons/:id/progress
func (h *UploadHandler) RecordProgress(c *gin.Context) {
	lessonID, ok := h.lessonID(c)
	if !ok {
		return
	}

	var req recordProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Percent == nil {
		response.RespondError(c, http.StatusBadRequest, "validation_failed", fmt.Errorf("percent is required"))
		return
	}

	if err := h.progress.Record(c.Request.Context(), lessonID, *req.Percent); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"percent": *req.Percent})
}

// GET /api/lessons/:id/progress
func (h *UploadHandler) GetProgress(c *gin.Context) {
	lessonID, ok := h.lessonID(c)
	if !ok {
		return
	}

	percent, err := h.progress.Read(c.Request.Context(), lessonID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"percent": percent})
}
