package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/po-tati-x/potatix-sub004/internal/http/response"
	"github.com/po-tati-x/potatix-sub004/internal/pkg/dbctx"
	"github.com/po-tati-x/potatix-sub004/internal/services"
)

type AssistantHandler struct {
	assistant services.AssistantService
}

func NewAssistantHandler(assistant services.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistant: assistant}
}

// GET /api/lessons/:id/prompts?count=5
func (h *AssistantHandler) GetPrompts(c *gin.Context) {
	lessonID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_failed", fmt.Errorf("invalid lesson id"))
		return
	}

	count := 0
	if raw := strings.TrimSpace(c.Query("count")); raw != "" {
		parsed, convErr := strconv.Atoi(raw)
		if convErr != nil {
			response.RespondError(c, http.StatusBadRequest, "validation_failed", fmt.Errorf("count must be a number"))
			return
		}
		count = parsed
	}

	prompts, err := h.assistant.SuggestedPrompts(dbctx.Context{Ctx: c.Request.Context()}, lessonID, count)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"prompts": prompts})
}

type chatRequest struct {
	Messages []services.ChatMessage `json:"messages"`
}

// POST /api/lessons/:id/chat
//
// Streams the answer as SSE text.delta events ending with a [DONE]
// sentinel. The conversation lives entirely client-side.
func (h *AssistantHandler) Chat(c *gin.Context) {
	lessonID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_failed", fmt.Errorf("invalid lesson id"))
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_failed", fmt.Errorf("invalid request body"))
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.RespondError(c, http.StatusInternalServerError, "internal_error", fmt.Errorf("streaming unsupported"))
		return
	}

	streaming := false
	startStream := func() {
		if streaming {
			return
		}
		streaming = true
		c.Writer.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.WriteHeader(http.StatusOK)
		flusher.Flush()
	}

	err = h.assistant.StreamAnswer(dbctx.Context{Ctx: c.Request.Context()}, lessonID, req.Messages, func(delta string) {
		startStream()
		payload, _ := json.Marshal(gin.H{"delta": delta})
		fmt.Fprintf(c.Writer, "event: text.delta\ndata: %s\n\n", payload)
		flusher.Flush()
	})
	if err != nil {
		if !streaming {
			response.RespondServiceError(c, err)
			return
		}
		payload, _ := json.Marshal(gin.H{"message": "stream failed"})
		fmt.Fprintf(c.Writer, "event: error\ndata: %s\n\n", payload)
		flusher.Flush()
		return
	}

	startStream()
	fmt.Fprint(c.Writer, "data: [DONE]\n\n")
	flusher.Flush()
}
