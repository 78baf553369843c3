package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/po-tati-x/potatix-sub004/internal/http/response"
	"github.com/po-tati-x/potatix-sub004/internal/pkg/dbctx"
	"github.com/po-tati-x/potatix-sub004/internal/pkg/logger"
	"github.com/po-tati-x/potatix-sub004/internal/platform/mux"
	"github.com/po-tati-x/potatix-sub004/internal/services"
)

// WebhookHandler receives the provider's asynchronous completion signals.
// This endpoint is the only writer of PROCESSING/COMPLETED states.
type WebhookHandler struct {
	log      *logger.Logger
	webhooks services.WebhookService
	secret   string
}

func NewWebhookHandler(log *logger.Logger, webhooks services.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		log:      log.With("handler", "WebhookHandler"),
		webhooks: webhooks,
		secret:   strings.TrimSpace(os.Getenv("MUX_WEBHOOK_SECRET")),
	}
}

// POST /api/webhooks/video
func (h *WebhookHandler) HandleVideoEvent(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_failed", fmt.Errorf("unreadable payload"))
		return
	}

	sig := c.GetHeader("Mux-Signature")
	if err := mux.VerifySignature(payload, sig, h.secret, time.Now()); err != nil {
		h.log.Warn("rejected webhook with bad signature", "error", err)
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("invalid signature"))
		return
	}

	ev, err := mux.ParseEvent(payload)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_failed", fmt.Errorf("malformed event"))
		return
	}

	if err := h.webhooks.HandleEvent(dbctx.Context{Ctx: c.Request.Context()}, ev); err != nil {
		// Non-2xx makes the provider redeliver; that is what we want on
		// a transient store failure.
		h.log.Error("webhook event processing failed", "type", ev.Type, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "internal_error", fmt.Errorf("event processing failed"))
		return
	}

	c.Status(http.StatusNoContent)
}
