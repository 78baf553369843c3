package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/po-tati-x/potatix-sub004/internal/pkg/dbctx"
	"github.com/po-tati-x/potatix-sub004/internal/pkg/logger"
	"github.com/po-tati-x/potatix-sub004/internal/platform/mux"
)

type fakeWebhookService struct {
	events []*mux.Event
	err    error
}

func (s *fakeWebhookService) HandleEvent(_ dbctx.Context, ev *mux.Event) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, ev)
	return nil
}

func signWebhook(payload []byte, secret string) string {
	ts := fmt.Sprintf("%d", time.Now().Unix())
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func newWebhookRouter(t *testing.T, svc *fakeWebhookService) *gin.Engine {
	t.Helper()
	t.Setenv("MUX_WEBHOOK_SECRET", "whsec_test")
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/webhooks/video", NewWebhookHandler(logger.NewNop(), svc).HandleVideoEvent)
	return router
}

func postWebhook(router *gin.Engine, payload []byte, signature string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/video", bytes.NewReader(payload))
	if signature != "" {
		req.Header.Set("Mux-Signature", signature)
	}
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleVideoEvent(t *testing.T) {
	svc := &fakeWebhookService{}
	router := newWebhookRouter(t, svc)

	payload := []byte(`{"type":"video.upload.asset_created","data":{"id":"up_1"}}`)
	rec := postWebhook(router, payload, signWebhook(payload, "whsec_test"))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(svc.events) != 1 || svc.events[0].Type != mux.EventUploadAssetCreated {
		t.Fatalf("events = %+v", svc.events)
	}
}

func TestHandleVideoEventRejectsBadSignature(t *testing.T) {
	svc := &fakeWebhookService{}
	router := newWebhookRouter(t, svc)

	payload := []byte(`{"type":"video.upload.asset_created","data":{"id":"up_1"}}`)

	for name, signature := range map[string]string{
		"missing header": "",
		"wrong secret":   signWebhook(payload, "other_secret"),
		"garbage":        "t=abc,v1=def",
	} {
		rec := postWebhook(router, payload, signature)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", name, rec.Code)
		}
	}
	if len(svc.events) != 0 {
		t.Fatalf("unsigned events reached the service: %+v", svc.events)
	}
}

func TestHandleVideoEventRejectsMalformedPayload(t *testing.T) {
	router := newWebhookRouter(t, &fakeWebhookService{})

	payload := []byte(`{"data":{"id":"up_1"}}`)
	rec := postWebhook(router, payload, signWebhook(payload, "whsec_test"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleVideoEventSignalsRedelivery(t *testing.T) {
	svc := &fakeWebhookService{err: fmt.Errorf("store unavailable")}
	router := newWebhookRouter(t, svc)

	payload := []byte(`{"type":"video.upload.asset_created","data":{"id":"up_1"}}`)
	rec := postWebhook(router, payload, signWebhook(payload, "whsec_test"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 so the provider redelivers", rec.Code)
	}
}
