package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestWebhookAlwaysRespondsOKForRecognisedActions(t *testing.T) {
	r, orch, gw := newTestRouter(t)
	gw.products["PCB-IND-100"] = pcbInd100()

	webhook := NewWebhookHandler(orch, nil, nil, nil, zap.NewNop())
	r.POST("/telegram/webhook", webhook.Handle)

	body := []byte(`{"callback_query":{"data":"approve:does-not-exist"}}`)
	req, _ := http.NewRequest(http.MethodPost, "/telegram/webhook", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected webhook to always respond 200, got %d", w.Code)
	}
}

func TestWebhookAcknowledgesUnrecognisedUpdates(t *testing.T) {
	r, orch, _ := newTestRouter(t)
	webhook := NewWebhookHandler(orch, nil, nil, nil, zap.NewNop())
	r.POST("/telegram/webhook", webhook.Handle)

	body := []byte(`{}`)
	req, _ := http.NewRequest(http.MethodPost, "/telegram/webhook", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected an unrecognised update to still be acknowledged with 200, got %d", w.Code)
	}
}

func TestWebhookRoutesRequestNewScheduleToComputeProposal(t *testing.T) {
	r, orch, gw := newTestRouter(t)
	gw.products["PCB-IND-100"] = pcbInd100()
	webhook := NewWebhookHandler(orch, nil, nil, nil, zap.NewNop())
	r.POST("/telegram/webhook", webhook.Handle)

	body := []byte(`{"message":{"text":"/schedule"}}`)
	req, _ := http.NewRequest(http.MethodPost, "/telegram/webhook", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
}
