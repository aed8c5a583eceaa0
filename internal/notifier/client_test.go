package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSendMessageIncludesInlineKeyboard(t *testing.T) {
	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "sendMessage") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(map[string]interface{}{"ok": true})
	}))
	defer srv.Close()

	c := newClientWithBase(srv.URL, "tok", "chat-1", srv.Client())

	if err := c.SendMessage(context.Background(), "hello", InlineButton{Label: "OK", CallbackData: "approve:1"}); err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}
	if captured["text"] != "hello" {
		t.Fatalf("expected text to be sent, got %v", captured)
	}
	if _, ok := captured["reply_markup"]; !ok {
		t.Fatalf("expected reply_markup to be present when buttons are supplied")
	}
}

func TestSendPhotoUploadsMultipart(t *testing.T) {
	var captured string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "sendPhoto") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("expected a multipart request: %v", err)
		}
		captured = r.FormValue("caption")
		json.NewEncoder(w).Encode(map[string]interface{}{"ok": true})
	}))
	defer srv.Close()

	c := newClientWithBase(srv.URL, "tok", "chat-1", srv.Client())
	err := c.SendPhoto(context.Background(), []byte{0x89, 0x50, 0x4e, 0x47}, "gantt.png", "schedule preview")
	if err != nil {
		t.Fatalf("SendPhoto returned error: %v", err)
	}
	if captured != "schedule preview" {
		t.Fatalf("expected caption to be sent, got %q", captured)
	}
}

func TestSendMessagePropagatesTelegramError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"ok": false, "description": "chat not found"})
	}))
	defer srv.Close()

	c := newClientWithBase(srv.URL, "tok", "chat-1", srv.Client())
	if err := c.SendMessage(context.Background(), "hello"); err == nil {
		t.Fatalf("expected an error when telegram reports ok=false")
	}
}
