package factoryintake

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bitfantasy/novaboard-scheduler/internal/domain"
	"github.com/bitfantasy/novaboard-scheduler/internal/gateway"
	"github.com/bitfantasy/novaboard-scheduler/internal/notifier"
)

type fakeGateway struct {
	pos []domain.ProductionOrder
}

func (g *fakeGateway) ListSalesOrders(ctx context.Context, status string) ([]domain.SalesOrder, error) {
	return nil, nil
}
func (g *fakeGateway) ListProductionOrders(ctx context.Context) ([]domain.ProductionOrder, error) {
	return g.pos, nil
}
func (g *fakeGateway) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	return domain.Product{}, nil
}
func (g *fakeGateway) UpdateSalesOrder(ctx context.Context, id string, u gateway.SalesOrderUpdate) error {
	return nil
}
func (g *fakeGateway) CreateProductionOrder(ctx context.Context, in gateway.CreateProductionOrderInput) (domain.ProductionOrder, error) {
	return domain.ProductionOrder{}, nil
}
func (g *fakeGateway) ScheduleProductionOrder(ctx context.Context, poID string) ([]domain.ProductionPhase, error) {
	return nil, nil
}
func (g *fakeGateway) UpdatePhaseWindow(ctx context.Context, phaseID string, start, end time.Time) error {
	return nil
}
func (g *fakeGateway) UpdatePOWindow(ctx context.Context, poID string, start, end time.Time) error {
	return nil
}
func (g *fakeGateway) ConfirmProductionOrder(ctx context.Context, poID string) error { return nil }
func (g *fakeGateway) DeleteProductionOrder(ctx context.Context, poID string) error  { return nil }

type fakeTracker struct {
	links map[string]string // poID -> soID
}

func (t *fakeTracker) SalesOrderForProductionOrder(ctx context.Context, poID string) (string, bool, error) {
	soID, ok := t.links[poID]
	return soID, ok, nil
}

type fakeNotifier struct {
	called  bool
	caption string
	buttons []notifier.InlineButton
	sendErr error
}

func (n *fakeNotifier) SendPhoto(ctx context.Context, image []byte, filename, caption string, buttons ...notifier.InlineButton) error {
	n.called = true
	n.caption = caption
	n.buttons = buttons
	return n.sendErr
}

func newMultipartRequest(t *testing.T, fields map[string]string, includeImage bool) (*http.Request, string) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if includeImage {
		part, err := w.CreateFormFile("image", "failure.jpg")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		part.Write([]byte("fake-jpeg-bytes"))
	}
	w.Close()

	req, _ := http.NewRequest(http.MethodPost, "/factory/failure", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req, w.FormDataContentType()
}

func TestHandleAcceptsAnInProgressPO(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Now().UTC()
	gw := &fakeGateway{pos: []domain.ProductionOrder{
		{ID: "PO-1", SalesOrderID: "SO-1", Status: domain.POStatusInProgress, PlannedStart: now.Add(-time.Hour), PlannedEnd: now.Add(time.Hour)},
	}}
	tr := &fakeTracker{links: map[string]string{"PO-1": "SO-1"}}
	notify := &fakeNotifier{}
	h := NewHandler(gw, tr, notify, zap.NewNop())

	r := gin.New()
	r.POST("/factory/failure", h.Handle)

	req, _ := newMultipartRequest(t, map[string]string{"description": "solder bridge"}, true)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !notify.called {
		t.Fatalf("expected the operator channel to be notified")
	}
	if len(notify.buttons) != 2 {
		t.Fatalf("expected 2 recovery action buttons, got %d", len(notify.buttons))
	}
}

func TestHandleRejectsAMissingImage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gw := &fakeGateway{}
	h := NewHandler(gw, &fakeTracker{}, &fakeNotifier{}, zap.NewNop())

	r := gin.New()
	r.POST("/factory/failure", h.Handle)

	req, _ := newMultipartRequest(t, map[string]string{"description": "no image here"}, false)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a missing image, got %d", w.Code)
	}
}

func TestHandleRespondsUnresolvedWhenNoPOMatches(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gw := &fakeGateway{} // no production orders at all
	h := NewHandler(gw, &fakeTracker{}, &fakeNotifier{}, zap.NewNop())

	r := gin.New()
	r.POST("/factory/failure", h.Handle)

	req, _ := newMultipartRequest(t, nil, true)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 (unresolved is still acknowledged), got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`"unresolved"`)) {
		t.Fatalf("expected an unresolved status in the body, got %s", w.Body.String())
	}
}

func TestHandleHonoursAnExplicitPOID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Now().UTC()
	gw := &fakeGateway{pos: []domain.ProductionOrder{
		{ID: "PO-1", SalesOrderID: "SO-1", Status: domain.POStatusInProgress, PlannedStart: now.Add(-time.Hour), PlannedEnd: now.Add(time.Hour)},
		{ID: "PO-2", SalesOrderID: "SO-2", Status: domain.POStatusReady, PlannedStart: now.Add(time.Hour), PlannedEnd: now.Add(2 * time.Hour)},
	}}
	tr := &fakeTracker{links: map[string]string{"PO-1": "SO-1", "PO-2": "SO-2"}}
	notify := &fakeNotifier{}
	h := NewHandler(gw, tr, notify, zap.NewNop())

	r := gin.New()
	r.POST("/factory/failure", h.Handle)

	req, _ := newMultipartRequest(t, map[string]string{"po_id": "PO-2"}, true)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if notify.caption == "" || !bytes.Contains([]byte(notify.caption), []byte("PO-2")) {
		t.Fatalf("expected the notification to reference the explicitly chosen PO-2, got %q", notify.caption)
	}
}
