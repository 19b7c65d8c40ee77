package tokens

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	sessioncontext "queueboard/frontend/shared/context"
	"queueboard/infrastructure/queueapi"
	"queueboard/infrastructure/queuestate"
	"queueboard/models"
)

type fakeBackend struct {
	mu            sync.Mutex
	status        models.QueueStatus
	customer      *models.Customer
	customerCalls int
}

func (f *fakeBackend) GetCustomerStatus(ctx context.Context, tokenID string) (queueapi.Envelope[models.Customer], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.customerCalls++
	if f.customer == nil {
		return queueapi.Envelope[models.Customer]{Success: false, Message: "Token not found"}, nil
	}
	return queueapi.Envelope[models.Customer]{Success: true, HasData: true, Data: *f.customer}, nil
}

func (f *fakeBackend) GetQueueStatus(ctx context.Context, tokenID string) (queueapi.Envelope[models.QueueStatus], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status := f.status
	if status.TokenID == "" {
		status.TokenID = tokenID
	}
	return queueapi.Envelope[models.QueueStatus]{Success: true, HasData: true, Data: status}, nil
}

func (f *fakeBackend) GetOutletQueue(ctx context.Context, outletID string) (queueapi.Envelope[models.OutletQueue], error) {
	return queueapi.Envelope[models.OutletQueue]{Success: true, HasData: true, Data: models.EmptyOutletQueue(outletID)}, nil
}

func (f *fakeBackend) GetAnalytics(ctx context.Context, outletID string) (queueapi.Envelope[models.AnalyticsData], error) {
	return queueapi.Envelope[models.AnalyticsData]{Success: true}, nil
}

type fakeViewers struct {
	backend queuestate.Backend
	mu      sync.Mutex
	stores  map[string]*queuestate.Store
}

func (v *fakeViewers) Store(id string) *queuestate.Store {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.stores == nil {
		v.stores = make(map[string]*queuestate.Store)
	}
	if s, ok := v.stores[id]; ok {
		return s
	}
	s := queuestate.NewStore(v.backend, queuestate.Options{TokenInterval: time.Hour})
	v.stores[id] = s
	return s
}

func (v *fakeViewers) close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, s := range v.stores {
		s.Close()
	}
}

func newRouter(t *testing.T, api *fakeBackend) (http.Handler, *fakeViewers) {
	t.Helper()
	viewers := &fakeViewers{backend: api}
	t.Cleanup(viewers.close)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(sessioncontext.NewContextWithVisitor(req.Context(), "visitor-1")))
		})
	})
	r.Get("/tokens/{token}", TokenPageQueryHandler(api, viewers))
	r.Get("/tokens/{token}/status.json", StatusJSONHandler(api, viewers))
	r.Get("/tokens/{token}/qr.png", QRCodeHandler(viewers))
	r.Get("/tokens/{token}/ticket.pdf", TicketPDFHandler(api, viewers))
	r.Post("/tokens/done", DoneCommandHandler(viewers))
	return r, viewers
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

const token = "QT-20250929-0002"

func TestTokenPageStartsTrackingAndRendersStatus(t *testing.T) {
	api := &fakeBackend{
		status:   models.QueueStatus{Position: 3, EstimatedWait: 25 * time.Minute, CurrentlyServing: "QT-20250929-0001"},
		customer: &models.Customer{TokenNumber: token, Name: "Nimal Perera", ServiceType: "bill_payments"},
	}
	h, viewers := newRouter(t, api)

	rec := get(t, h, "/tokens/"+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"T002", "#3", "25m", "Bill Payments", "Nimal Perera", "QT-20250929-0001", `content="5"`, "/tokens/QT-20250929-0002/qr.png"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in body:\n%s", want, body)
		}
	}

	tracked, ok := viewers.Store("visitor-1").Tracking()
	if !ok || tracked != token {
		t.Fatalf("expected tracking %q, got %q (%v)", token, tracked, ok)
	}
}

func TestTokenPageKeepsRegisteredCustomer(t *testing.T) {
	api := &fakeBackend{status: models.QueueStatus{Position: 2}}
	h, viewers := newRouter(t, api)
	viewers.Store("visitor-1").SetCurrentCustomer(&models.Customer{TokenNumber: token, Name: "Kamal"})

	rec := get(t, h, "/tokens/"+token)
	if !strings.Contains(rec.Body.String(), "Kamal") {
		t.Fatalf("expected stored customer name in body")
	}
	if api.customerCalls != 0 {
		t.Fatalf("expected no customer lookup, got %d", api.customerCalls)
	}
}

func TestStatusJSONDerivedValues(t *testing.T) {
	api := &fakeBackend{
		status:   models.QueueStatus{Position: 3, EstimatedWait: 125 * time.Minute, CurrentlyServing: token, NextInLine: []string{"QT-20250929-0003"}},
		customer: &models.Customer{TokenNumber: token, ServiceType: "unknown-xyz"},
	}
	h, _ := newRouter(t, api)

	rec := get(t, h, "/tokens/"+token+"/status.json")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var v TokenView
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.ShortToken != "T002" || v.Position != 3 || v.Wait != "2h 5m" || v.Progress != 70 {
		t.Fatalf("unexpected view %+v", v)
	}
	if v.Service != "General Service" {
		t.Fatalf("expected default service label, got %q", v.Service)
	}
	if !v.BeingServed {
		t.Fatalf("expected being served when currently serving matches")
	}
	if len(v.NextInLine) != 1 {
		t.Fatalf("expected next in line, got %v", v.NextInLine)
	}
}

func TestStatusFallsBackToRegistrationValues(t *testing.T) {
	snap := queuestate.Snapshot{
		CurrentCustomer: &models.Customer{TokenNumber: token, QueuePosition: 4, EstimatedWait: 45 * time.Minute},
		QueueStatus:     &models.QueueStatus{TokenID: token, Position: 0},
	}
	v := buildView(token, snap)
	if v.Position != 4 || v.Wait != "45m" {
		t.Fatalf("expected registration values, got %+v", v)
	}

	other := buildView(token, queuestate.Snapshot{QueueStatus: &models.QueueStatus{TokenID: "QT-OTHER", Position: 9}})
	if other.Position != 0 {
		t.Fatalf("status for another token must be ignored, got %d", other.Position)
	}
	if other.NextInLine == nil {
		t.Fatalf("next in line must never be nil")
	}
}

func TestWaitForChangeReturnsOnUpdate(t *testing.T) {
	store := queuestate.NewStore(&fakeBackend{}, queuestate.Options{})
	t.Cleanup(store.Close)
	store.SetCurrentCustomer(&models.Customer{TokenNumber: token, Status: models.StatusWaiting})
	current := buildView(token, store.Snapshot())

	go func() {
		time.Sleep(20 * time.Millisecond)
		store.SetCurrentCustomer(&models.Customer{TokenNumber: token, Status: models.StatusBeingServed})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	next := waitForChange(ctx, store, token, current)
	if !next.BeingServed {
		t.Fatalf("expected change to be returned, got %+v", next)
	}
}

func TestQRCodeIsPNG(t *testing.T) {
	h, _ := newRouter(t, &fakeBackend{})

	rec := get(t, h, "/tokens/"+token+"/qr.png")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("unexpected content type %q", ct)
	}
	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 256 || b.Dy() != 256 {
		t.Fatalf("unexpected qr size %v", b)
	}
}

func TestTicketPDF(t *testing.T) {
	api := &fakeBackend{
		status:   models.QueueStatus{Position: 2, EstimatedWait: 10 * time.Minute},
		customer: &models.Customer{TokenNumber: token, Name: "Nimal Perera", ServiceType: "technical_support"},
	}
	h, _ := newRouter(t, api)

	rec := get(t, h, "/tokens/"+token+"/ticket.pdf")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("expected pdf bytes")
	}
}

func TestRenderTicketPDFRequiresToken(t *testing.T) {
	if _, err := renderTicketPDF(TokenView{}, qrPayload{}, time.Now()); err == nil {
		t.Fatalf("expected error for empty token")
	}
}

func TestDoneStopsTracking(t *testing.T) {
	api := &fakeBackend{customer: &models.Customer{TokenNumber: token}}
	h, viewers := newRouter(t, api)
	get(t, h, "/tokens/"+token)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tokens/done", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Fatalf("expected redirect home, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	store := viewers.Store("visitor-1")
	if _, ok := store.Tracking(); ok {
		t.Fatalf("expected tracking stopped")
	}
	if store.Snapshot().CurrentCustomer != nil {
		t.Fatalf("expected customer cleared")
	}
}

func TestSwitchingTokensDoesNotShowPreviousStatus(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/queue/status/QT-A-001":
			// No tokenId in the payload.
			_, _ = io.WriteString(w, `{"success":true,"data":{"position":7,"estimatedWaitTime":35,"currentlyServing":"QT-X","totalInQueue":9}}`)
		case "/queue/status/QT-B-002":
			w.WriteHeader(http.StatusBadGateway)
		default:
			_, _ = io.WriteString(w, `{"success":false,"message":"Token not found"}`)
		}
	}))
	t.Cleanup(backend.Close)
	api := queueapi.New(queueapi.Options{BaseURL: backend.URL, OutletID: "outlet-1", HTTPClient: backend.Client()})

	viewers := &fakeViewers{backend: api}
	t.Cleanup(viewers.close)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(sessioncontext.NewContextWithVisitor(req.Context(), "visitor-1")))
		})
	})
	r.Get("/tokens/{token}/status.json", StatusJSONHandler(api, viewers))

	decode := func(rec *httptest.ResponseRecorder) TokenView {
		t.Helper()
		var v TokenView
		if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return v
	}

	a := decode(get(t, r, "/tokens/QT-A-001/status.json"))
	if a.Position != 7 || a.CurrentlyServing != "QT-X" || a.TotalInQueue != 9 {
		t.Fatalf("unexpected first token view %+v", a)
	}

	b := decode(get(t, r, "/tokens/QT-B-002/status.json"))
	if b.Token != "QT-B-002" {
		t.Fatalf("unexpected token %q", b.Token)
	}
	if b.Position != 0 || b.CurrentlyServing != "" || b.TotalInQueue != 0 || b.Wait == "35m" {
		t.Fatalf("second token shows first token's status: %+v", b)
	}
	if b.Error == "" {
		t.Fatalf("expected failed status fetch to be reported")
	}
	if tracked, ok := viewers.Store("visitor-1").Tracking(); !ok || tracked != "QT-B-002" {
		t.Fatalf("expected tracking QT-B-002, got %q (%v)", tracked, ok)
	}
}
