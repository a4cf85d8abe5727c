package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"github.com/neomorfeo/parkiq/internal/adapter/fsm"
	adapter "github.com/neomorfeo/parkiq/internal/adapter/http"
	"github.com/neomorfeo/parkiq/internal/adapter/sqlite"
	"github.com/neomorfeo/parkiq/internal/app"
	"github.com/neomorfeo/parkiq/internal/domain"
	"github.com/neomorfeo/parkiq/internal/layout"
)

// noopPublisher is a no-op AuditPublisher for tests.
type noopPublisher struct{}

func (p *noopPublisher) Publish(_ context.Context, _ domain.AuditRecord) error {
	return nil
}

// storePublisher appends records synchronously to an AuditStore, standing in
// for the queue-backed publisher.
type storePublisher struct {
	store domain.AuditStore
}

func (p *storePublisher) Publish(ctx context.Context, r domain.AuditRecord) error {
	return p.store.Append(ctx, r)
}

// newTestServer creates a full-stack httptest.Server with the default layout
// and a SQLite in-memory audit store.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("creating audit store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	svc, err := app.NewParkingService(layout.Default(), &storePublisher{store: store}, fsm.New(), slog.Default())
	if err != nil {
		t.Fatalf("creating service: %v", err)
	}

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("parkiq", "0.1.0"))
	adapter.Register(api, svc, store)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return srv
}

// doRequest performs an HTTP request with context (avoids noctx linter).
func doRequest(t *testing.T, method, url, body string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, reader)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}

	return resp
}

// mustPark parks a vehicle via the API and returns the issued token.
func mustPark(t *testing.T, srv *httptest.Server, registration, class string) adapter.TokenResponse {
	t.Helper()

	body := fmt.Sprintf(`{"registration":%q,"class":%q}`, registration, class)
	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/tokens", body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("park vehicle: status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var token adapter.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		t.Fatalf("decode token: %v", err)
	}

	return token
}

// --- Park ---

func TestPark(t *testing.T) {
	srv := newTestServer(t)
	token := mustPark(t, srv, "KA01AB1234", "two_wheeler")

	if token.ID == "" {
		t.Error("ID should not be empty")
	}
	if token.SlotID == "" {
		t.Error("SlotID should not be empty")
	}
	if token.Registration != "KA01AB1234" {
		t.Errorf("Registration = %q, want %q", token.Registration, "KA01AB1234")
	}
	if token.Status != "active" {
		t.Errorf("Status = %q, want %q", token.Status, "active")
	}
	if token.EntryTime == "" {
		t.Error("EntryTime should not be empty")
	}
	if token.ExitTime != "" {
		t.Errorf("ExitTime = %q, want empty", token.ExitTime)
	}
}

func TestPark_NormalizesRegistration(t *testing.T) {
	srv := newTestServer(t)
	token := mustPark(t, srv, "  ka01ab1234 ", "four_wheeler")

	if token.Registration != "KA01AB1234" {
		t.Errorf("Registration = %q, want %q", token.Registration, "KA01AB1234")
	}
}

func TestPark_InvalidRegistration(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/tokens", `{"registration":"AB12","class":"heavy"}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestPark_InvalidClass(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/tokens", `{"registration":"KA01AB1234","class":"bicycle"}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestPark_AlreadyParked(t *testing.T) {
	srv := newTestServer(t)
	mustPark(t, srv, "KA01AB1234", "two_wheeler")

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/tokens", `{"registration":"KA01AB1234","class":"two_wheeler"}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
}

func TestPark_FacilityFull(t *testing.T) {
	srv := newTestServer(t)

	// The default layout has three heavy slots per floor across two floors.
	for i := 1; i <= 6; i++ {
		mustPark(t, srv, fmt.Sprintf("KA01HV%04d", i), "heavy")
	}

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/tokens", `{"registration":"KA01HV0007","class":"heavy"}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
}

// --- Exit ---

func TestExit(t *testing.T) {
	srv := newTestServer(t)
	token := mustPark(t, srv, "KA01AB1234", "two_wheeler")

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/tokens/"+token.ID+"/exit", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var out struct {
		Fee   int                   `json:"fee"`
		Token adapter.TokenResponse `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Immediate exit falls inside the grace period but still pays the
	// one-hour minimum at the two-wheeler rate.
	if out.Fee != 10 {
		t.Errorf("Fee = %d, want 10", out.Fee)
	}
	if out.Token.Status != "closed" {
		t.Errorf("Status = %q, want %q", out.Token.Status, "closed")
	}
	if out.Token.ExitTime == "" {
		t.Error("ExitTime should not be empty")
	}
}

func TestExit_NotFound(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/tokens/nonexistent/exit", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestExit_TokenAlreadyUsed(t *testing.T) {
	srv := newTestServer(t)
	token := mustPark(t, srv, "KA01AB1234", "two_wheeler")

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/tokens/"+token.ID+"/exit", "")
	resp.Body.Close()

	resp = doRequest(t, http.MethodPost, srv.URL+"/api/v1/tokens/"+token.ID+"/exit", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
}

func TestExit_FreesSlot(t *testing.T) {
	srv := newTestServer(t)
	first := mustPark(t, srv, "KA01HV0001", "heavy")
	mustPark(t, srv, "KA01HV0002", "heavy")
	mustPark(t, srv, "KA01HV0003", "heavy")

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/tokens/"+first.ID+"/exit", "")
	resp.Body.Close()

	next := mustPark(t, srv, "KA01HV0004", "heavy")
	if next.SlotID != first.SlotID {
		t.Errorf("SlotID = %q, want reclaimed slot %q", next.SlotID, first.SlotID)
	}
}

// --- Quote ---

func TestQuote(t *testing.T) {
	srv := newTestServer(t)
	token := mustPark(t, srv, "KA01AB1234", "four_wheeler")

	body := `{"entry_time":"2025-03-14T10:00:00Z","exit_time":"2025-03-14T11:15:00Z"}`
	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/tokens/"+token.ID+"/quote", body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var out struct {
		Fee int `json:"fee"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// 75 minutes minus grace rounds up to two hours at the four-wheeler rate.
	if out.Fee != 40 {
		t.Errorf("Fee = %d, want 40", out.Fee)
	}
}

func TestQuote_DoesNotCloseToken(t *testing.T) {
	srv := newTestServer(t)
	token := mustPark(t, srv, "KA01AB1234", "two_wheeler")

	body := `{"entry_time":"2025-03-14T10:00:00Z","exit_time":"2025-03-14T10:30:00Z"}`
	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/tokens/"+token.ID+"/quote", body)
	resp.Body.Close()

	resp = doRequest(t, http.MethodPost, srv.URL+"/api/v1/tokens/"+token.ID+"/exit", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("exit after quote: status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestQuote_NotFound(t *testing.T) {
	srv := newTestServer(t)

	body := `{"entry_time":"2025-03-14T10:00:00Z","exit_time":"2025-03-14T11:00:00Z"}`
	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/tokens/nonexistent/quote", body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestQuote_InvalidInterval(t *testing.T) {
	srv := newTestServer(t)
	token := mustPark(t, srv, "KA01AB1234", "two_wheeler")

	body := `{"entry_time":"2025-03-14T11:00:00Z","exit_time":"2025-03-14T10:00:00Z"}`
	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/tokens/"+token.ID+"/quote", body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
}

// --- Search ---

func TestSearch(t *testing.T) {
	srv := newTestServer(t)
	token := mustPark(t, srv, "KA01AB1234", "two_wheeler")

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/vehicles/KA01AB1234", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var slot adapter.SlotResponse
	if err := json.NewDecoder(resp.Body).Decode(&slot); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if slot.SlotID != token.SlotID {
		t.Errorf("SlotID = %q, want %q", slot.SlotID, token.SlotID)
	}
	if !slot.Occupied {
		t.Error("Occupied = false, want true")
	}
	if slot.Registration != "KA01AB1234" {
		t.Errorf("Registration = %q, want %q", slot.Registration, "KA01AB1234")
	}
}

func TestSearch_NormalizesRegistration(t *testing.T) {
	srv := newTestServer(t)
	token := mustPark(t, srv, "KA01AB1234", "two_wheeler")

	// Lower-case lookups find the upper-cased stored form.
	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/vehicles/ka01ab1234", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var slot adapter.SlotResponse
	if err := json.NewDecoder(resp.Body).Decode(&slot); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if slot.SlotID != token.SlotID {
		t.Errorf("SlotID = %q, want %q", slot.SlotID, token.SlotID)
	}
}

func TestSearch_NotFound(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/vehicles/MH12XY9999", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

// --- Floors ---

func TestListFloors(t *testing.T) {
	srv := newTestServer(t)
	token := mustPark(t, srv, "KA01AB1234", "two_wheeler")

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/floors", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var floors []adapter.FloorResponse
	if err := json.NewDecoder(resp.Body).Decode(&floors); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(floors) != 2 {
		t.Fatalf("got %d floors, want 2", len(floors))
	}
	if floors[0].FloorID != "G1" {
		t.Errorf("FloorID = %q, want %q", floors[0].FloorID, "G1")
	}
	if floors[0].Occupied != 1 {
		t.Errorf("Occupied = %d, want 1", floors[0].Occupied)
	}

	var found bool
	for _, s := range floors[0].Slots {
		if s.SlotID == token.SlotID {
			found = true
			if !s.Occupied {
				t.Errorf("slot %q should be occupied", s.SlotID)
			}
		}
	}
	if !found {
		t.Errorf("slot %q not listed on floor G1", token.SlotID)
	}
}

// --- Audit ---

func TestListAudit(t *testing.T) {
	srv := newTestServer(t)
	first := mustPark(t, srv, "KA01AB1234", "two_wheeler")
	second := mustPark(t, srv, "MH12XY9999", "heavy")

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/audit", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var records []adapter.AuditRecordResponse
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	// Newest first.
	if records[0].TokenID != second.ID {
		t.Errorf("records[0].TokenID = %q, want %q", records[0].TokenID, second.ID)
	}
	if records[1].TokenID != first.ID {
		t.Errorf("records[1].TokenID = %q, want %q", records[1].TokenID, first.ID)
	}
	if records[0].Class != "heavy" {
		t.Errorf("Class = %q, want %q", records[0].Class, "heavy")
	}
}

func TestListAudit_Limit(t *testing.T) {
	srv := newTestServer(t)
	mustPark(t, srv, "KA01AB1234", "two_wheeler")
	mustPark(t, srv, "MH12XY9999", "two_wheeler")

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/audit?limit=1", "")
	defer resp.Body.Close()

	var records []adapter.AuditRecordResponse
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(records) != 1 {
		t.Errorf("got %d records, want 1", len(records))
	}
}
