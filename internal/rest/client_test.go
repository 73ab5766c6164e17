package rest_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/ordersync/internal/domain"
	"github.com/vladislavdragonenkov/ordersync/internal/rest"
)

func testCreds() rest.StaticCredentials {
	return rest.StaticCredentials{BearerToken: "token-1", Tenant: "tenant-1"}
}

func TestLoadSnapshot_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":[{"id":"1","status":"PENDING"},{"id":"2","status":"READY"}]}`))
	}))
	defer srv.Close()

	client := rest.NewClient(srv.URL, testCreds(), time.Second)
	orders, err := client.LoadSnapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if len(orders) != 2 || orders[0].ID != "1" || orders[1].Status != domain.OrderStatusReady {
		t.Fatalf("unexpected orders: %+v", orders)
	}
}

func TestLoadSnapshot_StructuredError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"tenant suspended"}`))
	}))
	defer srv.Close()

	client := rest.NewClient(srv.URL, testCreds(), time.Second)
	_, err := client.LoadSnapshot(context.Background())

	te, ok := rest.IsTransportError(err)
	if !ok {
		t.Fatalf("expected transport error, got %v", err)
	}
	if te.Kind != rest.KindHTTP || te.StatusCode != http.StatusForbidden || te.Message != "tenant suspended" {
		t.Fatalf("unexpected error: %+v", te)
	}
}

func TestLoadSnapshot_RawBodyFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	client := rest.NewClient(srv.URL, testCreds(), time.Second)
	_, err := client.LoadSnapshot(context.Background())

	te, ok := rest.IsTransportError(err)
	if !ok || te.Message != "upstream exploded" {
		t.Fatalf("expected raw body fallback, got %v", err)
	}
}

func TestLoadSnapshot_StatusTextFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := rest.NewClient(srv.URL, testCreds(), time.Second)
	_, err := client.LoadSnapshot(context.Background())

	te, ok := rest.IsTransportError(err)
	if !ok || te.Message != http.StatusText(http.StatusServiceUnavailable) {
		t.Fatalf("expected status text fallback, got %v", err)
	}
}

func TestLoadSnapshot_ParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	client := rest.NewClient(srv.URL, testCreds(), time.Second)
	_, err := client.LoadSnapshot(context.Background())

	te, ok := rest.IsTransportError(err)
	if !ok || te.Kind != rest.KindParse {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestLoadSnapshot_CredentialMissing(t *testing.T) {
	client := rest.NewClient("http://127.0.0.1:0", rest.StaticCredentials{}, time.Second)
	if _, err := client.LoadSnapshot(context.Background()); err != domain.ErrCredentialMissing {
		t.Fatalf("expected ErrCredentialMissing, got %v", err)
	}
}

func TestUpdateStatus_SendsPatch(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	client := rest.NewClient(srv.URL, testCreds(), time.Second)
	if err := client.UpdateStatus(context.Background(), "42", domain.OrderStatusAccepted); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if gotMethod != http.MethodPatch || gotPath != "/orders/42/status" {
		t.Fatalf("unexpected request: %s %s", gotMethod, gotPath)
	}
}
