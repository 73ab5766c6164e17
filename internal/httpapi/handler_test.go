package httpapi_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/ordersync/internal/channel"
	"github.com/vladislavdragonenkov/ordersync/internal/domain"
	"github.com/vladislavdragonenkov/ordersync/internal/httpapi"
)

// stubService — заглушка сервиса синхронизации.
type stubService struct {
	orders      []domain.Order
	live        bool
	state       channel.State
	lastErr     error
	updateErr   error
	updateCalls int
	refreshed   int
}

func (s *stubService) Orders() []domain.Order { return s.orders }

func (s *stubService) Filtered(criterion domain.FilterCriterion) []domain.Order {
	return domain.FilterOrders(s.orders, criterion)
}

func (s *stubService) Get(orderID string) (domain.Order, error) {
	for _, o := range s.orders {
		if o.ID == orderID {
			return o, nil
		}
	}
	return domain.Order{}, domain.ErrOrderNotFound
}

func (s *stubService) UpdateStatus(_ context.Context, orderID, nextStatus string) error {
	s.updateCalls++
	return s.updateErr
}

func (s *stubService) Refresh(context.Context) error {
	s.refreshed++
	return nil
}

func (s *stubService) Live() bool                       { return s.live }
func (s *stubService) ConnectionState() channel.State   { return s.state }
func (s *stubService) LastError() error                 { return s.lastErr }
func (s *stubService) Connect() error                   { return nil }
func (s *stubService) Disconnect()                      {}

func setup(service *stubService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return httpapi.NewRouter(httpapi.NewHandler(service))
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestListOrders_WithFilter(t *testing.T) {
	service := &stubService{
		orders: []domain.Order{
			{ID: "1", Status: domain.OrderStatusPending},
			{ID: "2", Status: domain.OrderStatusReady},
		},
		live: true,
	}
	router := setup(service)

	rec := doRequest(router, http.MethodGet, "/api/orders?filter=pending", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Orders []domain.Order `json:"orders"`
			Live   bool           `json:"live"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, resp.Data.Live)
	require.Len(t, resp.Data.Orders, 1)
	assert.Equal(t, "1", resp.Data.Orders[0].ID)
}

func TestGetOrder_NotFound(t *testing.T) {
	router := setup(&stubService{})

	rec := doRequest(router, http.MethodGet, "/api/orders/404", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "order not found")
}

func TestUpdateOrderStatus_InvalidTransition(t *testing.T) {
	service := &stubService{
		updateErr: fmt.Errorf("%w: PENDING -> COMPLETED", domain.ErrInvalidTransition),
	}
	router := setup(service)

	rec := doRequest(router, http.MethodPatch, "/api/orders/1/status", `{"status":"COMPLETED"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid status transition")
	assert.Equal(t, 1, service.updateCalls)
}

func TestUpdateOrderStatus_MissingBody(t *testing.T) {
	service := &stubService{}
	router := setup(service)

	rec := doRequest(router, http.MethodPatch, "/api/orders/1/status", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, service.updateCalls)
}

func TestConnection_ReportsLastError(t *testing.T) {
	service := &stubService{
		state:   channel.StateDegraded,
		lastErr: fmt.Errorf("dial refused"),
	}
	router := setup(service)

	rec := doRequest(router, http.MethodGet, "/api/connection", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
	assert.Contains(t, rec.Body.String(), "dial refused")
}

func TestRefresh(t *testing.T) {
	service := &stubService{}
	router := setup(service)

	rec := doRequest(router, http.MethodPost, "/api/refresh", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, service.refreshed)
}

func TestRequestIDHeader(t *testing.T) {
	router := setup(&stubService{})

	rec := doRequest(router, http.MethodGet, "/api/connection", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
