package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordersync/internal/channel"
	"github.com/vladislavdragonenkov/ordersync/internal/domain"
	"github.com/vladislavdragonenkov/ordersync/internal/rest"
)

// OrderService — верхний API ядра синхронизации, который отдаёт этот слой.
type OrderService interface {
	Orders() []domain.Order
	Filtered(criterion domain.FilterCriterion) []domain.Order
	Get(orderID string) (domain.Order, error)
	UpdateStatus(ctx context.Context, orderID, nextStatus string) error
	Refresh(ctx context.Context) error
	Live() bool
	ConnectionState() channel.State
	LastError() error
	Connect() error
	Disconnect()
}

// Handler — тонкий JSON-слой над синхронизатором для UI.
type Handler struct {
	service OrderService
	logger  *log.Entry
}

// NewHandler создаёт HTTP-обработчики поверх сервиса синхронизации.
func NewHandler(service OrderService) *Handler {
	return &Handler{
		service: service,
		logger:  log.WithField("component", "httpapi"),
	}
}

// ListOrders возвращает коллекцию, при ?filter= — отфильтрованный вид.
func (h *Handler) ListOrders(c *gin.Context) {
	criterion := domain.FilterCriterion(c.DefaultQuery("filter", string(domain.FilterAll)))
	respondData(c, http.StatusOK, gin.H{
		"orders": h.service.Filtered(criterion),
		"live":   h.service.Live(),
	})
}

// GetOrder возвращает один заказ по id.
func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.service.Get(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, order)
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderStatus запрашивает смену статуса; недостижимый переход
// отклоняется валидацией до обращения к бэкенду.
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "status is required")
		return
	}

	if err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"order_id": c.Param("id"), "status": req.Status})
}

// RefreshOrders — ручное обновление (переподключение либо snapshot).
func (h *Handler) RefreshOrders(c *gin.Context) {
	if err := h.service.Refresh(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"live": h.service.Live()})
}

// Connection отдаёт состояние соединения для индикатора в UI.
func (h *Handler) Connection(c *gin.Context) {
	payload := gin.H{
		"state": h.service.ConnectionState(),
		"live":  h.service.Live(),
	}
	if err := h.service.LastError(); err != nil {
		payload["last_error"] = err.Error()
	}
	respondData(c, http.StatusOK, payload)
}

// Connect запрашивает подключение live-канала.
func (h *Handler) Connect(c *gin.Context) {
	if err := h.service.Connect(); err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusAccepted, gin.H{"state": h.service.ConnectionState()})
}

// Disconnect отключает live-канал.
func (h *Handler) Disconnect(c *gin.Context) {
	h.service.Disconnect()
	respondData(c, http.StatusOK, gin.H{"state": h.service.ConnectionState()})
}

// respondError переводит ошибки ядра в HTTP-коды и уведомления.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		respondMessage(c, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrUnknownStatus):
		// Пользовательская валидация, не повод для retry.
		respondMessage(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrCredentialMissing):
		respondMessage(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, channel.ErrChannelBusy):
		respondMessage(c, http.StatusConflict, err.Error())
	default:
		if _, ok := rest.IsTransportError(err); ok {
			respondMessage(c, http.StatusBadGateway, err.Error())
			return
		}
		h.logger.WithError(err).Error("unhandled error")
		respondMessage(c, http.StatusInternalServerError, err.Error())
	}
}
