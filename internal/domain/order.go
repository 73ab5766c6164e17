package domain

import (
	"strings"
	"time"
)

// OrderStatus описывает жизненный цикл заказа на стороне мерчанта.
// Значения приходят от бэкенда в верхнем регистре; сравнение всегда
// выполняется без учёта регистра.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, мерчант ещё не принял решение.
	OrderStatusPending OrderStatus = "PENDING"
	// OrderStatusAccepted — заказ принят мерчантом.
	OrderStatusAccepted OrderStatus = "ACCEPTED"
	// OrderStatusPreparing — заказ готовится на кухне.
	OrderStatusPreparing OrderStatus = "PREPARING"
	// OrderStatusReady — заказ собран и готов к выдаче или отправке.
	OrderStatusReady OrderStatus = "READY"
	// OrderStatusDispatched — заказ передан курьеру (только доставка).
	OrderStatusDispatched OrderStatus = "DISPATCHED"
	// OrderStatusOnTheWay — курьер в пути (только доставка).
	OrderStatusOnTheWay OrderStatus = "ON_THE_WAY"
	// OrderStatusDelivered — заказ вручён клиенту (только доставка).
	OrderStatusDelivered OrderStatus = "DELIVERED"
	// OrderStatusCompleted — заказ закрыт, терминальный статус.
	OrderStatusCompleted OrderStatus = "COMPLETED"
	// OrderStatusCancelled — заказ отменён, терминальный статус.
	OrderStatusCancelled OrderStatus = "CANCELLED"
	// OrderStatusRejected — заказ отклонён мерчантом, терминальный статус.
	OrderStatusRejected OrderStatus = "REJECTED"
)

// AllStatuses перечисляет все статусы жизненного цикла.
var AllStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusAccepted,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusDispatched,
	OrderStatusOnTheWay,
	OrderStatusDelivered,
	OrderStatusCompleted,
	OrderStatusCancelled,
	OrderStatusRejected,
}

// ParseStatus нормализует строку к известному статусу.
func ParseStatus(s string) (OrderStatus, bool) {
	for _, st := range AllStatuses {
		if strings.EqualFold(s, string(st)) {
			return st, true
		}
	}
	return "", false
}

// IsTerminal сообщает, допускает ли статус дальнейшие переходы.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusCancelled, OrderStatusRejected:
		return true
	}
	return false
}

// OrderType — канал продажи заказа.
type OrderType string

const (
	OrderTypePOS    OrderType = "pos"
	OrderTypeOnline OrderType = "online"
)

// FulfillmentType — способ исполнения заказа.
type FulfillmentType string

const (
	FulfillmentDelivery FulfillmentType = "delivery"
	FulfillmentTakeaway FulfillmentType = "takeaway"
	FulfillmentInHouse  FulfillmentType = "in_house"
)

// IsDelivery сообщает, относится ли заказ к доставочному графу статусов.
func (f FulfillmentType) IsDelivery() bool {
	return strings.Contains(strings.ToLower(string(f)), "delivery")
}

// ItemVariant — выбранная модификация позиции (размер, добавка) с надбавкой к цене.
type ItemVariant struct {
	Name            string `json:"name"`
	PriceDeltaMinor int64  `json:"price_delta_minor"`
}

// OrderItem представляет одну позицию заказа.
type OrderItem struct {
	Name string `json:"name"`
	// UnitPriceMinor — цена за единицу в минимальных денежных единицах.
	UnitPriceMinor int64 `json:"unit_price_minor"`
	Qty            int32 `json:"qty"`
	// LineTotalMinor считается бэкендом, на клиенте не пересчитывается.
	LineTotalMinor int64         `json:"line_total_minor"`
	Variants       []ItemVariant `json:"variants,omitempty"`
}

// Order — каноническая единица состояния витрины заказов.
// Суммы авторитетны со стороны бэкенда и никогда не пересчитываются здесь.
type Order struct {
	// ID неизменяем после создания записи.
	ID string `json:"id"`
	// OrderNumber — человекочитаемый номер; событие может нести только его.
	OrderNumber     string          `json:"order_number"`
	OrderType       OrderType       `json:"order_type"`
	FulfillmentType FulfillmentType `json:"fulfillment_type"`
	Status          OrderStatus     `json:"status"`

	TotalMinor    int64  `json:"total_minor"`
	SubtotalMinor int64  `json:"subtotal_minor"`
	TaxMinor      int64  `json:"tax_minor"`
	PaymentMethod string `json:"payment_method,omitempty"`

	Items []OrderItem `json:"items,omitempty"`

	DeliveryAddress string   `json:"delivery_address,omitempty"`
	DeliveryLat     *float64 `json:"delivery_lat,omitempty"`
	DeliveryLng     *float64 `json:"delivery_lng,omitempty"`
	RiderID         string   `json:"rider_id,omitempty"`

	// CustomerName пуст для walk-in клиентов.
	CustomerName string    `json:"customer_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
