package domain

import "time"

// NonDestructiveFields — поля, которые upstream иногда опускает в событиях
// обновления, но которые не должны «исчезать» из витрины при наивном merge.
// Для них пустое/отсутствующее значение в событии означает «оставить как есть»,
// а не «обнулить».
var NonDestructiveFields = []string{"order_type", "fulfillment_type", "items", "customer_name"}

// OrderPatch — частичное обновление заказа из push-события.
// nil-поле означает, что событие это поле не несло.
type OrderPatch struct {
	ID              *string          `json:"id"`
	OrderNumber     *string          `json:"order_number"`
	OrderType       *OrderType       `json:"order_type"`
	FulfillmentType *FulfillmentType `json:"fulfillment_type"`
	Status          *OrderStatus     `json:"status"`

	TotalMinor    *int64  `json:"total_minor"`
	SubtotalMinor *int64  `json:"subtotal_minor"`
	TaxMinor      *int64  `json:"tax_minor"`
	PaymentMethod *string `json:"payment_method"`

	Items []OrderItem `json:"items"`

	DeliveryAddress *string  `json:"delivery_address"`
	DeliveryLat     *float64 `json:"delivery_lat"`
	DeliveryLng     *float64 `json:"delivery_lng"`
	RiderID         *string  `json:"rider_id"`

	CustomerName *string    `json:"customer_name"`
	CreatedAt    *time.Time `json:"created_at"`
}

// Matches сопоставляет патч с существующим заказом по двум ключам:
// совпадение по id ИЛИ по order_number. Двойной ключ нужен потому,
// что часть путей обновления несёт только один из идентификаторов.
func (p OrderPatch) Matches(o Order) bool {
	if p.ID != nil && *p.ID != "" && *p.ID == o.ID {
		return true
	}
	if p.OrderNumber != nil && *p.OrderNumber != "" && *p.OrderNumber == o.OrderNumber {
		return true
	}
	return false
}

// NewOrder материализует заказ из патча, для которого не нашлось записи.
func (p OrderPatch) NewOrder() Order {
	return MergeOrder(Order{}, p)
}

// MergeOrder — чистая функция слияния: база — существующая запись, поверх
// накладываются присутствующие поля патча. Поля из NonDestructiveFields
// сохраняют базовое значение, если в патче они отсутствуют или пусты.
func MergeOrder(base Order, p OrderPatch) Order {
	out := base

	// id неизменяем: заполняем только пустую базу.
	if out.ID == "" && p.ID != nil {
		out.ID = *p.ID
	}
	if p.OrderNumber != nil && *p.OrderNumber != "" {
		out.OrderNumber = *p.OrderNumber
	}
	if p.Status != nil && *p.Status != "" {
		if st, ok := ParseStatus(string(*p.Status)); ok {
			out.Status = st
		} else {
			out.Status = *p.Status
		}
	}

	if p.TotalMinor != nil {
		out.TotalMinor = *p.TotalMinor
	}
	if p.SubtotalMinor != nil {
		out.SubtotalMinor = *p.SubtotalMinor
	}
	if p.TaxMinor != nil {
		out.TaxMinor = *p.TaxMinor
	}
	if p.PaymentMethod != nil {
		out.PaymentMethod = *p.PaymentMethod
	}

	if p.DeliveryAddress != nil {
		out.DeliveryAddress = *p.DeliveryAddress
	}
	if p.DeliveryLat != nil {
		out.DeliveryLat = p.DeliveryLat
	}
	if p.DeliveryLng != nil {
		out.DeliveryLng = p.DeliveryLng
	}
	if p.RiderID != nil {
		out.RiderID = *p.RiderID
	}
	if p.CreatedAt != nil && !p.CreatedAt.IsZero() {
		out.CreatedAt = *p.CreatedAt
	}

	// Защищённые поля: пустое значение в событии не затирает базу.
	if p.OrderType != nil && *p.OrderType != "" {
		out.OrderType = *p.OrderType
	}
	if p.FulfillmentType != nil && *p.FulfillmentType != "" {
		out.FulfillmentType = *p.FulfillmentType
	}
	if len(p.Items) > 0 {
		out.Items = p.Items
	}
	if p.CustomerName != nil && *p.CustomerName != "" {
		out.CustomerName = *p.CustomerName
	}

	return out
}
