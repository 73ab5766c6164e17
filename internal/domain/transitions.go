package domain

// Графы допустимых переходов статуса. Граф выбирается по способу исполнения:
// доставка проходит через курьерские стадии, самовывоз и зал — нет.
// Терминальные статусы не имеют исходящих рёбер.
var deliveryTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusAccepted, OrderStatusRejected},
	OrderStatusAccepted:   {OrderStatusPreparing, OrderStatusRejected},
	OrderStatusPreparing:  {OrderStatusReady, OrderStatusRejected},
	OrderStatusReady:      {OrderStatusDispatched, OrderStatusRejected},
	OrderStatusDispatched: {OrderStatusOnTheWay, OrderStatusRejected},
	OrderStatusOnTheWay:   {OrderStatusDelivered, OrderStatusRejected},
	OrderStatusDelivered:  {OrderStatusCompleted},
}

var pickupTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusAccepted, OrderStatusRejected},
	OrderStatusAccepted:  {OrderStatusPreparing, OrderStatusRejected},
	OrderStatusPreparing: {OrderStatusReady, OrderStatusRejected},
	OrderStatusReady:     {OrderStatusCompleted, OrderStatusRejected},
}

// NextStatuses возвращает статусы, достижимые из current для данного способа исполнения.
func NextStatuses(current OrderStatus, fulfillment FulfillmentType) []OrderStatus {
	graph := pickupTransitions
	if fulfillment.IsDelivery() {
		graph = deliveryTransitions
	}
	return graph[current]
}

// CanTransition проверяет, что переход current -> next есть в графе.
// Проверка выполняется в момент запроса смены статуса, до обращения к бэкенду.
func CanTransition(current, next OrderStatus, fulfillment FulfillmentType) bool {
	for _, allowed := range NextStatuses(current, fulfillment) {
		if allowed == next {
			return true
		}
	}
	return false
}
