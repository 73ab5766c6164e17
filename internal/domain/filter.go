package domain

import "strings"

// FilterCriterion — выбранная пользователем категория отображения.
type FilterCriterion string

const (
	// FilterAll возвращает коллекцию без изменений.
	FilterAll FilterCriterion = "all"
	// FilterPOS и FilterOnline фильтруют по каналу продажи (подстрока).
	FilterPOS    FilterCriterion = "pos"
	FilterOnline FilterCriterion = "online"
	// FilterDelivery и FilterTakeaway фильтруют по способу исполнения (подстрока).
	FilterDelivery FilterCriterion = "delivery"
	FilterTakeaway FilterCriterion = "takeaway"
	// Статусы жизненного цикла задаются их именем в нижнем регистре ("pending" и т.д.).
)

// FilterOrders — чистая функция: выводит отображаемое подмножество из
// канонической коллекции. Неизвестный критерий возвращает коллекцию целиком.
func FilterOrders(orders []Order, criterion FilterCriterion) []Order {
	c := FilterCriterion(strings.ToLower(strings.TrimSpace(string(criterion))))

	switch c {
	case "", FilterAll:
		// Исходный слайс возвращается как есть: порядок и ссылка сохраняются.
		return orders
	case FilterPOS, FilterOnline:
		return filterBy(orders, func(o Order) bool {
			return strings.Contains(strings.ToLower(string(o.OrderType)), string(c))
		})
	case FilterDelivery, FilterTakeaway:
		return filterBy(orders, func(o Order) bool {
			return strings.Contains(strings.ToLower(string(o.FulfillmentType)), string(c))
		})
	}

	if st, ok := ParseStatus(string(c)); ok {
		return filterBy(orders, func(o Order) bool {
			return strings.EqualFold(string(o.Status), string(st))
		})
	}

	return orders
}

func filterBy(orders []Order, keep func(Order) bool) []Order {
	result := make([]Order, 0, len(orders))
	for _, o := range orders {
		if keep(o) {
			result = append(result, o)
		}
	}
	return result
}
