package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/ordersync/internal/domain"
)

// OrderCollection — каноническая коллекция заказов в памяти.
// Порядок вставки сохраняется: новые заказы из live-событий встают в начало,
// обновления не меняют позицию. Мутируется только reconciler-ом; фильтр и
// HTTP-слой читают копии.
type OrderCollection struct {
	mu     sync.RWMutex
	orders []domain.Order
}

// NewOrderCollection создаёт пустую коллекцию; живёт в рамках одной сессии.
func NewOrderCollection() *OrderCollection {
	return &OrderCollection{}
}

// ReplaceAll целиком заменяет коллекцию результатом snapshot-запроса.
// Порядок берётся как есть из ответа бэкенда.
func (c *OrderCollection) ReplaceAll(orders []domain.Order) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Храним копию, чтобы избежать мутаций извне.
	c.orders = make([]domain.Order, len(orders))
	copy(c.orders, orders)
}

// Clear опустошает коллекцию.
func (c *OrderCollection) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orders = nil
}

// ApplyUpsert применяет частичное событие: совпадение ищется по двум ключам
// (id или order_number), при совпадении выполняется merge с сохранением
// позиции, иначе заказ вставляется в начало. Возвращает итоговую запись и
// признак того, что запись новая.
func (c *OrderCollection) ApplyUpsert(patch domain.OrderPatch) (domain.Order, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.orders {
		if patch.Matches(c.orders[i]) {
			merged := domain.MergeOrder(c.orders[i], patch)
			c.orders[i] = merged
			return merged, false
		}
	}

	created := patch.NewOrder()
	c.orders = append([]domain.Order{created}, c.orders...)
	return created, true
}

// ApplyDelete удаляет заказ по id; отсутствие записи — no-op.
func (c *OrderCollection) ApplyDelete(orderID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.orders {
		if c.orders[i].ID == orderID {
			c.orders = append(c.orders[:i], c.orders[i+1:]...)
			return true
		}
	}
	return false
}

// Get возвращает заказ или ErrOrderNotFound.
func (c *OrderCollection) Get(orderID string) (domain.Order, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for i := range c.orders {
		if c.orders[i].ID == orderID {
			return c.orders[i], nil
		}
	}
	return domain.Order{}, domain.ErrOrderNotFound
}

// List возвращает копию коллекции в каноническом порядке.
func (c *OrderCollection) List() []domain.Order {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Order, len(c.orders))
	copy(out, c.orders)
	return out
}

// Len возвращает размер коллекции.
func (c *OrderCollection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.orders)
}
