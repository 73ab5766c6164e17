package channel

// Transport — потребляемая каналом pub/sub-способность. Канал не реализует
// транспорт сам: websocket-клиент (или фейк в тестах) подставляется снаружи.
type Transport interface {
	// Connect открывает соединение асинхронно; ровно один из колбэков
	// будет вызван по завершении попытки.
	Connect(onSuccess func(), onError func(error)) error
	// Subscribe устанавливает логическую подписку на топик.
	Subscribe(topic string, onMessage func(body []byte)) (Subscription, error)
	// Disconnect закрывает соединение; повторные вызовы безопасны.
	Disconnect()
	// Connected сообщает, открыт ли транспортный уровень.
	Connected() bool
}

// Subscription — активная подписка на топик.
type Subscription interface {
	Unsubscribe()
}

// TopicOrders — топик upsert-событий арендатора.
func TopicOrders(tenantID string) string {
	return "/topic/orders/" + tenantID
}

// TopicOrderDeletions — топик событий удаления арендатора.
func TopicOrderDeletions(tenantID string) string {
	return TopicOrders(tenantID) + "/deleted"
}
