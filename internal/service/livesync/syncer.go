package livesync

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordersync/internal/channel"
	"github.com/vladislavdragonenkov/ordersync/internal/domain"
	"github.com/vladislavdragonenkov/ordersync/internal/metrics"
	"github.com/vladislavdragonenkov/ordersync/internal/storage/memory"
)

// Backend — REST-способность бэкенда заказов, потребляемая синхронизатором.
type Backend interface {
	LoadSnapshot(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, next domain.OrderStatus) error
}

// Syncer связывает snapshot-загрузчик, live-канал и каноническую коллекцию.
// Это верхний API ядра: UI-слой читает коллекцию и отфильтрованные виды,
// дёргает refresh/updateStatus/connect/disconnect.
type Syncer struct {
	backend    Backend
	channel    *channel.Channel
	collection *memory.OrderCollection
	metrics    *metrics.SyncMetrics
	logger     *log.Entry

	mu              sync.RWMutex
	lastSnapshotErr error
}

// New создаёт синхронизатор и его live-канал. Канал запускается сразу,
// но подключение инициируется только Start-ом или Connect-ом.
func New(backend Backend, transport channel.Transport, cfg channel.Config, m *metrics.SyncMetrics) *Syncer {
	s := &Syncer{
		backend:    backend,
		collection: memory.NewOrderCollection(),
		metrics:    m,
		logger:     log.WithField("component", "livesync"),
	}

	s.channel = channel.New(cfg, transport, channel.Handlers{
		OnUpsert:      s.applyUpsert,
		OnDelete:      s.applyDelete,
		Snapshot:      func() { _ = s.loadSnapshot(context.Background()) },
		OnStateChange: s.onStateChange,
	})
	return s
}

// Start выполняет начальную snapshot-загрузку и подключает live-канал.
// Ошибка начальной загрузки не фатальна: канал всё равно подключается,
// а ошибка остаётся видимой через LastError.
func (s *Syncer) Start(ctx context.Context) error {
	if err := s.loadSnapshot(ctx); err != nil {
		s.logger.WithError(err).Warn("initial snapshot failed")
	}
	return s.channel.Connect()
}

// Close окончательно останавливает канал (teardown при размонтировании).
func (s *Syncer) Close() {
	s.channel.Close()
}

// Orders возвращает каноническую коллекцию в её порядке.
func (s *Syncer) Orders() []domain.Order {
	return s.collection.List()
}

// Filtered возвращает отображаемое подмножество по критерию.
func (s *Syncer) Filtered(criterion domain.FilterCriterion) []domain.Order {
	return domain.FilterOrders(s.collection.List(), criterion)
}

// Get возвращает заказ по id.
func (s *Syncer) Get(orderID string) (domain.Order, error) {
	return s.collection.Get(orderID)
}

// Live сообщает, доставляются ли события по подписке.
func (s *Syncer) Live() bool {
	return s.channel.Live()
}

// ConnectionState возвращает состояние машины соединения.
func (s *Syncer) ConnectionState() channel.State {
	return s.channel.StateNow()
}

// LastError возвращает последнюю ошибку канала либо snapshot-загрузки.
func (s *Syncer) LastError() error {
	if err := s.channel.LastError(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSnapshotErr
}

// Connect запрашивает подключение live-канала.
func (s *Syncer) Connect() error {
	return s.channel.Connect()
}

// Disconnect идемпотентно отключает live-канал.
func (s *Syncer) Disconnect() {
	s.channel.Disconnect()
}

// Refresh — ручное обновление: при живом канале выполняется полный цикл
// переподключения, иначе — прямая snapshot-загрузка.
func (s *Syncer) Refresh(ctx context.Context) error {
	if s.channel.Live() {
		s.channel.Refresh()
		return nil
	}
	return s.loadSnapshot(ctx)
}

// UpdateStatus валидирует переход статуса локально и только затем идёт в
// бэкенд; недостижимый переход отклоняется без сетевого вызова. Коллекция
// не мутируется: авторитетное обновление придёт live-событием или snapshot-ом.
func (s *Syncer) UpdateStatus(ctx context.Context, orderID, nextStatus string) error {
	order, err := s.collection.Get(orderID)
	if err != nil {
		return err
	}

	next, ok := domain.ParseStatus(nextStatus)
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownStatus, nextStatus)
	}

	if !domain.CanTransition(order.Status, next, order.FulfillmentType) {
		return fmt.Errorf("%w: %s -> %s (%s)", domain.ErrInvalidTransition, order.Status, next, order.FulfillmentType)
	}

	return s.backend.UpdateStatus(ctx, orderID, next)
}

// loadSnapshot применяет политику приоритета источников: пока канал live,
// результат snapshot-а не затирает коллекцию — запрос лишь подтверждает
// доступность бэкенда. Вне live успешный snapshot заменяет коллекцию
// целиком, а неуспешный опустошает её, чтобы рядом с индикатором
// "disconnected" не висели устаревшие данные.
func (s *Syncer) loadSnapshot(ctx context.Context) error {
	start := time.Now()
	orders, err := s.backend.LoadSnapshot(ctx)
	elapsed := time.Since(start)

	// Live-флаг проверяется синхронно после получения результата.
	if s.channel.Live() {
		s.recordSnapshot("skipped", elapsed)
		return err
	}

	if err != nil {
		s.collection.Clear()
		s.setSnapshotErr(err)
		s.recordSnapshot("failed", elapsed)
		s.syncSize()
		s.logger.WithError(err).Warn("snapshot load failed")
		return err
	}

	s.collection.ReplaceAll(orders)
	s.setSnapshotErr(nil)
	s.recordSnapshot("ok", elapsed)
	s.syncSize()
	s.logger.WithField("orders", len(orders)).Info("collection replaced from snapshot")
	return nil
}

func (s *Syncer) applyUpsert(patch domain.OrderPatch) {
	order, created := s.collection.ApplyUpsert(patch)
	if s.metrics != nil {
		s.metrics.RecordUpsertApplied()
	}
	s.syncSize()
	s.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"status":   order.Status,
		"created":  created,
	}).Debug("live upsert applied")
}

func (s *Syncer) applyDelete(orderID string) {
	if s.collection.ApplyDelete(orderID) {
		if s.metrics != nil {
			s.metrics.RecordDeleteApplied()
		}
		s.syncSize()
		s.logger.WithField("order_id", orderID).Debug("live deletion applied")
	}
}

func (s *Syncer) onStateChange(state channel.State, err error) {
	if s.metrics != nil {
		s.metrics.SetConnectionState(string(state))
		switch state {
		case channel.StateConnecting:
			s.metrics.RecordReconnectAttempt()
		case channel.StateDegraded:
			s.metrics.RecordDegradedEntry()
		}
	}
	entry := s.logger.WithField("state", state)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Info("live channel state changed")
}

func (s *Syncer) setSnapshotErr(err error) {
	s.mu.Lock()
	s.lastSnapshotErr = err
	s.mu.Unlock()
}

func (s *Syncer) recordSnapshot(result string, elapsed time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordSnapshot(result, elapsed)
	}
}

func (s *Syncer) syncSize() {
	if s.metrics != nil {
		s.metrics.SetCollectionSize(s.collection.Len())
	}
}
