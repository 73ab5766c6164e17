package channel

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordersync/internal/domain"
)

// ErrChannelBusy — попытка подключения уже в полёте.
var ErrChannelBusy = errors.New("connection attempt already in flight")

// Config задаёт тайминги канала. Таймеры простые, без jitter.
type Config struct {
	TenantID string
	// ConnectTimeout — предел ожидания успеха одной попытки.
	ConnectTimeout time.Duration
	// ReconnectDelay — фиксированная пауза перед повтором.
	ReconnectDelay time.Duration
	// RefreshPause — краткая пауза внутри ручного цикла переподключения.
	RefreshPause time.Duration
	// MaxReconnectAttempts — предел попыток до деградации в опрос.
	MaxReconnectAttempts int
	// PollInterval — период опроса в деградированном режиме.
	PollInterval time.Duration
}

// DefaultConfig возвращает тайминги по умолчанию.
func DefaultConfig(tenantID string) Config {
	return Config{
		TenantID:             tenantID,
		ConnectTimeout:       15 * time.Second,
		ReconnectDelay:       5 * time.Second,
		RefreshPause:         time.Second,
		MaxReconnectAttempts: 3,
		PollInterval:         30 * time.Second,
	}
}

// Handlers — выходы канала наверх, к reconciler-у и snapshot-загрузчику.
type Handlers struct {
	// OnUpsert получает разобранное частичное обновление заказа.
	OnUpsert func(domain.OrderPatch)
	// OnDelete получает идентификатор удалённого заказа.
	OnDelete func(orderID string)
	// Snapshot запрашивает немедленную snapshot-загрузку (деградация, опрос, refresh).
	Snapshot func()
	// OnStateChange уведомляет о смене состояния соединения.
	OnStateChange func(State, error)
}

// Channel — live-канал обновлений заказов: машина состояний из machine.go
// плюс исполнитель эффектов. Все входы сводятся в один цикл, поэтому
// доставка строго последовательна, а после teardown ни один опоздавший
// колбэк не мутирует состояние: его событие просто не будет принято.
type Channel struct {
	cfg       Config
	transport Transport
	handlers  Handlers
	logger    *log.Entry

	events    chan event
	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	mu sync.RWMutex
	ms machineState

	// Ресурсы исполнителя; трогает только цикл run.
	connectTimer *time.Timer
	retryTimer   *time.Timer
	pollStop     chan struct{}
	subs         []Subscription
}

// New создаёт канал и запускает его цикл. Подключение инициируется Connect-ом.
func New(cfg Config, transport Transport, handlers Handlers) *Channel {
	c := &Channel{
		cfg:       cfg,
		transport: transport,
		handlers:  handlers,
		logger:    log.WithField("component", "live-channel"),
		events:    make(chan event, 64),
		closed:    make(chan struct{}),
		ms:        machineState{state: StateDisconnected},
	}
	c.wg.Add(1)
	go c.run()
	return c
}

// Connect запрашивает подключение. Возвращает ErrChannelBusy, если попытка
// уже в полёте: перекрывающиеся connect-ы не коалесцируются молча на уровне
// API, чтобы вызвавший мог отличить отказ от принятого запроса.
func (c *Channel) Connect() error {
	if c.StateNow() == StateConnecting {
		return ErrChannelBusy
	}
	c.post(event{kind: evConnectRequested})
	return nil
}

// Disconnect идемпотентно отключает канал: отменяет ожидающие таймеры и
// опрос, закрывает подписки и транспорт. После возврата никакой колбэк
// не изменит коллекцию.
func (c *Channel) Disconnect() {
	c.post(event{kind: evDisconnectRequested})
}

// Refresh запускает ручное обновление: при живом канале — полный цикл
// переподключения, иначе — прямую snapshot-загрузку.
func (c *Channel) Refresh() {
	c.post(event{kind: evRefreshRequested})
}

// Close окончательно останавливает цикл канала (teardown при размонтировании).
func (c *Channel) Close() {
	c.closeOnce.Do(func() { close(c.closed) })
	c.wg.Wait()
}

// Live сообщает, доставляются ли сейчас события по подписке.
func (c *Channel) Live() bool {
	return c.StateNow() == StateConnected
}

// StateNow возвращает текущее состояние машины соединения.
func (c *Channel) StateNow() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ms.state
}

// LastError возвращает последнюю ошибку соединения, если она была.
func (c *Channel) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ms.lastErr
}

// post подаёт событие в цикл; после Close события отбрасываются.
func (c *Channel) post(ev event) {
	select {
	case <-c.closed:
	case c.events <- ev:
	}
}

func (c *Channel) run() {
	defer c.wg.Done()
	for {
		select {
		case <-c.closed:
			c.cleanup()
			return
		case ev := <-c.events:
			c.mu.RLock()
			cur := c.ms
			c.mu.RUnlock()

			next, effects := transition(cur, ev, c.cfg.MaxReconnectAttempts)

			c.mu.Lock()
			c.ms = next
			c.mu.Unlock()

			c.apply(next, effects, ev)
		}
	}
}

// apply исполняет эффекты перехода. Выполняется только в цикле run.
func (c *Channel) apply(ns machineState, effects []effectKind, ev event) {
	for _, fx := range effects {
		switch fx {
		case fxDial:
			c.dial(ns.seq)
		case fxTeardown:
			c.teardown()
		case fxSubscribe:
			c.subscribe(ns.seq)
		case fxArmConnectTimer:
			c.armTimer(&c.connectTimer, c.cfg.ConnectTimeout, event{kind: evConnectTimeout, seq: ns.seq, err: errTimeout})
		case fxCancelConnectTimer:
			c.cancelTimer(&c.connectTimer)
		case fxArmRetryTimer:
			c.armTimer(&c.retryTimer, c.cfg.ReconnectDelay, event{kind: evRetryDue, seq: ns.seq})
		case fxCancelRetryTimer:
			c.cancelTimer(&c.retryTimer)
		case fxArmRefreshPause:
			c.armTimer(&c.retryTimer, c.cfg.RefreshPause, event{kind: evPauseDone, seq: ns.seq})
		case fxStartPolling:
			c.startPolling()
		case fxStopPolling:
			c.stopPolling()
		case fxSnapshot:
			if c.handlers.Snapshot != nil {
				// Загрузка ходит в сеть; не блокируем цикл.
				go c.handlers.Snapshot()
			}
		case fxNotify:
			c.logger.WithField("state", ns.state).Debug("connection state changed")
			if c.handlers.OnStateChange != nil {
				c.handlers.OnStateChange(ns.state, ns.lastErr)
			}
		case fxDispatchUpsert:
			c.dispatchUpsert(ev.payload)
		case fxDispatchDelete:
			c.dispatchDelete(ev.payload)
		}
	}
}

var errTimeout = errors.New("connection attempt timed out")

func (c *Channel) dial(seq uint64) {
	err := c.transport.Connect(
		func() { c.post(event{kind: evDialSucceeded, seq: seq}) },
		func(err error) { c.post(event{kind: evDialFailed, seq: seq, err: err}) },
	)
	if err != nil {
		c.post(event{kind: evDialFailed, seq: seq, err: err})
	}
}

// subscribe устанавливает обе логические подписки арендатора.
// Ошибка подписки эквивалентна потере транспорта.
func (c *Channel) subscribe(seq uint64) {
	upserts, err := c.transport.Subscribe(TopicOrders(c.cfg.TenantID), func(body []byte) {
		c.post(event{kind: evUpsertMsg, seq: seq, payload: body})
	})
	if err != nil {
		c.post(event{kind: evTransportLost, seq: seq, err: err})
		return
	}
	c.subs = append(c.subs, upserts)

	deletions, err := c.transport.Subscribe(TopicOrderDeletions(c.cfg.TenantID), func(body []byte) {
		c.post(event{kind: evDeleteMsg, seq: seq, payload: body})
	})
	if err != nil {
		c.post(event{kind: evTransportLost, seq: seq, err: err})
		return
	}
	c.subs = append(c.subs, deletions)

	c.logger.WithField("tenant", c.cfg.TenantID).Info("live subscriptions established")
}

// teardown закрывает подписки и транспорт; терпимо к уже закрытому соединению.
func (c *Channel) teardown() {
	for _, sub := range c.subs {
		sub.Unsubscribe()
	}
	c.subs = nil
	c.transport.Disconnect()
}

func (c *Channel) armTimer(slot **time.Timer, d time.Duration, ev event) {
	c.cancelTimerSlot(slot)
	*slot = time.AfterFunc(d, func() { c.post(ev) })
}

func (c *Channel) cancelTimer(slot **time.Timer) {
	c.cancelTimerSlot(slot)
}

func (c *Channel) cancelTimerSlot(slot **time.Timer) {
	if *slot != nil {
		(*slot).Stop()
		*slot = nil
	}
}

func (c *Channel) startPolling() {
	if c.pollStop != nil {
		return
	}
	stop := make(chan struct{})
	c.pollStop = stop

	go func() {
		ticker := time.NewTicker(c.cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-c.closed:
				return
			case <-ticker.C:
				c.post(event{kind: evPollDue})
			}
		}
	}()
	c.logger.WithField("interval", c.cfg.PollInterval).Warn("live channel degraded, polling fallback started")
}

func (c *Channel) stopPolling() {
	if c.pollStop != nil {
		close(c.pollStop)
		c.pollStop = nil
	}
}

func (c *Channel) dispatchUpsert(body []byte) {
	var patch domain.OrderPatch
	if err := json.Unmarshal(body, &patch); err != nil {
		c.logger.WithError(err).Warn("dropping malformed order update")
		return
	}
	if c.handlers.OnUpsert != nil {
		c.handlers.OnUpsert(patch)
	}
}

// dispatchDelete принимает идентификатор как JSON-строку или объект {"id": ...}.
func (c *Channel) dispatchDelete(body []byte) {
	var id string
	if err := json.Unmarshal(body, &id); err != nil {
		var obj struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(body, &obj); err != nil || obj.ID == "" {
			c.logger.Warn("dropping malformed order deletion")
			return
		}
		id = obj.ID
	}
	if c.handlers.OnDelete != nil {
		c.handlers.OnDelete(id)
	}
}

func (c *Channel) cleanup() {
	c.cancelTimerSlot(&c.connectTimer)
	c.cancelTimerSlot(&c.retryTimer)
	c.stopPolling()
	c.teardown()

	c.mu.Lock()
	c.ms = machineState{state: StateDisconnected, seq: c.ms.seq + 1}
	c.mu.Unlock()
}
