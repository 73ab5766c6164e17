package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordersync/internal/channel"
)

// Типы кадров протокола поверх websocket: управляющие subscribe/unsubscribe
// от клиента и message с полезной нагрузкой от сервера.
const (
	frameSubscribe   = "subscribe"
	frameUnsubscribe = "unsubscribe"
	frameMessage     = "message"
)

// frame — JSON-кадр поверх websocket-соединения.
type frame struct {
	Type    string          `json:"type"`
	Topic   string          `json:"topic,omitempty"`
	Session string          `json:"session,omitempty"`
	Body    json.RawMessage `json:"body,omitempty"`
}

// Client — websocket-реализация транспортной способности live-канала.
type Client struct {
	url       string
	header    http.Header
	sessionID string
	logger    *log.Entry

	mu      sync.Mutex
	writeMu sync.Mutex
	conn    *websocket.Conn
	subs    map[string]func([]byte)
	closed  bool
	// gen растёт на каждом Connect и Disconnect: dial-горутина, пережившая
	// смену поколения, закрывает своё соединение и не трогает состояние.
	gen     uint64
	onError func(error)
}

// NewClient создаёт клиент для ws-эндпоинта бэкенда. Токен уходит в
// заголовок авторизации при рукопожатии.
func NewClient(url, bearerToken string) *Client {
	header := http.Header{}
	if bearerToken != "" {
		header.Set("Authorization", "Bearer "+bearerToken)
	}
	sessionID := uuid.NewString()
	header.Set("X-Session-ID", sessionID)

	return &Client{
		url:       url,
		header:    header,
		sessionID: sessionID,
		logger:    log.WithField("component", "ws-transport"),
		subs:      make(map[string]func([]byte)),
	}
}

// Connect открывает соединение асинхронно. Если к моменту завершения
// рукопожатия поколение сменилось (teardown или новый Connect в полёте),
// соединение тихо закрывается и колбэки не вызываются.
func (c *Client) Connect(onSuccess func(), onError func(error)) error {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return errors.New("ws: already connected")
	}
	c.closed = false
	c.onError = onError
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	go func() {
		conn, resp, err := websocket.DefaultDialer.Dial(c.url, c.header)
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}

		c.mu.Lock()
		stale := c.closed || c.gen != gen
		if !stale && err == nil {
			c.conn = conn
		}
		c.mu.Unlock()

		if stale {
			if conn != nil {
				_ = conn.Close()
			}
			return
		}
		if err != nil {
			onError(err)
			return
		}

		go c.readPump(conn)
		c.logger.WithField("session", c.sessionID).Info("websocket connected")
		onSuccess()
	}()
	return nil
}

// Subscribe отправляет управляющий кадр и регистрирует обработчик топика.
func (c *Client) Subscribe(topic string, onMessage func(body []byte)) (channel.Subscription, error) {
	c.mu.Lock()
	conn := c.conn
	if conn == nil || c.closed {
		c.mu.Unlock()
		return nil, errors.New("ws: not connected")
	}
	c.subs[topic] = onMessage
	c.mu.Unlock()

	if err := c.writeFrame(conn, frame{Type: frameSubscribe, Topic: topic, Session: c.sessionID}); err != nil {
		c.mu.Lock()
		delete(c.subs, topic)
		c.mu.Unlock()
		return nil, err
	}
	return &subscription{client: c, topic: topic}, nil
}

// Disconnect идемпотентно закрывает соединение; терпимо к уже закрытому.
func (c *Client) Disconnect() {
	c.mu.Lock()
	if c.closed && c.conn == nil {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.gen++
	conn := c.conn
	c.conn = nil
	c.subs = make(map[string]func([]byte))
	c.mu.Unlock()

	if conn != nil {
		c.writeMu.Lock()
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		_ = conn.Close()
	}
}

// Connected сообщает, открыт ли транспортный уровень.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil && !c.closed
}

func (c *Client) readPump(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			wasClosed := c.closed || c.conn != conn
			onError := c.onError
			c.mu.Unlock()

			if !wasClosed && onError != nil {
				onError(err)
			}
			return
		}

		var f frame
		if err := json.Unmarshal(raw, &f); err != nil {
			c.logger.WithError(err).Warn("dropping malformed frame")
			continue
		}
		if f.Type != frameMessage {
			continue
		}

		c.mu.Lock()
		handler := c.subs[f.Topic]
		c.mu.Unlock()
		if handler != nil {
			handler(f.Body)
		}
	}
}

func (c *Client) writeFrame(conn *websocket.Conn, f frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteJSON(f)
}

// subscription — активная подписка; Unsubscribe снимает обработчик и
// отправляет управляющий кадр, если соединение ещё живо.
type subscription struct {
	client *Client
	topic  string
}

func (s *subscription) Unsubscribe() {
	c := s.client
	c.mu.Lock()
	delete(c.subs, s.topic)
	conn := c.conn
	closed := c.closed
	c.mu.Unlock()

	if conn != nil && !closed {
		_ = c.writeFrame(conn, frame{Type: frameUnsubscribe, Topic: s.topic, Session: c.sessionID})
	}
}

var _ channel.Transport = (*Client)(nil)
