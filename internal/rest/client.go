package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordersync/internal/domain"
)

// CredentialProvider выдаёт учётные данные сессии. Токен и арендатор —
// непрозрачные строки; их отсутствие означает немедленный отказ операции.
type CredentialProvider interface {
	Token() string
	TenantID() string
}

// StaticCredentials — простая реализация поверх фиксированных значений.
type StaticCredentials struct {
	BearerToken string
	Tenant      string
}

func (s StaticCredentials) Token() string    { return s.BearerToken }
func (s StaticCredentials) TenantID() string { return s.Tenant }

// Client — HTTP-клиент бэкенда заказов: snapshot-загрузка и смена статуса.
type Client struct {
	httpc   *http.Client
	baseURL string
	creds   CredentialProvider
	logger  *log.Entry
}

// NewClient создаёт клиент бэкенда с таймаутом на запрос.
func NewClient(baseURL string, creds CredentialProvider, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpc:   &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		logger:  log.WithField("component", "rest-client"),
	}
}

// envelope — формат ответа бэкенда: {success, data} либо {message}.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// LoadSnapshot выполняет один GET и возвращает полный список заказов арендатора.
func (c *Client) LoadSnapshot(ctx context.Context) ([]domain.Order, error) {
	if err := c.checkCredentials(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/orders", nil)
	if err != nil {
		return nil, fmt.Errorf("build snapshot request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &TransportError{Kind: KindNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Kind: KindNetwork, StatusCode: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errorFromBody(resp.StatusCode, body)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		// ParseError сводится к транспортной ошибке; текст — сырое тело.
		return nil, &TransportError{Kind: KindParse, StatusCode: resp.StatusCode, Message: rawMessage(body, resp.StatusCode)}
	}

	var orders []domain.Order
	if err := json.Unmarshal(env.Data, &orders); err != nil {
		return nil, &TransportError{Kind: KindParse, StatusCode: resp.StatusCode, Message: "malformed order list: " + err.Error()}
	}

	c.logger.WithField("orders", len(orders)).Debug("snapshot loaded")
	return orders, nil
}

// UpdateStatus запрашивает смену статуса заказа на бэкенде.
// Валидность перехода проверяется вызывающей стороной до сетевого вызова.
func (c *Client) UpdateStatus(ctx context.Context, orderID string, next domain.OrderStatus) error {
	if err := c.checkCredentials(); err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]string{"status": string(next)})
	if err != nil {
		return fmt.Errorf("encode status payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch,
		c.baseURL+"/orders/"+orderID+"/status", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build status request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return &TransportError{Kind: KindNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return errorFromBody(resp.StatusCode, body)
	}
	return nil
}

func (c *Client) checkCredentials() error {
	if c.creds == nil || c.creds.Token() == "" || c.creds.TenantID() == "" {
		return domain.ErrCredentialMissing
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.creds.Token())
	req.Header.Set("X-Tenant-ID", c.creds.TenantID())
}

// errorFromBody пытается вытащить структурированное сообщение {message};
// если тело не парсится, берётся сырой текст либо фраза HTTP-статуса.
func errorFromBody(status int, body []byte) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Message != "" {
		return &TransportError{Kind: KindHTTP, StatusCode: status, Message: env.Message}
	}
	return &TransportError{Kind: KindHTTP, StatusCode: status, Message: rawMessage(body, status)}
}

func rawMessage(body []byte, status int) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return http.StatusText(status)
	}
	return text
}
