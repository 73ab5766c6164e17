package app

import "time"

// Config описывает настройки запуска приложения.
type Config struct {
	// ListenAddr — адрес HTTP API сервиса.
	ListenAddr string
	// MetricsAddr — адрес служебного HTTP (метрики и health checks).
	MetricsAddr string
	// BackendBaseURL — базовый URL backend-а заказов (snapshot и статусы).
	BackendBaseURL string
	// WSURL — адрес websocket-канала live-обновлений.
	WSURL string
	// TenantID — арендатор, чьи заказы зеркалирует сервис.
	TenantID string
	// AuthToken — bearer-токен для backend-а и канала.
	AuthToken string
	// RequestTimeout — таймаут HTTP-запросов к backend-у.
	RequestTimeout time.Duration
}

// DefaultConfig возвращает базовые адреса и тайминги.
func DefaultConfig() Config {
	return Config{
		ListenAddr:     ":8080",
		MetricsAddr:    ":9090",
		BackendBaseURL: "http://localhost:3000/api",
		WSURL:          "ws://localhost:3000/ws",
		RequestTimeout: 10 * time.Second,
	}
}
