package rest

import (
	"errors"
	"fmt"
)

// ErrorKind классифицирует транспортные ошибки snapshot-загрузчика.
type ErrorKind string

const (
	// KindNetwork — сетевой сбой до получения ответа.
	KindNetwork ErrorKind = "network"
	// KindHTTP — ответ с не-2xx статусом.
	KindHTTP ErrorKind = "http"
	// KindParse — тело не разобралось как ожидаемый JSON; для восстановления
	// трактуется так же, как транспортная ошибка.
	KindParse ErrorKind = "parse"
)

// TransportError — типизированная ошибка обращения к бэкенду.
type TransportError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("backend request failed (%s, status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend request failed (%s): %s", e.Kind, e.Message)
}

// IsTransportError проверяет и извлекает транспортную ошибку.
func IsTransportError(err error) (*TransportError, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}
