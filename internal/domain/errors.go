package domain

import "errors"

var (
	// ErrCredentialMissing — нет токена или арендатора; операция прерывается сразу.
	ErrCredentialMissing = errors.New("credential missing")
	// ErrOrderNotFound возвращается, если заказ не найден в коллекции.
	ErrOrderNotFound = errors.New("order not found")
	// ErrInvalidTransition — запрошенный переход статуса недостижим из текущего.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrUnknownStatus — строка не соответствует ни одному статусу жизненного цикла.
	ErrUnknownStatus = errors.New("unknown order status")
)

// IsInvalidTransition проверяет, является ли ошибка отказом перехода статуса.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}
