package domain

import "errors"

// Application errors
var (
	// ErrNotFound запись не найдена
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput неверные входные данные
	ErrInvalidInput = errors.New("invalid input data")

	// ErrGatewayUnavailable платежный шлюз не сконфигурирован или недоступен
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// ErrCustomerNotFound у пользователя нет записи клиента в платежном провайдере
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrWebhookValidationFailed не удалось проверить подпись вебхука
	ErrWebhookValidationFailed = errors.New("webhook validation failed")
)
