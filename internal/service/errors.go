// Пакет service — бизнес-логика поверх репозиториев.
package service

import "errors"

// Ошибки сервисного слоя. Handlers маппят их на HTTP статус-коды.
var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrConflict — дублирующийся ресурс.
	ErrConflict = errors.New("ресурс уже существует")
	// ErrValidation — некорректные входные данные.
	ErrValidation = errors.New("некорректные данные")
	// ErrInvalidCredentials — неверный aadhaar или пароль.
	ErrInvalidCredentials = errors.New("неверные учётные данные")
	// ErrForbidden — операция запрещена для данного пользователя.
	ErrForbidden = errors.New("доступ запрещён")
)
