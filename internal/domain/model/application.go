package model

import "time"

// Application — заявка на государственный документ (passport, pan, ...).
// Хранится в таблице applications.
type Application struct {
	// ID — первичный ключ
	ID int64
	// UserID — владелец заявки (FK на users)
	UserID int64
	// ApplicationType — тип документа, свободная строка
	ApplicationType string
	// Status — статус заявки (Pending, Approved, Rejected)
	Status string
	// RejectionReason — причина отклонения (имеет смысл только при Rejected)
	RejectionReason *string
	// CreatedAt — время подачи, не меняется
	CreatedAt time.Time
	// UpdatedAt — обновляется при каждой мутации
	UpdatedAt time.Time
}
