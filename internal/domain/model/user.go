package model

import "time"

// Роли пользователей.
const (
	// RoleCitizen — обычный гражданин, подаёт заявки.
	RoleCitizen = "citizen"
	// RoleAdmin — администратор, рассматривает заявки.
	RoleAdmin = "admin"
)

// User — пользователь системы.
// Хранится в таблице users. Записи никогда не удаляются.
type User struct {
	// ID — первичный ключ
	ID int64
	// AadhaarNumber — национальный идентификатор, ровно 12 цифр, уникален
	AadhaarNumber string
	// PasswordHash — bcrypt-хэш пароля, открытый пароль не хранится
	PasswordHash string
	// Email — электронная почта, уникальна
	Email string
	// Phone — номер телефона
	Phone string
	// Role — роль (citizen, admin), по умолчанию citizen.
	// Через API не редактируется — администраторы назначаются вне сервиса.
	Role string
	// CreatedAt — время регистрации
	CreatedAt time.Time
}

// IsAdmin возвращает true для администраторов.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
