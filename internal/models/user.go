// Package models содержит доменные структуры POS-платформы: пользователей,
// бизнесы, связи сотрудников, тарифные планы и подписки,
// а также вспомогательные типы для приёма данных из JSON-запросов.
package models

import "time"

// Роли пользователей системы. Владелец бизнеса оплачивает подписку,
// сотрудники (kasir, kitchen, waiter, admin) получают доступ через него.
const (
	RoleSuperAdmin = "super_admin"
	RoleOwner      = "owner"
	RoleAdmin      = "admin"
	RoleKasir      = "kasir"
	RoleKitchen    = "kitchen"
	RoleWaiter     = "waiter"
)

// User представляет зарегистрированного пользователя системы.
type User struct {
	UID          string    // Уникальный идентификатор пользователя
	Email        string    // Электронная почта
	Username     string    // Имя пользователя (уникальное)
	PasswordHash string    // Хэш пароля пользователя
	Role         string    // Роль пользователя
	CreatedAt    time.Time // Дата регистрации
}

// IsEmployeeRole сообщает, управляется ли доступ роли подпиской владельца бизнеса.
func IsEmployeeRole(role string) bool {
	switch role {
	case RoleKasir, RoleKitchen, RoleWaiter, RoleAdmin:
		return true
	}
	return false
}

// DummyRegister используется для приёма данных регистрации из JSON-запроса.
type DummyRegister struct {
	Email    string `json:"email" validate:"required,email"`       // Электронная почта
	Username string `json:"username" validate:"required,alphanum"` // Имя пользователя
	Password string `json:"password" validate:"required,min=8"`    // Пароль (минимум 8 символов)
}

// DummyLogin используется для приёма данных входа из JSON-запроса.
type DummyLogin struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
