package models

import "time"

// Business представляет бизнес (заведение), которому принадлежат сотрудники.
// У бизнеса ровно один владелец, чья подписка определяет доступ сотрудников.
type Business struct {
	ID        int       `json:"id"`         // Идентификатор бизнеса
	Name      string    `json:"name"`       // Название бизнеса
	OwnerUID  string    `json:"owner_uid"`  // Владелец бизнеса
	CreatedAt time.Time `json:"created_at"` // Дата создания
}

// Employment — активная связь сотрудника с бизнесом, уже разрешённая
// до владельца. Используется вычислителем политики доступа.
type Employment struct {
	BusinessID   int    // Бизнес, к которому привязан сотрудник
	BusinessName string // Название бизнеса
	OwnerUID     string // Владелец бизнеса (пустая строка — владелец не найден)
}

// DummyBusiness используется для приёма данных нового бизнеса из JSON-запроса.
type DummyBusiness struct {
	Name string `json:"name" validate:"required"` // Название бизнеса
}
