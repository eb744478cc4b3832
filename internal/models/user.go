package models

import (
	"time"

	"github.com/google/uuid"
)

// User участник площадки. Регистрацией и паролями занимается внешний
// провайдер идентичности, здесь хранится только профиль для уведомлений.
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
