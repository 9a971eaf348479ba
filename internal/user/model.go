package user

import (
	"time"

	"procurement-be/internal/access"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      access.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
}
