package models

import (
	"time"

	"dronebook/internal/types"
)

type User struct {
	ID          types.ID
	Email       string
	Username    string
	IsSuperuser bool
	IsActive    bool
	CreatedAt   time.Time
}
