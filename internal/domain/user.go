package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// Claims son los datos que viajan dentro del token de sesión.
type Claims struct {
	UserID      int    `json:"user_id"`
	Username    string `json:"username"`
	UserIsAdmin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}
