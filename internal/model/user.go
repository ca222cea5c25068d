package model

import (
	"time"
)

// User is the locally mirrored profile of an identity-provider account.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// SignupRequest is the request to create an account.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the request to exchange credentials for a session.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user"`
	Message     string `json:"message"`
}
