package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims are the JWT claims carried by an access token.
type TokenClaims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// AuthResponse is returned on successful login or registration.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user"`
}
