// pkg/jwtutil/jwt.go
package jwtutil

import (
	"github.com/golang-jwt/jwt/v5"
)

// Token types issued by the auth services
const (
	TypeUser  = "user"
	TypeAdmin = "admin"
)

type Claims struct {
	UserID   string `json:"uid"`
	Role     string `json:"role,omitempty"`
	UserType string `json:"type"`
	jwt.RegisteredClaims
}

type JWTConfig struct {
	PubPath  string
	Issuer   string
	Audience string
}
