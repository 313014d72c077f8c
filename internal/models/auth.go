package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the JWT payload for access tokens issued by the
// identity provider. TeacherID is present for teacher accounts.
type JWTClaims struct {
	UserID    string   `json:"user_id"`
	Role      UserRole `json:"role"`
	TeacherID string   `json:"teacher_id,omitempty"`
	jwt.RegisteredClaims
}
