package auth

import (
	"time"

	"tedarik-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

type JWTCustomClaims struct {
	OutletID   uint            `json:"outlet_id"`
	OutletCode string          `json:"outlet_code"`
	Role       models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

func GenerateToken(secret string, outlet *models.Outlet) (string, error) {
	claims := &JWTCustomClaims{
		OutletID:   outlet.ID,
		OutletCode: outlet.Code,
		Role:       outlet.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)), // 1 gün
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
