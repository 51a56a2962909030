package auth

import (
	"testing"

	"maca-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "clave-de-pruebas-suficientemente-larga-123"

func TestGenerateTokenCarriesWarehouse(t *testing.T) {
	user := &models.User{
		Email:     "vendedora@maca.co",
		Role:      models.RoleVendedor,
		Warehouse: "MACA CENTRO",
	}
	user.ID = 7

	signed, err := GenerateToken(testSecret, user)
	if err != nil {
		t.Fatalf("GenerateToken falló: %v", err)
	}

	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(signed, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("el token no se pudo validar: %v", err)
	}

	if claims.UserID != 7 {
		t.Fatalf("user_id %d, se esperaba 7", claims.UserID)
	}
	if claims.Role != models.RoleVendedor {
		t.Fatalf("rol %s, se esperaba vendedor", claims.Role)
	}
	if claims.Warehouse != "MACA CENTRO" {
		t.Fatalf("bodega %s, se esperaba MACA CENTRO", claims.Warehouse)
	}
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	user := &models.User{Email: "admin@maca.co", Role: models.RoleAdmin}
	user.ID = 1

	signed, err := GenerateToken(testSecret, user)
	if err != nil {
		t.Fatalf("GenerateToken falló: %v", err)
	}

	_, err = jwt.ParseWithClaims(signed, &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte("otra-clave-igual-de-larga-pero-distinta-456"), nil
	})
	if err == nil {
		t.Fatalf("un secreto distinto validó el token")
	}
}
