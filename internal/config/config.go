package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins string
	// Bodegas habilitadas, separadas por coma
	Warehouses []string
	RedisAddr     string
	RedisPassword string
	LogLevel      string
	Pretty        bool // logs legibles en desarrollo
}

func Load() *Config {
	// .env local (empaquetado de escritorio); en producción se ignora si no existe
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:      getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:   getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=maca port=5432 sslmode=disable"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		CORSOrigins:   getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		Pretty:        getEnv("LOG_PRETTY", "true") == "true",
	}

	raw := getEnv("WAREHOUSES", "MACA CENTRO,MACA NORTE")
	for _, w := range strings.Split(raw, ",") {
		if w = strings.TrimSpace(w); w != "" {
			cfg.Warehouses = append(cfg.Warehouses, w)
		}
	}

	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] Falta la variable de entorno JWT_SECRET, es obligatoria.")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET debe tener al menos 32 caracteres.")
	}
	if len(cfg.Warehouses) == 0 {
		log.Fatal("[FATAL] WAREHOUSES no define ninguna bodega.")
	}

	return cfg
}

// ValidWarehouse indica si el nombre corresponde a una bodega habilitada.
func (c *Config) ValidWarehouse(name string) bool {
	for _, w := range c.Warehouses {
		if strings.EqualFold(w, name) {
			return true
		}
	}
	return false
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
