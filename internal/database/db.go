package database

import (
	"maca-backend/internal/config"
	"maca-backend/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("No se pudo conectar a la base de datos")
	}

	if err := Migrate(DB); err != nil {
		log.Fatal().Err(err).Msg("Error en AutoMigrate")
	}

	log.Info().Msg("Conexión a base de datos lista. Migración completada.")
}

// Migrate aplica el esquema. Separado de Init para poder usarlo también
// contra la base de pruebas.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.StockEntry{},
		&models.Provider{},
		&models.Employee{},
		&models.Sale{},
		&models.SaleItem{},
		&models.SalePayment{},
		&models.Invoice{},
		&models.InvoicePayment{},
		&models.NumberCounter{},
		&models.AuditLog{},
	)
}
