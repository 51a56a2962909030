package sequence

import (
	"fmt"
	"testing"
	"time"

	"maca-backend/internal/database"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("no se pudo abrir la base de pruebas: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("no se pudo obtener el pool: %v", err)
	}
	// una sola conexión para que :memory: sea la misma base siempre
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migración fallida: %v", err)
	}
	return db
}

func TestNextIncrementsPerKey(t *testing.T) {
	db := newTestDB(t)

	for want := int64(1); want <= 3; want++ {
		got, err := Next(db, "sale:MC:20260831")
		if err != nil {
			t.Fatalf("Next falló: %v", err)
		}
		if got != want {
			t.Fatalf("consecutivo %d, se esperaba %d", got, want)
		}
	}

	// otra clave arranca en 1 sin tocar la primera
	got, err := Next(db, "invoice:MC")
	if err != nil {
		t.Fatalf("Next falló: %v", err)
	}
	if got != 1 {
		t.Fatalf("la clave nueva arrancó en %d, se esperaba 1", got)
	}
}

func TestSaleNumberFormat(t *testing.T) {
	db := newTestDB(t)
	day := time.Date(2026, 8, 31, 14, 0, 0, 0, time.UTC)

	first, err := SaleNumber(db, "MACA CENTRO", day)
	if err != nil {
		t.Fatalf("SaleNumber falló: %v", err)
	}
	if first != "VEN-MC-20260831-00001" {
		t.Fatalf("número de venta inesperado: %s", first)
	}

	second, err := SaleNumber(db, "MACA CENTRO", day)
	if err != nil {
		t.Fatalf("SaleNumber falló: %v", err)
	}
	if second != "VEN-MC-20260831-00002" {
		t.Fatalf("la secuencia no avanzó: %s", second)
	}

	// otra bodega lleva su propia secuencia
	other, err := SaleNumber(db, "MACA NORTE", day)
	if err != nil {
		t.Fatalf("SaleNumber falló: %v", err)
	}
	if other != "VEN-MN-20260831-00001" {
		t.Fatalf("la secuencia de otra bodega no es independiente: %s", other)
	}
}

func TestPaymentNumberIsGlobalPerDay(t *testing.T) {
	db := newTestDB(t)
	day := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)

	for i := 1; i <= 2; i++ {
		got, err := PaymentNumber(db, day)
		if err != nil {
			t.Fatalf("PaymentNumber falló: %v", err)
		}
		want := fmt.Sprintf("PAG-20260831-%04d", i)
		if got != want {
			t.Fatalf("número de abono %s, se esperaba %s", got, want)
		}
	}
}

func TestInvoiceNumberDoesNotResetDaily(t *testing.T) {
	db := newTestDB(t)

	first, err := InvoiceNumber(db, "MACA CENTRO")
	if err != nil {
		t.Fatalf("InvoiceNumber falló: %v", err)
	}
	if first != "FAC-MC-00001" {
		t.Fatalf("número de factura inesperado: %s", first)
	}

	second, err := InvoiceNumber(db, "MACA CENTRO")
	if err != nil {
		t.Fatalf("InvoiceNumber falló: %v", err)
	}
	if second != "FAC-MC-00002" {
		t.Fatalf("la secuencia no avanzó: %s", second)
	}
}

func TestWarehouseCode(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"MACA CENTRO", "MC"},
		{"MACA NORTE", "MN"},
		{"Bodega Principal Sur", "BPS"},
		{"CENTRO", "CEN"},
		{"su", "SU"},
		{"", "XX"},
		{"  MACA   CENTRO  ", "MC"},
	}
	for _, tc := range cases {
		if got := WarehouseCode(tc.name); got != tc.want {
			t.Errorf("WarehouseCode(%q) = %q, se esperaba %q", tc.name, got, tc.want)
		}
	}
}
