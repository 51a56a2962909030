package sequence

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"gorm.io/gorm"
)

// Los consecutivos salen de la tabla number_counters con un
// incremento-y-lectura atómico, dentro de la misma transacción que
// inserta la fila que usa el número. Dos transacciones concurrentes
// sobre la misma clave serializan en el UPDATE; si una revierte, su
// número queda sin usar (hueco aceptable, duplicado no).

// Next incrementa y devuelve el contador de la clave dada.
func Next(tx *gorm.DB, key string) (int64, error) {
	var value int64
	err := tx.Raw(`
		INSERT INTO number_counters (key, value, updated_at) VALUES (?, 1, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET value = number_counters.value + 1, updated_at = CURRENT_TIMESTAMP
		RETURNING value
	`, key).Scan(&value).Error
	if err != nil {
		return 0, fmt.Errorf("no se pudo avanzar el consecutivo %s: %w", key, err)
	}
	return value, nil
}

// SaleNumber genera VEN-{bodega}-{YYYYMMDD}-{secuencia de 5 dígitos},
// con secuencia por bodega y por día.
func SaleNumber(tx *gorm.DB, warehouse string, day time.Time) (string, error) {
	code := WarehouseCode(warehouse)
	date := day.Format("20060102")
	n, err := Next(tx, fmt.Sprintf("sale:%s:%s", code, date))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("VEN-%s-%s-%05d", code, date, n), nil
}

// PaymentNumber genera PAG-{YYYYMMDD}-{secuencia de 4 dígitos}. La
// secuencia es diaria y global entre bodegas, como siempre se manejó.
func PaymentNumber(tx *gorm.DB, day time.Time) (string, error) {
	date := day.Format("20060102")
	n, err := Next(tx, fmt.Sprintf("payment:%s", date))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("PAG-%s-%04d", date, n), nil
}

// InvoiceNumber genera FAC-{bodega}-{secuencia de 5 dígitos}, con
// secuencia por bodega sin reinicio diario.
func InvoiceNumber(tx *gorm.DB, warehouse string) (string, error) {
	code := WarehouseCode(warehouse)
	n, err := Next(tx, fmt.Sprintf("invoice:%s", code))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("FAC-%s-%05d", code, n), nil
}

// WarehouseCode deriva el token corto de la bodega: iniciales si el
// nombre tiene varias palabras ("MACA CENTRO" -> "MC"), si no las tres
// primeras letras.
func WarehouseCode(name string) string {
	words := strings.Fields(strings.TrimSpace(name))
	if len(words) == 0 {
		return "XX"
	}
	if len(words) >= 2 {
		var b strings.Builder
		for _, w := range words {
			for _, r := range w {
				if unicode.IsLetter(r) || unicode.IsDigit(r) {
					b.WriteRune(unicode.ToUpper(r))
					break
				}
			}
		}
		return b.String()
	}
	runes := []rune(strings.ToUpper(words[0]))
	if len(runes) > 3 {
		runes = runes[:3]
	}
	return string(runes)
}
