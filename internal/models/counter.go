package models

import "time"

// NumberCounter: respaldo de los consecutivos (ventas, abonos, facturas).
// Se incrementa con un UPDATE atómico dentro de la misma transacción que
// usa el número, nunca con COUNT(*).
type NumberCounter struct {
	Key       string `gorm:"primaryKey;size:120"`
	Value     int64  `gorm:"not null;default:0"`
	UpdatedAt time.Time
}
