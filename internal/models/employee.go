package models

import "time"

// Employee: ficha del empleado. CommissionRate es porcentaje sobre el
// total de sus ventas completadas (0.05 = 5%).
type Employee struct {
	ID             uint  `gorm:"primaryKey"`
	UserID         *uint `gorm:"index"` // usuario asociado, si vende por sistema
	User           *User
	Name           string  `gorm:"size:150;not null"`
	Document       string  `gorm:"size:30;index"`
	Phone          string  `gorm:"size:50"`
	Position       string  `gorm:"size:100"` // vendedor, bodeguero, administrador...
	BaseSalary     float64 `gorm:"not null;default:0"`
	CommissionRate float64 `gorm:"not null;default:0"`
	Warehouse      string  `gorm:"size:50;not null;index"`
	Active         bool    `gorm:"not null;default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
