package models

import "time"

type Provider struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:150;not null"`
	Nit         string `gorm:"size:30;index"` // identificación tributaria
	ContactName string `gorm:"size:100"`
	Phone       string `gorm:"size:50"`
	Email       string `gorm:"size:100"`
	Address     string `gorm:"size:255"`
	Warehouse   string `gorm:"size:50;not null;index"`
	Active      bool   `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Invoices []Invoice `gorm:"foreignKey:ProviderID"`
}
