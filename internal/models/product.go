package models

import "time"

type Product struct {
	ID        uint   `gorm:"primaryKey"`
	Code      string `gorm:"size:50;not null;uniqueIndex:idx_products_code_warehouse"`
	Warehouse string `gorm:"size:50;not null;index;uniqueIndex:idx_products_code_warehouse"`
	Name      string `gorm:"size:150;not null"`
	Category  string `gorm:"size:100"` // dama, caballero, niño...
	Brand     string `gorm:"size:100"`
	Material  string `gorm:"size:100"`
	Color     string `gorm:"size:50"`
	PurchasePrice float64 `gorm:"not null"`
	SalePrice     float64 `gorm:"not null"`
	MinStock      int     `gorm:"not null;default:0"` // umbral de alerta de stock bajo
	Active        bool    `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	StockEntries []StockEntry `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// StockEntry: existencias por producto y talla
type StockEntry struct {
	ID        uint `gorm:"primaryKey"`
	ProductID uint `gorm:"not null;index;uniqueIndex:idx_stock_product_size"`
	Product   Product
	Size      string `gorm:"size:20;not null;uniqueIndex:idx_stock_product_size"` // talla (35, 36, 42.5...)
	Quantity         int `gorm:"not null;default:0"`
	ReservedQuantity int `gorm:"not null;default:0"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (e *StockEntry) AvailableQuantity() int {
	return e.Quantity - e.ReservedQuantity
}
