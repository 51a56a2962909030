package models

import "time"

type SaleStatus string

const (
	SaleStatusCompleted SaleStatus = "COMPLETED"
	SaleStatusCancelled SaleStatus = "CANCELLED"
)

// Sale: venta de mostrador. Se crea ya completada; el único cambio de
// estado posible es la anulación.
type Sale struct {
	ID         uint   `gorm:"primaryKey"`
	SaleNumber string `gorm:"size:40;not null;uniqueIndex"` // VEN-{bodega}-{YYYYMMDD}-{secuencia}
	Warehouse  string `gorm:"size:50;not null;index"`
	UserID     uint   `gorm:"not null;index"`
	User       User
	CustomerName  string `gorm:"size:150"`
	CustomerPhone string `gorm:"size:50"`
	Subtotal float64 `gorm:"not null"`
	Discount float64 `gorm:"not null;default:0"`
	Tax      float64 `gorm:"not null;default:0"`
	Total    float64 `gorm:"not null"`
	Status   SaleStatus `gorm:"size:20;not null"`
	ReceiptToken string `gorm:"size:40;index"` // token del comprobante
	Notes        string `gorm:"size:255"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Items    []SaleItem    `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	Payments []SalePayment `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
}

func (s *Sale) TotalItems() int {
	n := 0
	for _, it := range s.Items {
		n += it.Quantity
	}
	return n
}

func (s *Sale) IsMixedPayment() bool {
	return len(s.Payments) > 1
}

// SaleItem: renglón de la venta. Inmutable; UnitPrice es la foto del
// precio de venta del producto al momento de la transacción.
type SaleItem struct {
	ID        uint `gorm:"primaryKey"`
	SaleID    uint `gorm:"not null;index"`
	ProductID uint `gorm:"not null;index"`
	Product   Product
	Size      string  `gorm:"size:20;not null"`
	Quantity  int     `gorm:"not null"`
	UnitPrice float64 `gorm:"not null"`
	Subtotal  float64 `gorm:"not null"` // UnitPrice * Quantity
	CreatedAt time.Time
}

// SalePayment: una venta puede tener varios pagos (pago mixto).
type SalePayment struct {
	ID            uint   `gorm:"primaryKey"`
	SaleID        uint   `gorm:"not null;index"`
	PaymentMethod string `gorm:"size:30;not null"` // efectivo, tarjeta, transferencia...
	Amount        float64 `gorm:"not null"`
	Reference     string  `gorm:"size:100"`
	Notes         string  `gorm:"size:255"`
	CreatedAt     time.Time
}
