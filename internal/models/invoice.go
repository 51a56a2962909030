package models

import "time"

type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "PENDING"
	InvoiceStatusPartial   InvoiceStatus = "PARTIAL"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// Invoice: factura de proveedor (cuenta por pagar). El total queda
// congelado en cuanto existe al menos un abono.
type Invoice struct {
	ID            uint   `gorm:"primaryKey"`
	InvoiceNumber string `gorm:"size:40;not null;uniqueIndex"` // FAC-{bodega}-{secuencia}
	ProviderID    uint   `gorm:"not null;index"`
	Provider      Provider
	UserID        *uint
	User          *User
	InvoiceDate   time.Time `gorm:"not null"`
	DueDate       time.Time `gorm:"not null;index"`
	Subtotal      float64   `gorm:"not null"`
	Tax           float64   `gorm:"not null;default:0"`
	Discount      float64   `gorm:"not null;default:0"`
	Total         float64   `gorm:"not null"`
	Warehouse     string    `gorm:"size:50;not null;index"`
	Status        InvoiceStatus `gorm:"size:20;not null"`
	Notes         string        `gorm:"size:500"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Payments []InvoicePayment `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

// PaidAmount suma los abonos cargados en Payments.
func (i *Invoice) PaidAmount() float64 {
	paid := 0.0
	for _, p := range i.Payments {
		paid += p.Amount
	}
	return paid
}

func (i *Invoice) Balance() float64 {
	return i.Total - i.PaidAmount()
}

// InvoicePayment: abono a una factura. Inmutable.
type InvoicePayment struct {
	ID            uint   `gorm:"primaryKey"`
	InvoiceID     uint   `gorm:"not null;index"`
	PaymentNumber string `gorm:"size:40;not null"` // PAG-{YYYYMMDD}-{secuencia}
	PaymentDate   time.Time `gorm:"not null;index"`
	Amount        float64   `gorm:"not null"`
	PaymentMethod string    `gorm:"size:30;not null"`
	Reference     string    `gorm:"size:100"`
	Notes         string    `gorm:"size:255"`
	CreatedAt     time.Time
}
