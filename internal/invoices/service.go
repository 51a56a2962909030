package invoices

import (
	"math"
	"strings"
	"time"

	"maca-backend/internal/models"
	"maca-backend/internal/sequence"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type CreateInvoiceInput struct {
	ProviderID  uint
	InvoiceDate time.Time
	DueDate     time.Time
	Subtotal    float64
	Tax         float64
	Discount    float64
	Notes       string
	Warehouse   string
	UserID      uint
}

// CreateInvoice registra la cuenta por pagar con su consecutivo y el
// estado inicial derivado del clasificador (PENDING u OVERDUE si ya
// llega vencida).
func (s *Service) CreateInvoice(in CreateInvoiceInput) (*models.Invoice, error) {
	var invoice models.Invoice

	err := s.db.Transaction(func(tx *gorm.DB) error {
		number, err := sequence.InvoiceNumber(tx, in.Warehouse)
		if err != nil {
			return err
		}

		total := in.Subtotal - in.Discount + in.Tax
		userID := in.UserID

		invoice = models.Invoice{
			InvoiceNumber: number,
			ProviderID:    in.ProviderID,
			UserID:        &userID,
			InvoiceDate:   in.InvoiceDate,
			DueDate:       in.DueDate,
			Subtotal:      in.Subtotal,
			Tax:           in.Tax,
			Discount:      in.Discount,
			Total:         total,
			Warehouse:     in.Warehouse,
			Status:        ClassifyInvoice(0, total, in.DueDate, time.Now()),
			Notes:         strings.TrimSpace(in.Notes),
		}

		return tx.Create(&invoice).Error
	})
	if err != nil {
		return nil, err
	}

	return &invoice, nil
}

type AddPaymentInput struct {
	InvoiceID   uint
	Warehouse   string
	PaymentDate time.Time
	Amount      float64
	Method      string
	Reference   string
	Notes       string
}

type AddPaymentResult struct {
	Payment    models.InvoicePayment
	Invoice    models.Invoice
	PaidAmount float64
	Balance    float64
}

// AddPayment aplica un abono: vuelve a sumar lo pagado dentro de la
// transacción, rechaza el sobrepago (a diferencia de la venta, que lo
// acepta), inserta el abono y recalcula el estado, todo atómico.
func (s *Service) AddPayment(in AddPaymentInput) (*AddPaymentResult, error) {
	var result AddPaymentResult

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var invoice models.Invoice
		if err := tx.Where("id = ? AND warehouse = ?", in.InvoiceID, in.Warehouse).
			First(&invoice).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &InvoiceNotFoundError{InvoiceID: in.InvoiceID, Warehouse: in.Warehouse}
			}
			return err
		}

		if invoice.Status == models.InvoiceStatusCancelled {
			return ErrCancelledInvoice
		}

		var paidAmount float64
		if err := tx.Model(&models.InvoicePayment{}).
			Where("invoice_id = ?", invoice.ID).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&paidAmount).Error; err != nil {
			return err
		}

		currentBalance := invoice.Total - paidAmount
		if in.Amount > currentBalance+balanceEpsilon {
			return &OverpaymentError{Attempted: in.Amount, Balance: currentBalance}
		}

		number, err := sequence.PaymentNumber(tx, time.Now())
		if err != nil {
			return err
		}

		payment := models.InvoicePayment{
			InvoiceID:     invoice.ID,
			PaymentNumber: number,
			PaymentDate:   in.PaymentDate,
			Amount:        in.Amount,
			PaymentMethod: strings.TrimSpace(in.Method),
			Reference:     in.Reference,
			Notes:         strings.TrimSpace(in.Notes),
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		newPaidAmount := paidAmount + in.Amount
		newBalance := invoice.Total - newPaidAmount
		newStatus := ClassifyInvoice(newPaidAmount, newBalance, invoice.DueDate, time.Now())

		if err := tx.Model(&invoice).Update("status", newStatus).Error; err != nil {
			return err
		}
		invoice.Status = newStatus

		result = AddPaymentResult{
			Payment:    payment,
			Invoice:    invoice,
			PaidAmount: newPaidAmount,
			Balance:    newBalance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("invoice_number", result.Invoice.InvoiceNumber).
		Str("payment_number", result.Payment.PaymentNumber).
		Float64("amount", result.Payment.Amount).
		Float64("balance", result.Balance).
		Str("status", string(result.Invoice.Status)).
		Msg("abono aplicado")

	return &result, nil
}

type UpdateInvoiceInput struct {
	InvoiceID   uint
	Warehouse   string
	InvoiceDate *time.Time
	DueDate     *time.Time
	Subtotal    *float64
	Tax         *float64
	Discount    *float64
	Notes       *string
}

// UpdateInvoice edita la factura. Si ya existe al menos un abono y la
// edición cambia el total, se rechaza; los demás campos siguen
// editables.
func (s *Service) UpdateInvoice(in UpdateInvoiceInput) (*models.Invoice, error) {
	var invoice models.Invoice

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND warehouse = ?", in.InvoiceID, in.Warehouse).
			First(&invoice).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &InvoiceNotFoundError{InvoiceID: in.InvoiceID, Warehouse: in.Warehouse}
			}
			return err
		}

		if invoice.Status == models.InvoiceStatusCancelled {
			return ErrCancelledInvoice
		}

		newSubtotal := invoice.Subtotal
		newTax := invoice.Tax
		newDiscount := invoice.Discount
		if in.Subtotal != nil {
			newSubtotal = *in.Subtotal
		}
		if in.Tax != nil {
			newTax = *in.Tax
		}
		if in.Discount != nil {
			newDiscount = *in.Discount
		}
		newTotal := newSubtotal - newDiscount + newTax

		var paidAmount float64
		if err := tx.Model(&models.InvoicePayment{}).
			Where("invoice_id = ?", invoice.ID).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&paidAmount).Error; err != nil {
			return err
		}

		// misma tolerancia de centavo que el resto del paquete
		if math.Abs(newTotal-invoice.Total) > balanceEpsilon && paidAmount > 0 {
			return ErrImmutableTotal
		}

		invoice.Subtotal = newSubtotal
		invoice.Tax = newTax
		invoice.Discount = newDiscount
		invoice.Total = newTotal
		if in.InvoiceDate != nil {
			invoice.InvoiceDate = *in.InvoiceDate
		}
		if in.DueDate != nil {
			invoice.DueDate = *in.DueDate
		}
		if in.Notes != nil {
			invoice.Notes = strings.TrimSpace(*in.Notes)
		}

		// el vencimiento o el total pudieron cambiar
		invoice.Status = ClassifyInvoice(paidAmount, invoice.Total-paidAmount, invoice.DueDate, time.Now())

		return tx.Save(&invoice).Error
	})
	if err != nil {
		return nil, err
	}

	return &invoice, nil
}

// CancelInvoice anula la factura siempre que no tenga abonos.
func (s *Service) CancelInvoice(invoiceID uint, warehouse string) (*models.Invoice, error) {
	var invoice models.Invoice

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND warehouse = ?", invoiceID, warehouse).
			First(&invoice).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &InvoiceNotFoundError{InvoiceID: invoiceID, Warehouse: warehouse}
			}
			return err
		}

		var paymentCount int64
		if err := tx.Model(&models.InvoicePayment{}).
			Where("invoice_id = ?", invoice.ID).
			Count(&paymentCount).Error; err != nil {
			return err
		}
		if paymentCount > 0 {
			return ErrHasPayments
		}

		if err := tx.Model(&invoice).Update("status", models.InvoiceStatusCancelled).Error; err != nil {
			return err
		}
		invoice.Status = models.InvoiceStatusCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &invoice, nil
}
