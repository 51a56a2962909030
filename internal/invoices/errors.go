package invoices

import (
	"errors"
	"fmt"
)

var (
	// ErrImmutableTotal: el total no se toca una vez hay abonos.
	ErrImmutableTotal = errors.New("la factura ya tiene abonos, el total no puede modificarse")
	// ErrHasPayments: no se anula una factura con abonos registrados.
	ErrHasPayments = errors.New("la factura tiene abonos registrados, no puede anularse")
	// ErrCancelledInvoice: una factura anulada no recibe abonos ni ediciones.
	ErrCancelledInvoice = errors.New("la factura está anulada")
)

type InvoiceNotFoundError struct {
	InvoiceID uint
	Warehouse string
}

func (e *InvoiceNotFoundError) Error() string {
	return fmt.Sprintf("factura %d no existe en la bodega %s", e.InvoiceID, e.Warehouse)
}

type OverpaymentError struct {
	Attempted float64
	Balance   float64
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("el abono (%.2f) supera el saldo pendiente (%.2f)", e.Attempted, e.Balance)
}
