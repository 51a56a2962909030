package invoices

import (
	"time"

	"maca-backend/internal/models"
)

// balanceEpsilon: los montos van en float64; un resto menor a un
// centavo cuenta como saldado.
const balanceEpsilon = 0.01

// ClassifyInvoice deriva el estado de una factura a partir de lo abonado,
// el saldo y la fecha de vencimiento. El orden de los casos es parte del
// contrato: PAID manda aunque esté vencida, y una factura con abonos
// parciales es PARTIAL aunque esté vencida; OVERDUE solo aplica a
// facturas vencidas sin ningún abono. El vencimiento se compara por día
// calendario: la factura que vence hoy todavía no está vencida.
func ClassifyInvoice(paidAmount, balance float64, dueDate, today time.Time) models.InvoiceStatus {
	switch {
	case balance < balanceEpsilon:
		return models.InvoiceStatusPaid
	case paidAmount > 0:
		return models.InvoiceStatusPartial
	case startOfDay(today).After(startOfDay(dueDate)):
		return models.InvoiceStatusOverdue
	default:
		return models.InvoiceStatusPending
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ClassifySale: las ventas nacen completadas; el único otro estado es
// la anulación, que se asigna directo. Se deja la función por simetría
// con el clasificador de facturas.
func ClassifySale(cancelled bool) models.SaleStatus {
	if cancelled {
		return models.SaleStatusCancelled
	}
	return models.SaleStatusCompleted
}
