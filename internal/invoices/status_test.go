package invoices

import (
	"testing"
	"time"

	"maca-backend/internal/models"
)

func TestClassifyInvoice(t *testing.T) {
	today := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	future := today.AddDate(0, 0, 15)
	past := today.AddDate(0, 0, -15)

	cases := []struct {
		name    string
		paid    float64
		balance float64
		dueDate time.Time
		want    models.InvoiceStatus
	}{
		{"sin abonos y vigente", 0, 1000000, future, models.InvoiceStatusPending},
		{"sin abonos y vencida", 0, 1000000, past, models.InvoiceStatusOverdue},
		{"abono parcial vigente", 400000, 600000, future, models.InvoiceStatusPartial},
		// el orden importa: con abonos la vencida sigue siendo PARTIAL
		{"abono parcial vencida", 400000, 600000, past, models.InvoiceStatusPartial},
		{"saldada", 1000000, 0, future, models.InvoiceStatusPaid},
		// PAID manda aunque esté vencida
		{"saldada y vencida", 1000000, 0, past, models.InvoiceStatusPaid},
		// resto menor a un centavo cuenta como saldada
		{"resto por redondeo", 999999.995, 0.005, future, models.InvoiceStatusPaid},
		// vence hoy mismo: todavía no está vencida
		{"vence hoy", 0, 1000000, today, models.InvoiceStatusPending},
		// el vencimiento se guarda a medianoche; al mediodía del mismo
		// día sigue vigente
		{"vence hoy a medianoche", 0, 1000000,
			time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), models.InvoiceStatusPending},
		// al día siguiente sí está vencida, aunque sea temprano
		{"vencida desde ayer a medianoche", 0, 1000000,
			time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), models.InvoiceStatusOverdue},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyInvoice(tc.paid, tc.balance, tc.dueDate, today)
			if got != tc.want {
				t.Fatalf("ClassifyInvoice(%v, %v) = %s, se esperaba %s",
					tc.paid, tc.balance, got, tc.want)
			}
		})
	}
}

func TestClassifySale(t *testing.T) {
	if got := ClassifySale(false); got != models.SaleStatusCompleted {
		t.Fatalf("venta activa clasificada como %s", got)
	}
	if got := ClassifySale(true); got != models.SaleStatusCancelled {
		t.Fatalf("venta anulada clasificada como %s", got)
	}
}
