package invoices

import (
	"errors"
	"strings"
	"testing"
	"time"

	"maca-backend/internal/database"
	"maca-backend/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("no se pudo abrir la base de pruebas: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("no se pudo obtener el pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migración fallida: %v", err)
	}
	return NewService(db), db
}

func seedProvider(t *testing.T, db *gorm.DB, warehouse string) *models.Provider {
	t.Helper()
	provider := models.Provider{
		Name:      "Calzados del Valle",
		Nit:       "900123456-7",
		Warehouse: warehouse,
		Active:    true,
	}
	if err := db.Create(&provider).Error; err != nil {
		t.Fatalf("no se pudo sembrar el proveedor: %v", err)
	}
	return &provider
}

func createInvoice(t *testing.T, svc *Service, providerID uint, total float64, dueDate time.Time) *models.Invoice {
	t.Helper()
	invoice, err := svc.CreateInvoice(CreateInvoiceInput{
		ProviderID:  providerID,
		InvoiceDate: time.Now(),
		DueDate:     dueDate,
		Subtotal:    total,
		Warehouse:   "MACA CENTRO",
		UserID:      1,
	})
	if err != nil {
		t.Fatalf("CreateInvoice falló: %v", err)
	}
	return invoice
}

func TestCreateInvoiceInitialStatus(t *testing.T) {
	svc, db := newTestService(t)
	provider := seedProvider(t, db, "MACA CENTRO")

	vigente := createInvoice(t, svc, provider.ID, 1000000, time.Now().AddDate(0, 0, 30))
	if vigente.Status != models.InvoiceStatusPending {
		t.Fatalf("estado inicial %s, se esperaba PENDING", vigente.Status)
	}
	if !strings.HasPrefix(vigente.InvoiceNumber, "FAC-MC-") {
		t.Fatalf("número de factura inesperado: %s", vigente.InvoiceNumber)
	}

	// una factura que llega ya vencida nace OVERDUE
	vencida := createInvoice(t, svc, provider.ID, 500000, time.Now().AddDate(0, 0, -5))
	if vencida.Status != models.InvoiceStatusOverdue {
		t.Fatalf("estado inicial %s, se esperaba OVERDUE", vencida.Status)
	}
}

func TestAddPaymentPartialThenFull(t *testing.T) {
	svc, db := newTestService(t)
	provider := seedProvider(t, db, "MACA CENTRO")
	invoice := createInvoice(t, svc, provider.ID, 1000000, time.Now().AddDate(0, 0, 30))

	partial, err := svc.AddPayment(AddPaymentInput{
		InvoiceID:   invoice.ID,
		Warehouse:   "MACA CENTRO",
		PaymentDate: time.Now(),
		Amount:      700000,
		Method:      "transferencia",
	})
	if err != nil {
		t.Fatalf("el primer abono falló: %v", err)
	}
	if partial.Invoice.Status != models.InvoiceStatusPartial {
		t.Fatalf("estado %s tras abono parcial, se esperaba PARTIAL", partial.Invoice.Status)
	}
	if partial.Balance != 300000 {
		t.Fatalf("saldo %v tras abono parcial, se esperaba 300000", partial.Balance)
	}
	if !strings.HasPrefix(partial.Payment.PaymentNumber, "PAG-") {
		t.Fatalf("número de abono inesperado: %s", partial.Payment.PaymentNumber)
	}

	full, err := svc.AddPayment(AddPaymentInput{
		InvoiceID:   invoice.ID,
		Warehouse:   "MACA CENTRO",
		PaymentDate: time.Now(),
		Amount:      300000,
		Method:      "efectivo",
	})
	if err != nil {
		t.Fatalf("el abono final falló: %v", err)
	}
	if full.Invoice.Status != models.InvoiceStatusPaid {
		t.Fatalf("estado %s tras saldar, se esperaba PAID", full.Invoice.Status)
	}
	if full.Balance != 0 {
		t.Fatalf("saldo %v tras saldar, se esperaba 0", full.Balance)
	}
}

func TestAddPaymentRejectsOverpayment(t *testing.T) {
	svc, db := newTestService(t)
	provider := seedProvider(t, db, "MACA CENTRO")
	invoice := createInvoice(t, svc, provider.ID, 500000, time.Now().AddDate(0, 0, 30))

	_, err := svc.AddPayment(AddPaymentInput{
		InvoiceID:   invoice.ID,
		Warehouse:   "MACA CENTRO",
		PaymentDate: time.Now(),
		Amount:      600000,
		Method:      "transferencia",
	})

	var overErr *OverpaymentError
	if !errors.As(err, &overErr) {
		t.Fatalf("se esperaba OverpaymentError, llegó %v", err)
	}
	if overErr.Attempted != 600000 || overErr.Balance != 500000 {
		t.Fatalf("detalle del error inesperado: %+v", overErr)
	}

	// el abono rechazado no quedó escrito
	var count int64
	db.Model(&models.InvoicePayment{}).Where("invoice_id = ?", invoice.ID).Count(&count)
	if count != 0 {
		t.Fatalf("quedaron %d abonos pese al rechazo", count)
	}
}

func TestAddPaymentOnOverdueBecomesPartial(t *testing.T) {
	svc, db := newTestService(t)
	provider := seedProvider(t, db, "MACA CENTRO")
	invoice := createInvoice(t, svc, provider.ID, 1000000, time.Now().AddDate(0, 0, -10))
	if invoice.Status != models.InvoiceStatusOverdue {
		t.Fatalf("estado inicial %s, se esperaba OVERDUE", invoice.Status)
	}

	// con abonos, PARTIAL manda sobre el vencimiento
	result, err := svc.AddPayment(AddPaymentInput{
		InvoiceID:   invoice.ID,
		Warehouse:   "MACA CENTRO",
		PaymentDate: time.Now(),
		Amount:      200000,
		Method:      "efectivo",
	})
	if err != nil {
		t.Fatalf("AddPayment falló: %v", err)
	}
	if result.Invoice.Status != models.InvoiceStatusPartial {
		t.Fatalf("estado %s, se esperaba PARTIAL aunque esté vencida", result.Invoice.Status)
	}
}

func TestAddPaymentWrongWarehouse(t *testing.T) {
	svc, db := newTestService(t)
	provider := seedProvider(t, db, "MACA CENTRO")
	invoice := createInvoice(t, svc, provider.ID, 500000, time.Now().AddDate(0, 0, 30))

	_, err := svc.AddPayment(AddPaymentInput{
		InvoiceID:   invoice.ID,
		Warehouse:   "MACA NORTE",
		PaymentDate: time.Now(),
		Amount:      100000,
		Method:      "efectivo",
	})
	var notFoundErr *InvoiceNotFoundError
	if !errors.As(err, &notFoundErr) {
		t.Fatalf("se esperaba InvoiceNotFoundError desde otra bodega, llegó %v", err)
	}
}

func TestUpdateInvoiceTotalFrozenAfterPayment(t *testing.T) {
	svc, db := newTestService(t)
	provider := seedProvider(t, db, "MACA CENTRO")
	invoice := createInvoice(t, svc, provider.ID, 1000000, time.Now().AddDate(0, 0, 30))

	if _, err := svc.AddPayment(AddPaymentInput{
		InvoiceID:   invoice.ID,
		Warehouse:   "MACA CENTRO",
		PaymentDate: time.Now(),
		Amount:      300000,
		Method:      "efectivo",
	}); err != nil {
		t.Fatalf("AddPayment falló: %v", err)
	}

	newSubtotal := 800000.0
	_, err := svc.UpdateInvoice(UpdateInvoiceInput{
		InvoiceID: invoice.ID,
		Warehouse: "MACA CENTRO",
		Subtotal:  &newSubtotal,
	})
	if !errors.Is(err, ErrImmutableTotal) {
		t.Fatalf("se esperaba ErrImmutableTotal, llegó %v", err)
	}

	// las notas siguen editables aunque haya abonos
	notes := "entregada con faltantes"
	updated, err := svc.UpdateInvoice(UpdateInvoiceInput{
		InvoiceID: invoice.ID,
		Warehouse: "MACA CENTRO",
		Notes:     &notes,
	})
	if err != nil {
		t.Fatalf("la edición de notas falló: %v", err)
	}
	if updated.Notes != notes {
		t.Fatalf("notas %q, se esperaba %q", updated.Notes, notes)
	}
	if updated.Status != models.InvoiceStatusPartial {
		t.Fatalf("la edición cambió el estado a %s", updated.Status)
	}
}

func TestUpdateInvoiceToleratesRoundingOnFrozenTotal(t *testing.T) {
	svc, db := newTestService(t)
	provider := seedProvider(t, db, "MACA CENTRO")
	invoice := createInvoice(t, svc, provider.ID, 1000000, time.Now().AddDate(0, 0, 30))

	if _, err := svc.AddPayment(AddPaymentInput{
		InvoiceID:   invoice.ID,
		Warehouse:   "MACA CENTRO",
		PaymentDate: time.Now(),
		Amount:      300000,
		Method:      "efectivo",
	}); err != nil {
		t.Fatalf("AddPayment falló: %v", err)
	}

	// un subtotal recalculado con ruido de redondeo menor a un centavo
	// no cuenta como cambio de total
	noisy := 1000000.004
	updated, err := svc.UpdateInvoice(UpdateInvoiceInput{
		InvoiceID: invoice.ID,
		Warehouse: "MACA CENTRO",
		Subtotal:  &noisy,
	})
	if err != nil {
		t.Fatalf("el ruido de redondeo disparó el rechazo: %v", err)
	}
	if updated.Status != models.InvoiceStatusPartial {
		t.Fatalf("estado %s, se esperaba PARTIAL", updated.Status)
	}
}

func TestUpdateInvoiceDueDateReclassifies(t *testing.T) {
	svc, db := newTestService(t)
	provider := seedProvider(t, db, "MACA CENTRO")
	invoice := createInvoice(t, svc, provider.ID, 1000000, time.Now().AddDate(0, 0, -10))
	if invoice.Status != models.InvoiceStatusOverdue {
		t.Fatalf("estado inicial %s, se esperaba OVERDUE", invoice.Status)
	}

	// extender el plazo la devuelve a PENDING
	newDue := time.Now().AddDate(0, 0, 30)
	updated, err := svc.UpdateInvoice(UpdateInvoiceInput{
		InvoiceID: invoice.ID,
		Warehouse: "MACA CENTRO",
		DueDate:   &newDue,
	})
	if err != nil {
		t.Fatalf("UpdateInvoice falló: %v", err)
	}
	if updated.Status != models.InvoiceStatusPending {
		t.Fatalf("estado %s tras extender el plazo, se esperaba PENDING", updated.Status)
	}
}

func TestUpdateInvoiceTotalEditableWithoutPayments(t *testing.T) {
	svc, db := newTestService(t)
	provider := seedProvider(t, db, "MACA CENTRO")
	invoice := createInvoice(t, svc, provider.ID, 1000000, time.Now().AddDate(0, 0, 30))

	newSubtotal := 750000.0
	updated, err := svc.UpdateInvoice(UpdateInvoiceInput{
		InvoiceID: invoice.ID,
		Warehouse: "MACA CENTRO",
		Subtotal:  &newSubtotal,
	})
	if err != nil {
		t.Fatalf("UpdateInvoice falló: %v", err)
	}
	if updated.Total != 750000 {
		t.Fatalf("total %v, se esperaba 750000", updated.Total)
	}
}

func TestCancelInvoiceWithPaymentsRejected(t *testing.T) {
	svc, db := newTestService(t)
	provider := seedProvider(t, db, "MACA CENTRO")
	invoice := createInvoice(t, svc, provider.ID, 1000000, time.Now().AddDate(0, 0, 30))

	if _, err := svc.AddPayment(AddPaymentInput{
		InvoiceID:   invoice.ID,
		Warehouse:   "MACA CENTRO",
		PaymentDate: time.Now(),
		Amount:      100000,
		Method:      "efectivo",
	}); err != nil {
		t.Fatalf("AddPayment falló: %v", err)
	}

	_, err := svc.CancelInvoice(invoice.ID, "MACA CENTRO")
	if !errors.Is(err, ErrHasPayments) {
		t.Fatalf("se esperaba ErrHasPayments, llegó %v", err)
	}
}

func TestCancelInvoiceWithoutPayments(t *testing.T) {
	svc, db := newTestService(t)
	provider := seedProvider(t, db, "MACA CENTRO")
	invoice := createInvoice(t, svc, provider.ID, 1000000, time.Now().AddDate(0, 0, 30))

	cancelled, err := svc.CancelInvoice(invoice.ID, "MACA CENTRO")
	if err != nil {
		t.Fatalf("CancelInvoice falló: %v", err)
	}
	if cancelled.Status != models.InvoiceStatusCancelled {
		t.Fatalf("estado %s, se esperaba CANCELLED", cancelled.Status)
	}

	// una factura anulada no recibe abonos
	_, err = svc.AddPayment(AddPaymentInput{
		InvoiceID:   invoice.ID,
		Warehouse:   "MACA CENTRO",
		PaymentDate: time.Now(),
		Amount:      100000,
		Method:      "efectivo",
	})
	if err == nil {
		t.Fatalf("se aceptó un abono sobre una factura anulada")
	}
}
