package invoices

import (
	"errors"
	"fmt"
	"time"

	"maca-backend/internal/audit"
	"maca-backend/internal/auth"
	"maca-backend/internal/cache"
	"maca-backend/internal/database"
	"maca-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type CreateInvoiceRequest struct {
	ProviderID  uint    `json:"provider_id"`
	InvoiceDate string  `json:"invoice_date"` // "2026-08-31"
	DueDate     string  `json:"due_date"`
	Subtotal    float64 `json:"subtotal"`
	Tax         float64 `json:"tax"`
	Discount    float64 `json:"discount"`
	Notes       string  `json:"notes"`
	Warehouse   string  `json:"warehouse"` // solo admin
}

type UpdateInvoiceRequest struct {
	InvoiceDate *string  `json:"invoice_date"`
	DueDate     *string  `json:"due_date"`
	Subtotal    *float64 `json:"subtotal"`
	Tax         *float64 `json:"tax"`
	Discount    *float64 `json:"discount"`
	Notes       *string  `json:"notes"`
	Warehouse   string   `json:"warehouse"` // solo admin
}

type AddPaymentRequest struct {
	PaymentDate string  `json:"payment_date"`
	Amount      float64 `json:"amount"`
	Method      string  `json:"method"`
	Reference   string  `json:"reference"`
	Notes       string  `json:"notes"`
	Warehouse   string  `json:"warehouse"` // solo admin
}

type InvoicePaymentResponse struct {
	ID            uint    `json:"id"`
	PaymentNumber string  `json:"payment_number"`
	PaymentDate   string  `json:"payment_date"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"payment_method"`
	Reference     string  `json:"reference"`
	CreatedAt     string  `json:"created_at"`
}

type InvoiceResponse struct {
	ID            uint                 `json:"id"`
	InvoiceNumber string               `json:"invoice_number"`
	ProviderID    uint                 `json:"provider_id"`
	ProviderName  string               `json:"provider_name,omitempty"`
	InvoiceDate   string               `json:"invoice_date"`
	DueDate       string               `json:"due_date"`
	Subtotal      float64              `json:"subtotal"`
	Tax           float64              `json:"tax"`
	Discount      float64              `json:"discount"`
	Total         float64              `json:"total"`
	Warehouse     string               `json:"warehouse"`
	Status        models.InvoiceStatus `json:"status"`
	PaidAmount    float64              `json:"paid_amount"`
	Balance       float64              `json:"balance"`
	Notes         string               `json:"notes"`
	Payments      []InvoicePaymentResponse `json:"payments,omitempty"`
	CreatedAt     string                   `json:"created_at"`
}

func toInvoiceResponse(inv *models.Invoice, paid float64, includePayments bool) InvoiceResponse {
	resp := InvoiceResponse{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		ProviderID:    inv.ProviderID,
		ProviderName:  inv.Provider.Name,
		InvoiceDate:   inv.InvoiceDate.Format("2006-01-02"),
		DueDate:       inv.DueDate.Format("2006-01-02"),
		Subtotal:      inv.Subtotal,
		Tax:           inv.Tax,
		Discount:      inv.Discount,
		Total:         inv.Total,
		Warehouse:     inv.Warehouse,
		Status:        inv.Status,
		PaidAmount:    paid,
		Balance:       inv.Total - paid,
		Notes:         inv.Notes,
		CreatedAt:     inv.CreatedAt.Format(time.RFC3339),
	}
	if includePayments {
		for _, p := range inv.Payments {
			resp.Payments = append(resp.Payments, InvoicePaymentResponse{
				ID:            p.ID,
				PaymentNumber: p.PaymentNumber,
				PaymentDate:   p.PaymentDate.Format("2006-01-02"),
				Amount:        p.Amount,
				PaymentMethod: p.PaymentMethod,
				Reference:     p.Reference,
				CreatedAt:     p.CreatedAt.Format(time.RFC3339),
			})
		}
	}
	return resp
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrImmutableTotal), errors.Is(err, ErrHasPayments), errors.Is(err, ErrCancelledInvoice):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}

	var notFound *InvoiceNotFoundError
	var overpay *OverpaymentError
	switch {
	case errors.As(err, &notFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.As(err, &overpay):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return fiber.NewError(fiber.StatusInternalServerError, "No se pudo completar la operación")
}

func getUserName(userID uint) string {
	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		return ""
	}
	return user.Name
}

// POST /api/invoices
func CreateInvoiceHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateInvoiceRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		warehouse, err := auth.ResolveWarehouse(c, body.Warehouse)
		if err != nil {
			return err
		}
		userID, err := auth.UserIDFromCtx(c)
		if err != nil {
			return err
		}

		if body.Subtotal <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "subtotal debe ser mayor a 0")
		}
		if body.Tax < 0 || body.Discount < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "tax y discount no pueden ser negativos")
		}

		var provider models.Provider
		if err := database.DB.Where("id = ? AND warehouse = ?", body.ProviderID, warehouse).
			First(&provider).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Proveedor no encontrado en esta bodega")
		}

		invoiceDate, err := time.Parse("2006-01-02", body.InvoiceDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "El formato de invoice_date debe ser 'YYYY-MM-DD'")
		}
		dueDate, err := time.Parse("2006-01-02", body.DueDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "El formato de due_date debe ser 'YYYY-MM-DD'")
		}

		invoice, err := svc.CreateInvoice(CreateInvoiceInput{
			ProviderID:  provider.ID,
			InvoiceDate: invoiceDate,
			DueDate:     dueDate,
			Subtotal:    body.Subtotal,
			Tax:         body.Tax,
			Discount:    body.Discount,
			Notes:       body.Notes,
			Warehouse:   warehouse,
			UserID:      userID,
		})
		if err != nil {
			return mapError(err)
		}
		invoice.Provider = provider

		if logErr := audit.WriteLog(audit.LogOptions{
			Warehouse:   warehouse,
			UserID:      userID,
			UserName:    getUserName(userID),
			EntityType:  "invoice",
			EntityID:    invoice.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Factura %s de %s registrada: %.2f", invoice.InvoiceNumber, provider.Name, invoice.Total),
			After:       toInvoiceResponse(invoice, 0, false),
		}); logErr != nil {
			log.Warn().Err(logErr).Msg("no se pudo escribir auditoría")
		}

		return c.Status(fiber.StatusCreated).JSON(toInvoiceResponse(invoice, 0, false))
	}
}

// GET /api/invoices?warehouse=...&status=...&provider_id=...
func ListInvoicesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		warehouse, err := auth.WarehouseFromQuery(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.Invoice{}).Where("warehouse = ?", warehouse)

		if status := c.Query("status"); status != "" {
			dbq = dbq.Where("status = ?", status)
		}
		if providerID := c.QueryInt("provider_id"); providerID > 0 {
			dbq = dbq.Where("provider_id = ?", providerID)
		}

		var invoiceList []models.Invoice
		if err := dbq.Preload("Provider").Preload("Payments").
			Order("due_date asc, id desc").Find(&invoiceList).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar las facturas")
		}

		resp := make([]InvoiceResponse, 0, len(invoiceList))
		for i := range invoiceList {
			inv := &invoiceList[i]
			resp = append(resp, toInvoiceResponse(inv, inv.PaidAmount(), false))
		}
		return c.JSON(resp)
	}
}

// GET /api/invoices/:id
func GetInvoiceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		warehouse, err := auth.WarehouseFromQuery(c)
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id inválido")
		}

		var invoice models.Invoice
		if err := database.DB.Preload("Provider").Preload("Payments").
			Where("id = ? AND warehouse = ?", id, warehouse).
			First(&invoice).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Factura no encontrada")
		}

		return c.JSON(toInvoiceResponse(&invoice, invoice.PaidAmount(), true))
	}
}

// PUT /api/invoices/:id
func UpdateInvoiceHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpdateInvoiceRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		warehouse, err := auth.ResolveWarehouse(c, body.Warehouse)
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id inválido")
		}

		in := UpdateInvoiceInput{
			InvoiceID: uint(id),
			Warehouse: warehouse,
			Subtotal:  body.Subtotal,
			Tax:       body.Tax,
			Discount:  body.Discount,
			Notes:     body.Notes,
		}
		if body.InvoiceDate != nil {
			d, err := time.Parse("2006-01-02", *body.InvoiceDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "El formato de invoice_date debe ser 'YYYY-MM-DD'")
			}
			in.InvoiceDate = &d
		}
		if body.DueDate != nil {
			d, err := time.Parse("2006-01-02", *body.DueDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "El formato de due_date debe ser 'YYYY-MM-DD'")
			}
			in.DueDate = &d
		}

		invoice, err := svc.UpdateInvoice(in)
		if err != nil {
			return mapError(err)
		}

		var paid float64
		database.DB.Model(&models.InvoicePayment{}).
			Where("invoice_id = ?", invoice.ID).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&paid)

		return c.JSON(toInvoiceResponse(invoice, paid, false))
	}
}

// POST /api/invoices/:id/cancel
func CancelInvoiceHandler(svc *Service, store cache.Cache) fiber.Handler {
	return func(c *fiber.Ctx) error {
		warehouse, err := auth.ResolveWarehouse(c, c.Query("warehouse"))
		if err != nil {
			return err
		}
		userID, err := auth.UserIDFromCtx(c)
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id inválido")
		}

		invoice, err := svc.CancelInvoice(uint(id), warehouse)
		if err != nil {
			return mapError(err)
		}

		_ = store.Delete(c.Context(), "dashboard:"+warehouse)

		if logErr := audit.WriteLog(audit.LogOptions{
			Warehouse:   warehouse,
			UserID:      userID,
			UserName:    getUserName(userID),
			EntityType:  "invoice",
			EntityID:    invoice.ID,
			Action:      models.AuditActionCancel,
			Description: fmt.Sprintf("Factura %s anulada", invoice.InvoiceNumber),
		}); logErr != nil {
			log.Warn().Err(logErr).Msg("no se pudo escribir auditoría")
		}

		return c.JSON(toInvoiceResponse(invoice, 0, false))
	}
}

// POST /api/invoices/:id/payments
func AddPaymentHandler(svc *Service, store cache.Cache) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body AddPaymentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		warehouse, err := auth.ResolveWarehouse(c, body.Warehouse)
		if err != nil {
			return err
		}
		userID, err := auth.UserIDFromCtx(c)
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id inválido")
		}

		if body.Amount <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "amount debe ser mayor a 0")
		}
		if body.Method == "" {
			return fiber.NewError(fiber.StatusBadRequest, "method es obligatorio")
		}

		paymentDate := time.Now()
		if body.PaymentDate != "" {
			d, err := time.Parse("2006-01-02", body.PaymentDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "El formato de payment_date debe ser 'YYYY-MM-DD'")
			}
			paymentDate = d
		}

		result, err := svc.AddPayment(AddPaymentInput{
			InvoiceID:   uint(id),
			Warehouse:   warehouse,
			PaymentDate: paymentDate,
			Amount:      body.Amount,
			Method:      body.Method,
			Reference:   body.Reference,
			Notes:       body.Notes,
		})
		if err != nil {
			return mapError(err)
		}

		_ = store.Delete(c.Context(), "dashboard:"+warehouse)

		if logErr := audit.WriteLog(audit.LogOptions{
			Warehouse:   warehouse,
			UserID:      userID,
			UserName:    getUserName(userID),
			EntityType:  "invoice_payment",
			EntityID:    result.Payment.ID,
			Action:      models.AuditActionPayment,
			Description: fmt.Sprintf("Abono %s a factura %s: %.2f (saldo %.2f)", result.Payment.PaymentNumber, result.Invoice.InvoiceNumber, result.Payment.Amount, result.Balance),
			After: fiber.Map{
				"amount":  result.Payment.Amount,
				"balance": result.Balance,
				"status":  result.Invoice.Status,
			},
		}); logErr != nil {
			log.Warn().Err(logErr).Msg("no se pudo escribir auditoría")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"payment": InvoicePaymentResponse{
				ID:            result.Payment.ID,
				PaymentNumber: result.Payment.PaymentNumber,
				PaymentDate:   result.Payment.PaymentDate.Format("2006-01-02"),
				Amount:        result.Payment.Amount,
				PaymentMethod: result.Payment.PaymentMethod,
				Reference:     result.Payment.Reference,
				CreatedAt:     result.Payment.CreatedAt.Format(time.RFC3339),
			},
			"invoice": toInvoiceResponse(&result.Invoice, result.PaidAmount, false),
		})
	}
}

// GET /api/invoices/:id/payments
func ListPaymentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		warehouse, err := auth.WarehouseFromQuery(c)
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id inválido")
		}

		var invoice models.Invoice
		if err := database.DB.Where("id = ? AND warehouse = ?", id, warehouse).
			First(&invoice).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Factura no encontrada")
		}

		var payments []models.InvoicePayment
		if err := database.DB.Where("invoice_id = ?", invoice.ID).
			Order("payment_date desc, id desc").
			Find(&payments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los abonos")
		}

		resp := make([]InvoicePaymentResponse, 0, len(payments))
		for _, p := range payments {
			resp = append(resp, InvoicePaymentResponse{
				ID:            p.ID,
				PaymentNumber: p.PaymentNumber,
				PaymentDate:   p.PaymentDate.Format("2006-01-02"),
				Amount:        p.Amount,
				PaymentMethod: p.PaymentMethod,
				Reference:     p.Reference,
				CreatedAt:     p.CreatedAt.Format(time.RFC3339),
			})
		}
		return c.JSON(resp)
	}
}
