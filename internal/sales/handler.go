package sales

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

type CreateSaleRequest struct {
	Items    []SaleItemInput `json:"items"`
	Payments []PaymentInput  `json:"payments"`
	PaymentMethod string  `json:"payment_method"` // atajo: un solo pago por el total
	Discount      float64 `json:"discount"`
	Tax           float64 `json:"tax"`
	CustomerName  string  `json:"customer_name"`
	CustomerPhone string  `json:"customer_phone"`
	Notes         string  `json:"notes"`
	Warehouse     string  `json:"warehouse"` // solo admin
}

type SaleItemResponse struct {
	ID          uint    `json:"id"`
	ProductID   uint    `json:"product_id"`
	ProductName string  `json:"product_name,omitempty"`
	Size        string  `json:"size"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Subtotal    float64 `json:"subtotal"`
}

type SalePaymentResponse struct {
	ID            uint    `json:"id"`
	PaymentMethod string  `json:"payment_method"`
	Amount        float64 `json:"amount"`
	Reference     string  `json:"reference"`
}

type SaleResponse struct {
	ID             uint                  `json:"id"`
	SaleNumber     string                `json:"sale_number"`
	Warehouse      string                `json:"warehouse"`
	UserID         uint                  `json:"user_id"`
	CustomerName   string                `json:"customer_name"`
	CustomerPhone  string                `json:"customer_phone"`
	Subtotal       float64               `json:"subtotal"`
	Discount       float64               `json:"discount"`
	Tax            float64               `json:"tax"`
	Total          float64               `json:"total"`
	Status         models.SaleStatus     `json:"status"`
	ReceiptToken   string                `json:"receipt_token"`
	TotalItems     int                   `json:"total_items"`
	IsMixedPayment bool                  `json:"is_mixed_payment"`
	Items          []SaleItemResponse    `json:"items,omitempty"`
	Payments       []SalePaymentResponse `json:"payments,omitempty"`
	CreatedAt      string                `json:"created_at"`
}

func toSaleResponse(s *models.Sale, includeDetail bool) SaleResponse {
	resp := SaleResponse{
		ID:             s.ID,
		SaleNumber:     s.SaleNumber,
		Warehouse:      s.Warehouse,
		UserID:         s.UserID,
		CustomerName:   s.CustomerName,
		CustomerPhone:  s.CustomerPhone,
		Subtotal:       s.Subtotal,
		Discount:       s.Discount,
		Tax:            s.Tax,
		Total:          s.Total,
		Status:         s.Status,
		ReceiptToken:   s.ReceiptToken,
		TotalItems:     s.TotalItems(),
		IsMixedPayment: s.IsMixedPayment(),
		CreatedAt:      s.CreatedAt.Format(time.RFC3339),
	}
	if !includeDetail {
		return resp
	}
	for _, it := range s.Items {
		resp.Items = append(resp.Items, SaleItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.Product.Name,
			Size:        it.Size,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.Subtotal,
		})
	}
	for _, p := range s.Payments {
		resp.Payments = append(resp.Payments, SalePaymentResponse{
			ID:            p.ID,
			PaymentMethod: p.PaymentMethod,
			Amount:        p.Amount,
			Reference:     p.Reference,
		})
	}
	return resp
}

// mapError traduce los errores del servicio a estados HTTP.
func mapError(err error) error {
	switch {
	case errors.Is(err, ErrEmptyOrder), errors.Is(err, ErrNoPaymentMethod):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}

	var notFound *ProductNotFoundError
	var noEntry *NoStockEntryError
	var saleNotFound *SaleNotFoundError
	var inactive *InactiveProductError
	var noStock *InsufficientStockError
	var noPay *InsufficientPaymentError
	var cancelled *AlreadyCancelledError

	switch {
	case errors.As(err, &notFound), errors.As(err, &noEntry), errors.As(err, &saleNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.As(err, &inactive), errors.As(err, &noStock), errors.As(err, &noPay):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.As(err, &cancelled):
		return fiber.NewError(fiber.StatusConflict, err.Error())
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

// POST /api/sales
func CreateSaleHandler(svc *Service, store cache.Cache) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSaleRequest
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

		if body.Discount < 0 || body.Tax < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "discount y tax no pueden ser negativos")
		}
		for _, p := range body.Payments {
			if p.Amount <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Todos los pagos deben ser mayores a 0")
			}
		}

		sale, err := svc.CreateSale(CreateSaleInput{
			Items:         body.Items,
			Payments:      body.Payments,
			PaymentMethod: body.PaymentMethod,
			Discount:      body.Discount,
			Tax:           body.Tax,
			CustomerName:  body.CustomerName,
			CustomerPhone: body.CustomerPhone,
			Notes:         body.Notes,
			Warehouse:     warehouse,
			UserID:        userID,
		})
		if err != nil {
			return mapError(err)
		}

		_ = store.Delete(c.Context(), "dashboard:"+warehouse)

		if logErr := audit.WriteLog(audit.LogOptions{
			Warehouse:   warehouse,
			UserID:      userID,
			UserName:    getUserName(userID),
			EntityType:  "sale",
			EntityID:    sale.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Venta %s registrada: %.2f", sale.SaleNumber, sale.Total),
			After:       toSaleResponse(sale, false),
		}); logErr != nil {
			log.Warn().Err(logErr).Msg("no se pudo escribir auditoría")
		}

		return c.Status(fiber.StatusCreated).JSON(toSaleResponse(sale, true))
	}
}

// GET /api/sales?warehouse=...&status=...&from=...&to=...
func ListSalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		warehouse, err := auth.WarehouseFromQuery(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.Sale{}).Where("warehouse = ?", warehouse)

		if status := c.Query("status"); status != "" {
			if status != string(models.SaleStatusCompleted) && status != string(models.SaleStatusCancelled) {
				return fiber.NewError(fiber.StatusBadRequest, "status debe ser COMPLETED o CANCELLED")
			}
			dbq = dbq.Where("status = ?", status)
		}
		if from := c.Query("from"); from != "" {
			d, err := time.Parse("2006-01-02", from)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "El formato de fecha debe ser 'YYYY-MM-DD'")
			}
			dbq = dbq.Where("created_at >= ?", d)
		}
		if to := c.Query("to"); to != "" {
			d, err := time.Parse("2006-01-02", to)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "El formato de fecha debe ser 'YYYY-MM-DD'")
			}
			dbq = dbq.Where("created_at < ?", d.AddDate(0, 0, 1))
		}

		var salesList []models.Sale
		if err := dbq.Preload("Items").Preload("Payments").
			Order("created_at desc, id desc").Find(&salesList).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar las ventas")
		}

		resp := make([]SaleResponse, 0, len(salesList))
		for i := range salesList {
			resp = append(resp, toSaleResponse(&salesList[i], false))
		}
		return c.JSON(resp)
	}
}

// GET /api/sales/:id
func GetSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		warehouse, err := auth.WarehouseFromQuery(c)
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id inválido")
		}

		var sale models.Sale
		if err := database.DB.Preload("Items.Product").Preload("Payments").
			Where("id = ? AND warehouse = ?", id, warehouse).
			First(&sale).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Venta no encontrada")
		}

		return c.JSON(toSaleResponse(&sale, true))
	}
}

// POST /api/sales/:id/cancel
func CancelSaleHandler(svc *Service, store cache.Cache) fiber.Handler {
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

		sale, err := svc.CancelSale(uint(id), warehouse)
		if err != nil {
			return mapError(err)
		}

		_ = store.Delete(c.Context(), "dashboard:"+warehouse)

		if logErr := audit.WriteLog(audit.LogOptions{
			Warehouse:   warehouse,
			UserID:      userID,
			UserName:    getUserName(userID),
			EntityType:  "sale",
			EntityID:    sale.ID,
			Action:      models.AuditActionCancel,
			Description: fmt.Sprintf("Venta %s anulada, stock repuesto", sale.SaleNumber),
			Before:      models.SaleStatusCompleted,
			After:       models.SaleStatusCancelled,
		}); logErr != nil {
			log.Warn().Err(logErr).Msg("no se pudo escribir auditoría")
		}

		return c.JSON(toSaleResponse(sale, false))
	}
}
