package sales

import (
	"strings"
	"time"

	"maca-backend/internal/models"
	"maca-backend/internal/sequence"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type SaleItemInput struct {
	ProductID uint   `json:"product_id"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

type PaymentInput struct {
	Method    string  `json:"method"`
	Amount    float64 `json:"amount"`
	Reference string  `json:"reference"`
	Notes     string  `json:"notes"`
}

type CreateSaleInput struct {
	Items    []SaleItemInput
	Payments []PaymentInput
	// Atajo: un solo método de pago por el total, cuando Payments viene vacío
	PaymentMethod string
	Discount      float64
	Tax           float64
	CustomerName  string
	CustomerPhone string
	Notes         string
	Warehouse     string
	UserID        uint
}

// CreateSale valida los renglones contra el stock, congela los precios
// unitarios, valida los pagos y escribe todo (venta + renglones + pagos
// + descuentos de stock) en una sola transacción. O queda todo, o nada.
func (s *Service) CreateSale(in CreateSaleInput) (*models.Sale, error) {
	if len(in.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	var sale models.Sale

	err := s.db.Transaction(func(tx *gorm.DB) error {
		type lineItem struct {
			entry models.StockEntry
			item  models.SaleItem
		}

		subtotal := 0.0
		lines := make([]lineItem, 0, len(in.Items))

		for _, req := range in.Items {
			if req.Quantity <= 0 {
				return &InsufficientStockError{ProductID: req.ProductID, Size: req.Size, Requested: req.Quantity}
			}

			var product models.Product
			if err := tx.Where("id = ? AND warehouse = ?", req.ProductID, in.Warehouse).
				First(&product).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return &ProductNotFoundError{ProductID: req.ProductID, Warehouse: in.Warehouse}
				}
				return err
			}
			if !product.Active {
				return &InactiveProductError{ProductID: product.ID, Name: product.Name}
			}

			var entry models.StockEntry
			if err := tx.Where("product_id = ? AND size = ?", product.ID, req.Size).
				First(&entry).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return &NoStockEntryError{ProductID: product.ID, Size: req.Size}
				}
				return err
			}

			if req.Quantity > entry.AvailableQuantity() {
				return &InsufficientStockError{
					ProductID: product.ID,
					Name:      product.Name,
					Size:      req.Size,
					Available: entry.AvailableQuantity(),
					Requested: req.Quantity,
				}
			}

			// precio leído del producto, nunca del cliente
			lineSubtotal := product.SalePrice * float64(req.Quantity)
			subtotal += lineSubtotal

			lines = append(lines, lineItem{
				entry: entry,
				item: models.SaleItem{
					ProductID: product.ID,
					Size:      req.Size,
					Quantity:  req.Quantity,
					UnitPrice: product.SalePrice,
					Subtotal:  lineSubtotal,
				},
			})
		}

		total := subtotal - in.Discount + in.Tax

		payments := make([]models.SalePayment, 0, len(in.Payments))
		for _, p := range in.Payments {
			payments = append(payments, models.SalePayment{
				PaymentMethod: strings.TrimSpace(p.Method),
				Amount:        p.Amount,
				Reference:     p.Reference,
				Notes:         p.Notes,
			})
		}
		if len(payments) == 0 && strings.TrimSpace(in.PaymentMethod) != "" {
			payments = append(payments, models.SalePayment{
				PaymentMethod: strings.TrimSpace(in.PaymentMethod),
				Amount:        total,
			})
		}
		if len(payments) == 0 {
			return ErrNoPaymentMethod
		}

		paid := 0.0
		for _, p := range payments {
			paid += p.Amount
		}
		// El sobrepago se acepta y no se registra como vuelto; el único
		// requisito es que los pagos cubran el total.
		if paid < total {
			return &InsufficientPaymentError{Paid: paid, Total: total}
		}

		saleNumber, err := sequence.SaleNumber(tx, in.Warehouse, time.Now())
		if err != nil {
			return err
		}

		items := make([]models.SaleItem, len(lines))
		for i, l := range lines {
			items[i] = l.item
		}

		sale = models.Sale{
			SaleNumber:    saleNumber,
			Warehouse:     in.Warehouse,
			UserID:        in.UserID,
			CustomerName:  strings.TrimSpace(in.CustomerName),
			CustomerPhone: strings.TrimSpace(in.CustomerPhone),
			Subtotal:      subtotal,
			Discount:      in.Discount,
			Tax:           in.Tax,
			Total:         total,
			Status:        models.SaleStatusCompleted,
			ReceiptToken:  uuid.NewString(),
			Notes:         strings.TrimSpace(in.Notes),
			Items:         items,
			Payments:      payments,
		}

		if err := tx.Create(&sale).Error; err != nil {
			return err
		}

		// Descuento condicional: si otra venta se adelantó y ya no hay
		// unidades, RowsAffected es 0 y toda la transacción revierte.
		for _, l := range lines {
			res := tx.Model(&models.StockEntry{}).
				Where("id = ? AND quantity - reserved_quantity >= ?", l.entry.ID, l.item.Quantity).
				Update("quantity", gorm.Expr("quantity - ?", l.item.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrConflict
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("sale_number", sale.SaleNumber).
		Str("warehouse", sale.Warehouse).
		Float64("total", sale.Total).
		Int("items", len(sale.Items)).
		Msg("venta registrada")

	return &sale, nil
}

// CancelSale repone el stock de cada renglón y marca la venta como
// anulada, todo en una transacción. Anular dos veces se rechaza.
func (s *Service) CancelSale(saleID uint, warehouse string) (*models.Sale, error) {
	var sale models.Sale

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").
			Where("id = ? AND warehouse = ?", saleID, warehouse).
			First(&sale).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &SaleNotFoundError{SaleID: saleID, Warehouse: warehouse}
			}
			return err
		}

		// Anulación condicional: solo una de dos anulaciones concurrentes
		// pasa de COMPLETED a CANCELLED; la otra ve RowsAffected 0 y no
		// repone stock. Mismo patrón que el descuento condicional.
		res := tx.Model(&models.Sale{}).
			Where("id = ? AND status = ?", sale.ID, models.SaleStatusCompleted).
			Update("status", models.SaleStatusCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &AlreadyCancelledError{SaleID: sale.ID}
		}
		sale.Status = models.SaleStatusCancelled

		for _, item := range sale.Items {
			// La reposición se resuelve por (producto, talla). Si el
			// registro de stock fue borrado después de la venta, se
			// recrea con la cantidad repuesta.
			var entry models.StockEntry
			err := tx.Where("product_id = ? AND size = ?", item.ProductID, item.Size).
				First(&entry).Error
			if err == gorm.ErrRecordNotFound {
				entry = models.StockEntry{
					ProductID: item.ProductID,
					Size:      item.Size,
					Quantity:  item.Quantity,
				}
				if err := tx.Create(&entry).Error; err != nil {
					return err
				}
				continue
			}
			if err != nil {
				return err
			}

			if err := tx.Model(&models.StockEntry{}).
				Where("id = ?", entry.ID).
				Update("quantity", gorm.Expr("quantity + ?", item.Quantity)).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("sale_number", sale.SaleNumber).
		Str("warehouse", sale.Warehouse).
		Msg("venta anulada, stock repuesto")

	return &sale, nil
}
