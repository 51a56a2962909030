package inventory

import (
	"strings"

	"maca-backend/internal/auth"
	"maca-backend/internal/database"
	"maca-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UpsertStockEntryRequest struct {
	ProductID uint   `json:"product_id"`
	Size      string `json:"size"`
	// Cantidad a sumar (negativa para ajustes a la baja)
	Adjustment int    `json:"adjustment"`
	Warehouse  string `json:"warehouse"` // solo admin
}

// POST /api/stock-entries — crea o ajusta las existencias de una talla.
// El ajuste es un incremento atómico; nunca deja la cantidad negativa.
func UpsertStockEntryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpsertStockEntryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		warehouse, err := auth.ResolveWarehouse(c, body.Warehouse)
		if err != nil {
			return err
		}

		body.Size = strings.TrimSpace(body.Size)
		if body.Size == "" {
			return fiber.NewError(fiber.StatusBadRequest, "size es obligatoria")
		}
		if body.Adjustment == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "adjustment no puede ser 0")
		}

		var product models.Product
		if err := database.DB.Where("id = ? AND warehouse = ?", body.ProductID, warehouse).
			First(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Producto no encontrado en esta bodega")
		}

		var entry models.StockEntry
		txErr := database.DB.Transaction(func(tx *gorm.DB) error {
			// bloquea la fila de stock mientras se aplica el ajuste
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("product_id = ? AND size = ?", product.ID, body.Size).
				First(&entry).Error
			if err == gorm.ErrRecordNotFound {
				if body.Adjustment < 0 {
					return fiber.NewError(fiber.StatusBadRequest, "No existe registro de stock para descontar")
				}
				entry = models.StockEntry{
					ProductID: product.ID,
					Size:      body.Size,
					Quantity:  body.Adjustment,
				}
				return tx.Create(&entry).Error
			}
			if err != nil {
				return err
			}

			newQty := entry.Quantity + body.Adjustment
			if newQty < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "El ajuste dejaría la cantidad en negativo")
			}
			entry.Quantity = newQty
			return tx.Save(&entry).Error
		})
		if txErr != nil {
			if e, ok := txErr.(*fiber.Error); ok {
				return e
			}
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo ajustar el stock")
		}

		return c.Status(fiber.StatusCreated).JSON(StockEntryResponse{
			ID:               entry.ID,
			Size:             entry.Size,
			Quantity:         entry.Quantity,
			ReservedQuantity: entry.ReservedQuantity,
			Available:        entry.AvailableQuantity(),
		})
	}
}

// GET /api/stock-entries?product_id=...
func ListStockEntriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		warehouse, err := auth.WarehouseFromQuery(c)
		if err != nil {
			return err
		}

		productID := c.QueryInt("product_id")
		if productID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "product_id es obligatorio")
		}

		var product models.Product
		if err := database.DB.Where("id = ? AND warehouse = ?", productID, warehouse).
			First(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Producto no encontrado en esta bodega")
		}

		var entries []models.StockEntry
		if err := database.DB.Where("product_id = ?", product.ID).
			Order("size asc").Find(&entries).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar las existencias")
		}

		resp := make([]StockEntryResponse, 0, len(entries))
		for _, e := range entries {
			resp = append(resp, StockEntryResponse{
				ID:               e.ID,
				Size:             e.Size,
				Quantity:         e.Quantity,
				ReservedQuantity: e.ReservedQuantity,
				Available:        e.AvailableQuantity(),
			})
		}
		return c.JSON(resp)
	}
}

type LowStockRow struct {
	ProductID uint   `json:"product_id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	MinStock  int    `json:"min_stock"`
	Available int    `json:"available"`
}

// GET /api/stock-entries/low — productos cuyo disponible total está en
// o por debajo de su umbral mínimo.
func LowStockHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		warehouse, err := auth.WarehouseFromQuery(c)
		if err != nil {
			return err
		}

		var rows []LowStockRow
		err = database.DB.Model(&models.Product{}).
			Select(`products.id AS product_id, products.code, products.name, products.min_stock,
				COALESCE(SUM(stock_entries.quantity - stock_entries.reserved_quantity), 0) AS available`).
			Joins("LEFT JOIN stock_entries ON stock_entries.product_id = products.id").
			Where("products.warehouse = ? AND products.active = ?", warehouse, true).
			Group("products.id, products.code, products.name, products.min_stock").
			Having("COALESCE(SUM(stock_entries.quantity - stock_entries.reserved_quantity), 0) <= products.min_stock").
			Order("available asc").
			Scan(&rows).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo calcular el stock bajo")
		}

		return c.JSON(rows)
	}
}
