package inventory

import (
	"strings"
	"time"

	"maca-backend/internal/auth"
	"maca-backend/internal/database"
	"maca-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateProductRequest struct {
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Brand         string  `json:"brand"`
	Material      string  `json:"material"`
	Color         string  `json:"color"`
	PurchasePrice float64 `json:"purchase_price"`
	SalePrice     float64 `json:"sale_price"`
	MinStock      int     `json:"min_stock"`
	Warehouse     string  `json:"warehouse"` // solo admin
}

type UpdateProductRequest struct {
	Name          *string  `json:"name"`
	Category      *string  `json:"category"`
	Brand         *string  `json:"brand"`
	Material      *string  `json:"material"`
	Color         *string  `json:"color"`
	PurchasePrice *float64 `json:"purchase_price"`
	SalePrice     *float64 `json:"sale_price"`
	MinStock      *int     `json:"min_stock"`
	Active        *bool    `json:"active"`
	Warehouse     string   `json:"warehouse"` // solo admin
}

type StockEntryResponse struct {
	ID               uint   `json:"id"`
	Size             string `json:"size"`
	Quantity         int    `json:"quantity"`
	ReservedQuantity int    `json:"reserved_quantity"`
	Available        int    `json:"available"`
}

type ProductResponse struct {
	ID            uint    `json:"id"`
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Brand         string  `json:"brand"`
	Material      string  `json:"material"`
	Color         string  `json:"color"`
	PurchasePrice float64 `json:"purchase_price"`
	SalePrice     float64 `json:"sale_price"`
	MinStock      int     `json:"min_stock"`
	Active        bool    `json:"active"`
	Warehouse     string  `json:"warehouse"`
	TotalStock    int     `json:"total_stock"`
	Stock         []StockEntryResponse `json:"stock,omitempty"`
	CreatedAt     string               `json:"created_at"`
}

func toProductResponse(p *models.Product, includeStock bool) ProductResponse {
	resp := ProductResponse{
		ID:            p.ID,
		Code:          p.Code,
		Name:          p.Name,
		Category:      p.Category,
		Brand:         p.Brand,
		Material:      p.Material,
		Color:         p.Color,
		PurchasePrice: p.PurchasePrice,
		SalePrice:     p.SalePrice,
		MinStock:      p.MinStock,
		Active:        p.Active,
		Warehouse:     p.Warehouse,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
	}
	for _, e := range p.StockEntries {
		resp.TotalStock += e.Quantity
		if includeStock {
			resp.Stock = append(resp.Stock, StockEntryResponse{
				ID:               e.ID,
				Size:             e.Size,
				Quantity:         e.Quantity,
				ReservedQuantity: e.ReservedQuantity,
				Available:        e.AvailableQuantity(),
			})
		}
	}
	return resp
}

// POST /api/admin/products
func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		warehouse, err := auth.ResolveWarehouse(c, body.Warehouse)
		if err != nil {
			return err
		}

		body.Code = strings.ToUpper(strings.TrimSpace(body.Code))
		body.Name = strings.TrimSpace(body.Name)

		if body.Code == "" || body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "code y name son obligatorios")
		}
		if body.SalePrice <= 0 || body.PurchasePrice < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "sale_price debe ser mayor a 0")
		}
		if body.MinStock < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "min_stock no puede ser negativo")
		}

		product := models.Product{
			Code:          body.Code,
			Warehouse:     warehouse,
			Name:          body.Name,
			Category:      strings.TrimSpace(body.Category),
			Brand:         strings.TrimSpace(body.Brand),
			Material:      strings.TrimSpace(body.Material),
			Color:         strings.TrimSpace(body.Color),
			PurchasePrice: body.PurchasePrice,
			SalePrice:     body.SalePrice,
			MinStock:      body.MinStock,
			Active:        true,
		}

		if err := database.DB.Create(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, "No se pudo crear el producto (¿código repetido en la bodega?)")
		}

		return c.Status(fiber.StatusCreated).JSON(toProductResponse(&product, false))
	}
}

// GET /api/products?warehouse=...&category=...&active=...&q=...
func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		warehouse, err := auth.WarehouseFromQuery(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.Product{}).Where("warehouse = ?", warehouse)

		if category := c.Query("category"); category != "" {
			dbq = dbq.Where("category = ?", category)
		}
		if active := c.Query("active"); active == "true" {
			dbq = dbq.Where("active = ?", true)
		} else if active == "false" {
			dbq = dbq.Where("active = ?", false)
		}
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			like := "%" + strings.ToLower(q) + "%"
			dbq = dbq.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", like, like)
		}

		var products []models.Product
		if err := dbq.Preload("StockEntries").Order("name asc").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los productos")
		}

		resp := make([]ProductResponse, 0, len(products))
		for i := range products {
			resp = append(resp, toProductResponse(&products[i], false))
		}
		return c.JSON(resp)
	}
}

// GET /api/products/:id
func GetProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		warehouse, err := auth.WarehouseFromQuery(c)
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id inválido")
		}

		var product models.Product
		if err := database.DB.Preload("StockEntries").
			Where("id = ? AND warehouse = ?", id, warehouse).
			First(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Producto no encontrado")
		}

		return c.JSON(toProductResponse(&product, true))
	}
}

// PUT /api/admin/products/:id
func UpdateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpdateProductRequest
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

		var product models.Product
		if err := database.DB.Where("id = ? AND warehouse = ?", id, warehouse).
			First(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Producto no encontrado")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name no puede quedar vacío")
			}
			product.Name = name
		}
		if body.Category != nil {
			product.Category = strings.TrimSpace(*body.Category)
		}
		if body.Brand != nil {
			product.Brand = strings.TrimSpace(*body.Brand)
		}
		if body.Material != nil {
			product.Material = strings.TrimSpace(*body.Material)
		}
		if body.Color != nil {
			product.Color = strings.TrimSpace(*body.Color)
		}
		if body.PurchasePrice != nil {
			if *body.PurchasePrice < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "purchase_price no puede ser negativo")
			}
			product.PurchasePrice = *body.PurchasePrice
		}
		if body.SalePrice != nil {
			if *body.SalePrice <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "sale_price debe ser mayor a 0")
			}
			product.SalePrice = *body.SalePrice
		}
		if body.MinStock != nil {
			if *body.MinStock < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "min_stock no puede ser negativo")
			}
			product.MinStock = *body.MinStock
		}
		if body.Active != nil {
			product.Active = *body.Active
		}

		if err := database.DB.Save(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar el producto")
		}

		return c.JSON(toProductResponse(&product, false))
	}
}

// DELETE /api/admin/products/:id — con historial de ventas solo se desactiva
func DeleteProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		warehouse, err := auth.ResolveWarehouse(c, c.Query("warehouse"))
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id inválido")
		}

		var product models.Product
		if err := database.DB.Where("id = ? AND warehouse = ?", id, warehouse).
			First(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Producto no encontrado")
		}

		var soldCount int64
		database.DB.Model(&models.SaleItem{}).Where("product_id = ?", product.ID).Count(&soldCount)
		if soldCount > 0 {
			if err := database.DB.Model(&product).Update("active", false).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "No se pudo desactivar el producto")
			}
			return c.JSON(fiber.Map{
				"deactivated": true,
				"message":     "El producto tiene ventas registradas; se desactivó en lugar de eliminarse",
			})
		}

		if err := database.DB.Select("StockEntries").Delete(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar el producto")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
