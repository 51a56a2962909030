package providers

import (
	"strings"
	"time"

	"maca-backend/internal/auth"
	"maca-backend/internal/database"
	"maca-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateProviderRequest struct {
	Name        string `json:"name"`
	Nit         string `json:"nit"`
	ContactName string `json:"contact_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	Warehouse   string `json:"warehouse"` // solo admin
}

type UpdateProviderRequest struct {
	Name        *string `json:"name"`
	Nit         *string `json:"nit"`
	ContactName *string `json:"contact_name"`
	Phone       *string `json:"phone"`
	Email       *string `json:"email"`
	Address     *string `json:"address"`
	Active      *bool   `json:"active"`
	Warehouse   string  `json:"warehouse"` // solo admin
}

type ProviderResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Nit         string `json:"nit"`
	ContactName string `json:"contact_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	Warehouse   string `json:"warehouse"`
	Active      bool   `json:"active"`
	CreatedAt   string `json:"created_at"`
}

func toProviderResponse(p *models.Provider) ProviderResponse {
	return ProviderResponse{
		ID:          p.ID,
		Name:        p.Name,
		Nit:         p.Nit,
		ContactName: p.ContactName,
		Phone:       p.Phone,
		Email:       p.Email,
		Address:     p.Address,
		Warehouse:   p.Warehouse,
		Active:      p.Active,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
}

// POST /api/providers
func CreateProviderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProviderRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		warehouse, err := auth.ResolveWarehouse(c, body.Warehouse)
		if err != nil {
			return err
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name es obligatorio")
		}

		provider := models.Provider{
			Name:        body.Name,
			Nit:         strings.TrimSpace(body.Nit),
			ContactName: strings.TrimSpace(body.ContactName),
			Phone:       strings.TrimSpace(body.Phone),
			Email:       strings.TrimSpace(strings.ToLower(body.Email)),
			Address:     strings.TrimSpace(body.Address),
			Warehouse:   warehouse,
			Active:      true,
		}

		if err := database.DB.Create(&provider).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo crear el proveedor")
		}

		return c.Status(fiber.StatusCreated).JSON(toProviderResponse(&provider))
	}
}

// GET /api/providers?warehouse=...&active=...
func ListProvidersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		warehouse, err := auth.WarehouseFromQuery(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.Provider{}).Where("warehouse = ?", warehouse)
		if active := c.Query("active"); active == "true" {
			dbq = dbq.Where("active = ?", true)
		}

		var list []models.Provider
		if err := dbq.Order("name asc").Find(&list).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los proveedores")
		}

		resp := make([]ProviderResponse, 0, len(list))
		for i := range list {
			resp = append(resp, toProviderResponse(&list[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/providers/:id
func GetProviderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		warehouse, err := auth.WarehouseFromQuery(c)
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id inválido")
		}

		var provider models.Provider
		if err := database.DB.Where("id = ? AND warehouse = ?", id, warehouse).
			First(&provider).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Proveedor no encontrado")
		}

		return c.JSON(toProviderResponse(&provider))
	}
}

// PUT /api/providers/:id
func UpdateProviderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpdateProviderRequest
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

		var provider models.Provider
		if err := database.DB.Where("id = ? AND warehouse = ?", id, warehouse).
			First(&provider).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Proveedor no encontrado")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name no puede quedar vacío")
			}
			provider.Name = name
		}
		if body.Nit != nil {
			provider.Nit = strings.TrimSpace(*body.Nit)
		}
		if body.ContactName != nil {
			provider.ContactName = strings.TrimSpace(*body.ContactName)
		}
		if body.Phone != nil {
			provider.Phone = strings.TrimSpace(*body.Phone)
		}
		if body.Email != nil {
			provider.Email = strings.TrimSpace(strings.ToLower(*body.Email))
		}
		if body.Address != nil {
			provider.Address = strings.TrimSpace(*body.Address)
		}
		if body.Active != nil {
			provider.Active = *body.Active
		}

		if err := database.DB.Save(&provider).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar el proveedor")
		}

		return c.JSON(toProviderResponse(&provider))
	}
}

// DELETE /api/providers/:id — se rechaza si tiene facturas abiertas
func DeleteProviderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		warehouse, err := auth.ResolveWarehouse(c, c.Query("warehouse"))
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id inválido")
		}

		var provider models.Provider
		if err := database.DB.Where("id = ? AND warehouse = ?", id, warehouse).
			First(&provider).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Proveedor no encontrado")
		}

		var openCount int64
		database.DB.Model(&models.Invoice{}).
			Where("provider_id = ? AND status NOT IN ?", provider.ID,
				[]models.InvoiceStatus{models.InvoiceStatusPaid, models.InvoiceStatusCancelled}).
			Count(&openCount)
		if openCount > 0 {
			return fiber.NewError(fiber.StatusConflict, "El proveedor tiene facturas abiertas, no puede eliminarse")
		}

		var invoiceCount int64
		database.DB.Model(&models.Invoice{}).Where("provider_id = ?", provider.ID).Count(&invoiceCount)
		if invoiceCount > 0 {
			// con historial solo se desactiva
			if err := database.DB.Model(&provider).Update("active", false).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "No se pudo desactivar el proveedor")
			}
			return c.JSON(fiber.Map{"deactivated": true})
		}

		if err := database.DB.Delete(&provider).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar el proveedor")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
