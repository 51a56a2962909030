package employees

import (
	"strings"
	"time"

	"maca-backend/internal/auth"
	"maca-backend/internal/database"
	"maca-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateEmployeeRequest struct {
	UserID         *uint   `json:"user_id"`
	Name           string  `json:"name"`
	Document       string  `json:"document"`
	Phone          string  `json:"phone"`
	Position       string  `json:"position"`
	BaseSalary     float64 `json:"base_salary"`
	CommissionRate float64 `json:"commission_rate"` // 0.05 = 5%
	Warehouse      string  `json:"warehouse"`       // solo admin
}

type UpdateEmployeeRequest struct {
	Name           *string  `json:"name"`
	Document       *string  `json:"document"`
	Phone          *string  `json:"phone"`
	Position       *string  `json:"position"`
	BaseSalary     *float64 `json:"base_salary"`
	CommissionRate *float64 `json:"commission_rate"`
	Active         *bool    `json:"active"`
	Warehouse      string   `json:"warehouse"` // solo admin
}

type EmployeeResponse struct {
	ID             uint    `json:"id"`
	UserID         *uint   `json:"user_id"`
	Name           string  `json:"name"`
	Document       string  `json:"document"`
	Phone          string  `json:"phone"`
	Position       string  `json:"position"`
	BaseSalary     float64 `json:"base_salary"`
	CommissionRate float64 `json:"commission_rate"`
	Warehouse      string  `json:"warehouse"`
	Active         bool    `json:"active"`
	CreatedAt      string  `json:"created_at"`
}

func toEmployeeResponse(e *models.Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:             e.ID,
		UserID:         e.UserID,
		Name:           e.Name,
		Document:       e.Document,
		Phone:          e.Phone,
		Position:       e.Position,
		BaseSalary:     e.BaseSalary,
		CommissionRate: e.CommissionRate,
		Warehouse:      e.Warehouse,
		Active:         e.Active,
		CreatedAt:      e.CreatedAt.Format(time.RFC3339),
	}
}

// POST /api/admin/employees
func CreateEmployeeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateEmployeeRequest
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
		if body.CommissionRate < 0 || body.CommissionRate > 1 {
			return fiber.NewError(fiber.StatusBadRequest, "commission_rate debe estar entre 0 y 1")
		}
		if body.BaseSalary < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "base_salary no puede ser negativo")
		}

		if body.UserID != nil {
			var user models.User
			if err := database.DB.First(&user, *body.UserID).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "El usuario asociado no existe")
			}
		}

		employee := models.Employee{
			UserID:         body.UserID,
			Name:           body.Name,
			Document:       strings.TrimSpace(body.Document),
			Phone:          strings.TrimSpace(body.Phone),
			Position:       strings.TrimSpace(body.Position),
			BaseSalary:     body.BaseSalary,
			CommissionRate: body.CommissionRate,
			Warehouse:      warehouse,
			Active:         true,
		}

		if err := database.DB.Create(&employee).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo crear el empleado")
		}

		return c.Status(fiber.StatusCreated).JSON(toEmployeeResponse(&employee))
	}
}

// GET /api/employees?warehouse=...
func ListEmployeesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		warehouse, err := auth.WarehouseFromQuery(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.Employee{}).Where("warehouse = ?", warehouse)
		if active := c.Query("active"); active == "true" {
			dbq = dbq.Where("active = ?", true)
		}

		var list []models.Employee
		if err := dbq.Order("name asc").Find(&list).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los empleados")
		}

		resp := make([]EmployeeResponse, 0, len(list))
		for i := range list {
			resp = append(resp, toEmployeeResponse(&list[i]))
		}
		return c.JSON(resp)
	}
}

// PUT /api/admin/employees/:id
func UpdateEmployeeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpdateEmployeeRequest
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

		var employee models.Employee
		if err := database.DB.Where("id = ? AND warehouse = ?", id, warehouse).
			First(&employee).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Empleado no encontrado")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name no puede quedar vacío")
			}
			employee.Name = name
		}
		if body.Document != nil {
			employee.Document = strings.TrimSpace(*body.Document)
		}
		if body.Phone != nil {
			employee.Phone = strings.TrimSpace(*body.Phone)
		}
		if body.Position != nil {
			employee.Position = strings.TrimSpace(*body.Position)
		}
		if body.BaseSalary != nil {
			if *body.BaseSalary < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "base_salary no puede ser negativo")
			}
			employee.BaseSalary = *body.BaseSalary
		}
		if body.CommissionRate != nil {
			if *body.CommissionRate < 0 || *body.CommissionRate > 1 {
				return fiber.NewError(fiber.StatusBadRequest, "commission_rate debe estar entre 0 y 1")
			}
			employee.CommissionRate = *body.CommissionRate
		}
		if body.Active != nil {
			employee.Active = *body.Active
		}

		if err := database.DB.Save(&employee).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar el empleado")
		}

		return c.JSON(toEmployeeResponse(&employee))
	}
}
