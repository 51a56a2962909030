package auth

import (
	"strings"

	"maca-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// La bodega funciona como clave de partición: toda consulta de negocio
// se filtra por ella. El vendedor queda amarrado a la bodega de su token;
// el admin debe indicar cuál bodega quiere operar.

// ResolveWarehouse resuelve la bodega efectiva a partir del rol y de un
// valor explícito (body o query). Para vendedor el explícito se ignora.
func ResolveWarehouse(c *fiber.Ctx, explicit string) (string, error) {
	roleVal := c.Locals(CtxUserRoleKey)
	role, ok := roleVal.(models.UserRole)
	if !ok {
		return "", fiber.NewError(fiber.StatusForbidden, "No se pudo determinar el rol")
	}

	if role == models.RoleVendedor {
		wh, _ := c.Locals(CtxWarehouseKey).(string)
		if wh == "" {
			return "", fiber.NewError(fiber.StatusForbidden, "El usuario no tiene bodega asignada")
		}
		return wh, nil
	}

	// admin
	explicit = strings.TrimSpace(explicit)
	if explicit == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "warehouse es obligatorio")
	}
	return explicit, nil
}

// WarehouseFromQuery es el caso común de los listados: ?warehouse=...
func WarehouseFromQuery(c *fiber.Ctx) (string, error) {
	return ResolveWarehouse(c, c.Query("warehouse"))
}

// UserIDFromCtx devuelve el id del usuario autenticado.
func UserIDFromCtx(c *fiber.Ctx) (uint, error) {
	id, ok := c.Locals(CtxUserIDKey).(uint)
	if !ok {
		return 0, fiber.NewError(fiber.StatusForbidden, "No se pudo determinar el usuario")
	}
	return id, nil
}
