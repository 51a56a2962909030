package main

import (
	"context"
	"strings"
	"time"

	"maca-backend/internal/audit"
	"maca-backend/internal/auth"
	"maca-backend/internal/cache"
	"maca-backend/internal/config"
	"maca-backend/internal/dashboard"
	"maca-backend/internal/database"
	"maca-backend/internal/employees"
	"maca-backend/internal/inventory"
	"maca-backend/internal/invoices"
	"maca-backend/internal/logger"
	"maca-backend/internal/models"
	"maca-backend/internal/providers"
	"maca-backend/internal/reports"
	"maca-backend/internal/sales"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Load()
	logger.Setup(cfg)
	database.Init(cfg)

	// Redis es opcional: sin REDIS_ADDR el dashboard simplemente no cachea
	var store cache.Cache = cache.Noop{}
	if cfg.RedisAddr != "" {
		rc := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis no disponible, se continúa sin caché")
		} else {
			store = rc
			defer rc.Close()
		}
		cancel()
	}

	salesSvc := sales.NewService(database.DB)
	invoicesSvc := invoices.NewService(database.DB)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Error().Err(err).Str("path", c.OriginalURL()).Msg("error inesperado")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Error inesperado del servidor",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	app.Use(logger.RequestLogger())

	api := app.Group("/api")

	// Auth público
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Rutas protegidas
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Solo administradores
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	// Usuarios
	adminRoutes.Post("/users", auth.CreateUserHandler(cfg))
	adminRoutes.Get("/users", auth.ListUsersHandler())

	// Catálogo de productos
	adminRoutes.Post("/products", inventory.CreateProductHandler())
	adminRoutes.Put("/products/:id", inventory.UpdateProductHandler())
	adminRoutes.Delete("/products/:id", inventory.DeleteProductHandler())

	// Proveedores
	adminRoutes.Post("/providers", providers.CreateProviderHandler())
	adminRoutes.Put("/providers/:id", providers.UpdateProviderHandler())
	adminRoutes.Delete("/providers/:id", providers.DeleteProviderHandler())

	// Empleados
	adminRoutes.Post("/employees", employees.CreateEmployeeHandler())
	adminRoutes.Get("/employees", employees.ListEmployeesHandler())
	adminRoutes.Put("/employees/:id", employees.UpdateEmployeeHandler())

	// Reportes
	adminRoutes.Get("/reports/sales", reports.SalesReportHandler())
	adminRoutes.Get("/reports/purchases", reports.PurchasesReportHandler())
	adminRoutes.Get("/reports/inventory-valuation", reports.InventoryValuationHandler())
	adminRoutes.Get("/reports/profit-loss", reports.ProfitLossHandler())
	adminRoutes.Get("/reports/commissions", reports.CommissionsReportHandler())

	// Auditoría
	adminRoutes.Get("/audit-logs", audit.ListAuditLogsHandler())

	// Productos y stock (lectura para todos los roles)
	protected.Get("/products", inventory.ListProductsHandler())
	protected.Get("/products/low-stock", inventory.LowStockHandler())
	protected.Get("/products/:id", inventory.GetProductHandler())
	protected.Post("/stock-entries", inventory.UpsertStockEntryHandler())
	protected.Get("/stock-entries", inventory.ListStockEntriesHandler())

	// Ventas
	protected.Post("/sales", sales.CreateSaleHandler(salesSvc, store))
	protected.Get("/sales", sales.ListSalesHandler())
	protected.Get("/sales/:id", sales.GetSaleHandler())
	protected.Post("/sales/:id/cancel", sales.CancelSaleHandler(salesSvc, store))

	// Proveedores (lectura)
	protected.Get("/providers", providers.ListProvidersHandler())
	protected.Get("/providers/:id", providers.GetProviderHandler())

	// Facturas por pagar y abonos
	protected.Post("/invoices", invoices.CreateInvoiceHandler(invoicesSvc))
	protected.Get("/invoices", invoices.ListInvoicesHandler())
	protected.Get("/invoices/:id", invoices.GetInvoiceHandler())
	protected.Put("/invoices/:id", invoices.UpdateInvoiceHandler(invoicesSvc))
	protected.Post("/invoices/:id/cancel", invoices.CancelInvoiceHandler(invoicesSvc, store))
	protected.Post("/invoices/:id/payments", invoices.AddPaymentHandler(invoicesSvc, store))
	protected.Get("/invoices/:id/payments", invoices.ListPaymentsHandler())

	// Dashboard
	protected.Get("/dashboard/summary", dashboard.SummaryHandler(store))

	log.Info().Str("port", cfg.HTTPPort).Msg("servidor iniciado")
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal().Err(err).Msg("el servidor terminó con error")
	}
}
