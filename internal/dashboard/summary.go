package dashboard

import (
	"encoding/json"
	"time"

	"maca-backend/internal/auth"
	"maca-backend/internal/cache"
	"maca-backend/internal/database"
	"maca-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const summaryTTL = 60 * time.Second

type SummaryResponse struct {
	Warehouse         string  `json:"warehouse"`
	Date              string  `json:"date"`
	SalesCount        int64   `json:"sales_count"`
	SalesRevenue      float64 `json:"sales_revenue"`
	PendingInvoices   int64   `json:"pending_invoices"`
	OutstandingDebt   float64 `json:"outstanding_debt"`
	OverdueInvoices   int64   `json:"overdue_invoices"`
	LowStockProducts  int64   `json:"low_stock_products"`
	GeneratedAt       string  `json:"generated_at"`
}

// GET /api/dashboard/summary?warehouse=...
// El resumen se cachea por bodega; se invalida en cada venta o abono.
func SummaryHandler(store cache.Cache) fiber.Handler {
	return func(c *fiber.Ctx) error {
		warehouse, err := auth.WarehouseFromQuery(c)
		if err != nil {
			return err
		}

		cacheKey := "dashboard:" + warehouse
		if raw, ok, err := store.Get(c.Context(), cacheKey); err == nil && ok {
			var cached SummaryResponse
			if json.Unmarshal(raw, &cached) == nil {
				return c.JSON(cached)
			}
		}

		now := time.Now()
		startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

		resp := SummaryResponse{
			Warehouse:   warehouse,
			Date:        startOfDay.Format("2006-01-02"),
			GeneratedAt: now.Format(time.RFC3339),
		}

		type salesRow struct {
			Count   int64
			Revenue float64
		}
		var sr salesRow
		database.DB.Model(&models.Sale{}).
			Select("COUNT(*) AS count, COALESCE(SUM(total),0) AS revenue").
			Where("warehouse = ? AND status = ? AND created_at >= ?",
				warehouse, models.SaleStatusCompleted, startOfDay).
			Scan(&sr)
		resp.SalesCount = sr.Count
		resp.SalesRevenue = sr.Revenue

		openStatuses := []models.InvoiceStatus{
			models.InvoiceStatusPending,
			models.InvoiceStatusPartial,
			models.InvoiceStatusOverdue,
		}
		database.DB.Model(&models.Invoice{}).
			Where("warehouse = ? AND status IN ?", warehouse, openStatuses).
			Count(&resp.PendingInvoices)
		database.DB.Model(&models.Invoice{}).
			Where("warehouse = ? AND status = ?", warehouse, models.InvoiceStatusOverdue).
			Count(&resp.OverdueInvoices)

		// saldo total: total de facturas abiertas menos sus abonos
		var openInvoices []models.Invoice
		database.DB.Preload("Payments").
			Where("warehouse = ? AND status IN ?", warehouse, openStatuses).
			Find(&openInvoices)
		for i := range openInvoices {
			resp.OutstandingDebt += openInvoices[i].Balance()
		}

		database.DB.Model(&models.Product{}).
			Where(`warehouse = ? AND active = ? AND min_stock > 0 AND id IN (
				SELECT products.id FROM products
				LEFT JOIN stock_entries ON stock_entries.product_id = products.id
				GROUP BY products.id, products.min_stock
				HAVING COALESCE(SUM(stock_entries.quantity - stock_entries.reserved_quantity), 0) <= products.min_stock
			)`, warehouse, true).
			Count(&resp.LowStockProducts)

		if raw, err := json.Marshal(resp); err == nil {
			if err := store.Set(c.Context(), cacheKey, raw, summaryTTL); err != nil {
				log.Warn().Err(err).Str("warehouse", warehouse).Msg("no se pudo cachear el resumen")
			}
		}

		return c.JSON(resp)
	}
}
