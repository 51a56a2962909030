package reports

import (
	"time"

	"maca-backend/internal/auth"
	"maca-backend/internal/database"
	"maca-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

func parseRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "from y to son obligatorios (YYYY-MM-DD)")
	}
	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "from inválida")
	}
	to, err := time.Parse("2006-01-02", toStr)
	if err != nil {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "to inválida")
	}
	// rango [from, to] inclusivo por día
	return from, to.AddDate(0, 0, 1), nil
}

type SalesReportResponse struct {
	From            string             `json:"from"`
	To              string             `json:"to"`
	Count           int64              `json:"count"`
	CancelledCount  int64              `json:"cancelled_count"`
	Subtotal        float64            `json:"subtotal"`
	Discount        float64            `json:"discount"`
	Tax             float64            `json:"tax"`
	Revenue         float64            `json:"revenue"`
	UnitsSold       int64              `json:"units_sold"`
	ByPaymentMethod map[string]float64 `json:"by_payment_method"`
}

// GET /api/reports/sales?from=...&to=...&warehouse=...
func SalesReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		warehouse, err := auth.WarehouseFromQuery(c)
		if err != nil {
			return err
		}
		from, to, err := parseRange(c)
		if err != nil {
			return err
		}

		resp := SalesReportResponse{
			From:            from.Format("2006-01-02"),
			To:              to.AddDate(0, 0, -1).Format("2006-01-02"),
			ByPaymentMethod: map[string]float64{},
		}

		type totalsRow struct {
			Count    int64
			Subtotal float64
			Discount float64
			Tax      float64
			Revenue  float64
		}
		var totals totalsRow
		database.DB.Model(&models.Sale{}).
			Select("COUNT(*) AS count, COALESCE(SUM(subtotal),0) AS subtotal, COALESCE(SUM(discount),0) AS discount, COALESCE(SUM(tax),0) AS tax, COALESCE(SUM(total),0) AS revenue").
			Where("warehouse = ? AND status = ? AND created_at >= ? AND created_at < ?",
				warehouse, models.SaleStatusCompleted, from, to).
			Scan(&totals)
		resp.Count = totals.Count
		resp.Subtotal = totals.Subtotal
		resp.Discount = totals.Discount
		resp.Tax = totals.Tax
		resp.Revenue = totals.Revenue

		database.DB.Model(&models.Sale{}).
			Where("warehouse = ? AND status = ? AND created_at >= ? AND created_at < ?",
				warehouse, models.SaleStatusCancelled, from, to).
			Count(&resp.CancelledCount)

		database.DB.Model(&models.SaleItem{}).
			Joins("JOIN sales ON sales.id = sale_items.sale_id").
			Where("sales.warehouse = ? AND sales.status = ? AND sales.created_at >= ? AND sales.created_at < ?",
				warehouse, models.SaleStatusCompleted, from, to).
			Select("COALESCE(SUM(sale_items.quantity),0)").
			Scan(&resp.UnitsSold)

		type methodRow struct {
			PaymentMethod string
			Amount        float64
		}
		var methods []methodRow
		database.DB.Model(&models.SalePayment{}).
			Joins("JOIN sales ON sales.id = sale_payments.sale_id").
			Where("sales.warehouse = ? AND sales.status = ? AND sales.created_at >= ? AND sales.created_at < ?",
				warehouse, models.SaleStatusCompleted, from, to).
			Select("sale_payments.payment_method, COALESCE(SUM(sale_payments.amount),0) AS amount").
			Group("sale_payments.payment_method").
			Scan(&methods)
		for _, m := range methods {
			resp.ByPaymentMethod[m.PaymentMethod] = m.Amount
		}

		return c.JSON(resp)
	}
}

type PurchasesReportResponse struct {
	From        string           `json:"from"`
	To          string           `json:"to"`
	Count       int64            `json:"count"`
	Total       float64          `json:"total"`
	Paid        float64          `json:"paid"`
	Outstanding float64          `json:"outstanding"`
	ByStatus    map[string]int64 `json:"by_status"`
}

// GET /api/reports/purchases?from=...&to=...&warehouse=...
// Facturas de proveedor por fecha de factura; las anuladas no cuentan.
func PurchasesReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		warehouse, err := auth.WarehouseFromQuery(c)
		if err != nil {
			return err
		}
		from, to, err := parseRange(c)
		if err != nil {
			return err
		}

		resp := PurchasesReportResponse{
			From:     from.Format("2006-01-02"),
			To:       to.AddDate(0, 0, -1).Format("2006-01-02"),
			ByStatus: map[string]int64{},
		}

		var invoiceList []models.Invoice
		if err := database.DB.Preload("Payments").
			Where("warehouse = ? AND status <> ? AND invoice_date >= ? AND invoice_date < ?",
				warehouse, models.InvoiceStatusCancelled, from, to).
			Find(&invoiceList).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo calcular el reporte de compras")
		}

		for i := range invoiceList {
			inv := &invoiceList[i]
			resp.Count++
			resp.Total += inv.Total
			resp.Paid += inv.PaidAmount()
			resp.ByStatus[string(inv.Status)]++
		}
		resp.Outstanding = resp.Total - resp.Paid

		return c.JSON(resp)
	}
}

type ValuationResponse struct {
	Warehouse       string  `json:"warehouse"`
	Products        int64   `json:"products"`
	Units           int64   `json:"units"`
	CostValue       float64 `json:"cost_value"`       // unidades x precio de compra
	RetailValue     float64 `json:"retail_value"`     // unidades x precio de venta
	PotentialMargin float64 `json:"potential_margin"` // diferencia
}

// GET /api/reports/inventory-valuation?warehouse=...
func InventoryValuationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		warehouse, err := auth.WarehouseFromQuery(c)
		if err != nil {
			return err
		}

		resp := ValuationResponse{Warehouse: warehouse}

		type row struct {
			Products    int64
			Units       int64
			CostValue   float64
			RetailValue float64
		}
		var r row
		database.DB.Model(&models.StockEntry{}).
			Joins("JOIN products ON products.id = stock_entries.product_id").
			Where("products.warehouse = ? AND products.active = ?", warehouse, true).
			Select(`COUNT(DISTINCT products.id) AS products,
				COALESCE(SUM(stock_entries.quantity),0) AS units,
				COALESCE(SUM(stock_entries.quantity * products.purchase_price),0) AS cost_value,
				COALESCE(SUM(stock_entries.quantity * products.sale_price),0) AS retail_value`).
			Scan(&r)

		resp.Products = r.Products
		resp.Units = r.Units
		resp.CostValue = r.CostValue
		resp.RetailValue = r.RetailValue
		resp.PotentialMargin = r.RetailValue - r.CostValue

		return c.JSON(resp)
	}
}

type ProfitLossResponse struct {
	From        string  `json:"from"`
	To          string  `json:"to"`
	Revenue     float64 `json:"revenue"`       // ventas completadas
	CostOfGoods float64 `json:"cost_of_goods"` // unidades vendidas x precio de compra
	GrossProfit float64 `json:"gross_profit"`
	Purchases   float64 `json:"purchases"` // facturas de proveedor del período
	NetResult   float64 `json:"net_result"`
}

// GET /api/reports/profit-loss?from=...&to=...&warehouse=...
func ProfitLossHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		warehouse, err := auth.WarehouseFromQuery(c)
		if err != nil {
			return err
		}
		from, to, err := parseRange(c)
		if err != nil {
			return err
		}

		resp := ProfitLossResponse{
			From: from.Format("2006-01-02"),
			To:   to.AddDate(0, 0, -1).Format("2006-01-02"),
		}

		database.DB.Model(&models.Sale{}).
			Where("warehouse = ? AND status = ? AND created_at >= ? AND created_at < ?",
				warehouse, models.SaleStatusCompleted, from, to).
			Select("COALESCE(SUM(total),0)").
			Scan(&resp.Revenue)

		// costo al precio de compra vigente del producto
		database.DB.Model(&models.SaleItem{}).
			Joins("JOIN sales ON sales.id = sale_items.sale_id").
			Joins("JOIN products ON products.id = sale_items.product_id").
			Where("sales.warehouse = ? AND sales.status = ? AND sales.created_at >= ? AND sales.created_at < ?",
				warehouse, models.SaleStatusCompleted, from, to).
			Select("COALESCE(SUM(sale_items.quantity * products.purchase_price),0)").
			Scan(&resp.CostOfGoods)

		database.DB.Model(&models.Invoice{}).
			Where("warehouse = ? AND status <> ? AND invoice_date >= ? AND invoice_date < ?",
				warehouse, models.InvoiceStatusCancelled, from, to).
			Select("COALESCE(SUM(total),0)").
			Scan(&resp.Purchases)

		resp.GrossProfit = resp.Revenue - resp.CostOfGoods
		resp.NetResult = resp.Revenue - resp.Purchases

		return c.JSON(resp)
	}
}

type CommissionRow struct {
	EmployeeID     uint    `json:"employee_id"`
	Name           string  `json:"name"`
	CommissionRate float64 `json:"commission_rate"`
	SalesCount     int64   `json:"sales_count"`
	SalesTotal     float64 `json:"sales_total"`
	Commission     float64 `json:"commission"`
}

// GET /api/reports/commissions?from=...&to=...&warehouse=...
// Comisión = total de ventas completadas del empleado x su porcentaje.
// Las ventas anuladas no comisionan.
func CommissionsReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		warehouse, err := auth.WarehouseFromQuery(c)
		if err != nil {
			return err
		}
		from, to, err := parseRange(c)
		if err != nil {
			return err
		}

		var employeesList []models.Employee
		if err := database.DB.
			Where("warehouse = ? AND active = ? AND user_id IS NOT NULL", warehouse, true).
			Find(&employeesList).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los empleados")
		}

		rows := make([]CommissionRow, 0, len(employeesList))
		for _, e := range employeesList {
			type salesRow struct {
				Count int64
				Total float64
			}
			var sr salesRow
			database.DB.Model(&models.Sale{}).
				Select("COUNT(*) AS count, COALESCE(SUM(total),0) AS total").
				Where("warehouse = ? AND user_id = ? AND status = ? AND created_at >= ? AND created_at < ?",
					warehouse, *e.UserID, models.SaleStatusCompleted, from, to).
				Scan(&sr)

			rows = append(rows, CommissionRow{
				EmployeeID:     e.ID,
				Name:           e.Name,
				CommissionRate: e.CommissionRate,
				SalesCount:     sr.Count,
				SalesTotal:     sr.Total,
				Commission:     sr.Total * e.CommissionRate,
			})
		}

		return c.JSON(rows)
	}
}
