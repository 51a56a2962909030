package sales

import (
	"errors"
	"strings"
	"testing"

	"maca-backend/internal/database"
	"maca-backend/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("no se pudo abrir la base de pruebas: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("no se pudo obtener el pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migración fallida: %v", err)
	}
	return NewService(db), db
}

func seedProduct(t *testing.T, db *gorm.DB, warehouse string, salePrice float64, stock map[string]int) *models.Product {
	t.Helper()

	product := models.Product{
		Code:          "BOT-001",
		Warehouse:     warehouse,
		Name:          "Bota de cuero",
		Category:      "dama",
		PurchasePrice: 80000,
		SalePrice:     salePrice,
		Active:        true,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("no se pudo sembrar el producto: %v", err)
	}
	for size, qty := range stock {
		entry := models.StockEntry{ProductID: product.ID, Size: size, Quantity: qty}
		if err := db.Create(&entry).Error; err != nil {
			t.Fatalf("no se pudo sembrar el stock: %v", err)
		}
	}
	return &product
}

func stockFor(t *testing.T, db *gorm.DB, productID uint, size string) models.StockEntry {
	t.Helper()
	var entry models.StockEntry
	if err := db.Where("product_id = ? AND size = ?", productID, size).First(&entry).Error; err != nil {
		t.Fatalf("no se encontró el stock de la talla %s: %v", size, err)
	}
	return entry
}

func TestCreateSaleDecrementsStock(t *testing.T) {
	svc, db := newTestService(t)
	product := seedProduct(t, db, "MACA CENTRO", 150000, map[string]int{"37": 10})

	sale, err := svc.CreateSale(CreateSaleInput{
		Items:         []SaleItemInput{{ProductID: product.ID, Size: "37", Quantity: 3}},
		PaymentMethod: "efectivo",
		Warehouse:     "MACA CENTRO",
		UserID:        1,
	})
	if err != nil {
		t.Fatalf("CreateSale falló: %v", err)
	}

	if sale.Total != 450000 {
		t.Fatalf("total %v, se esperaba 450000", sale.Total)
	}
	if sale.Status != models.SaleStatusCompleted {
		t.Fatalf("estado %s, se esperaba COMPLETED", sale.Status)
	}
	if !strings.HasPrefix(sale.SaleNumber, "VEN-MC-") {
		t.Fatalf("número de venta inesperado: %s", sale.SaleNumber)
	}
	if sale.ReceiptToken == "" {
		t.Fatalf("la venta quedó sin token de recibo")
	}

	entry := stockFor(t, db, product.ID, "37")
	if entry.Quantity != 7 {
		t.Fatalf("stock %d tras la venta, se esperaba 7", entry.Quantity)
	}
}

func TestCreateSaleFreezesUnitPrice(t *testing.T) {
	svc, db := newTestService(t)
	product := seedProduct(t, db, "MACA CENTRO", 120000, map[string]int{"40": 5})

	sale, err := svc.CreateSale(CreateSaleInput{
		Items:         []SaleItemInput{{ProductID: product.ID, Size: "40", Quantity: 2}},
		PaymentMethod: "tarjeta",
		Warehouse:     "MACA CENTRO",
		UserID:        1,
	})
	if err != nil {
		t.Fatalf("CreateSale falló: %v", err)
	}

	// el precio se lee del producto al momento de vender
	if sale.Items[0].UnitPrice != 120000 {
		t.Fatalf("precio unitario %v, se esperaba 120000", sale.Items[0].UnitPrice)
	}

	// un cambio de precio posterior no toca la venta ya registrada
	if err := db.Model(product).Update("sale_price", 200000).Error; err != nil {
		t.Fatalf("no se pudo actualizar el precio: %v", err)
	}
	var stored models.SaleItem
	if err := db.First(&stored, sale.Items[0].ID).Error; err != nil {
		t.Fatalf("no se encontró el renglón: %v", err)
	}
	if stored.UnitPrice != 120000 {
		t.Fatalf("el precio congelado cambió a %v", stored.UnitPrice)
	}
}

func TestCreateSaleInsufficientStock(t *testing.T) {
	svc, db := newTestService(t)
	product := seedProduct(t, db, "MACA CENTRO", 150000, map[string]int{"37": 2})

	_, err := svc.CreateSale(CreateSaleInput{
		Items:         []SaleItemInput{{ProductID: product.ID, Size: "37", Quantity: 5}},
		PaymentMethod: "efectivo",
		Warehouse:     "MACA CENTRO",
		UserID:        1,
	})

	var insufficientErr *InsufficientStockError
	if !errors.As(err, &insufficientErr) {
		t.Fatalf("se esperaba InsufficientStockError, llegó %v", err)
	}
	if insufficientErr.Available != 2 || insufficientErr.Requested != 5 {
		t.Fatalf("detalle del error inesperado: %+v", insufficientErr)
	}

	// nada quedó escrito
	entry := stockFor(t, db, product.ID, "37")
	if entry.Quantity != 2 {
		t.Fatalf("el stock cambió a %d pese al rechazo", entry.Quantity)
	}
	var count int64
	db.Model(&models.Sale{}).Count(&count)
	if count != 0 {
		t.Fatalf("quedaron %d ventas registradas pese al rechazo", count)
	}
}

func TestCreateSaleReservedStockNotSellable(t *testing.T) {
	svc, db := newTestService(t)
	product := seedProduct(t, db, "MACA CENTRO", 150000, map[string]int{"38": 5})

	if err := db.Model(&models.StockEntry{}).
		Where("product_id = ? AND size = ?", product.ID, "38").
		Update("reserved_quantity", 4).Error; err != nil {
		t.Fatalf("no se pudo reservar stock: %v", err)
	}

	_, err := svc.CreateSale(CreateSaleInput{
		Items:         []SaleItemInput{{ProductID: product.ID, Size: "38", Quantity: 2}},
		PaymentMethod: "efectivo",
		Warehouse:     "MACA CENTRO",
		UserID:        1,
	})
	var insufficientErr *InsufficientStockError
	if !errors.As(err, &insufficientErr) {
		t.Fatalf("se esperaba InsufficientStockError sobre lo reservado, llegó %v", err)
	}
	if insufficientErr.Available != 1 {
		t.Fatalf("disponible %d, se esperaba 1 (5 menos 4 reservadas)", insufficientErr.Available)
	}
}

func TestCreateSaleInsufficientPaymentRollsBack(t *testing.T) {
	svc, db := newTestService(t)
	product := seedProduct(t, db, "MACA CENTRO", 150000, map[string]int{"37": 10})

	_, err := svc.CreateSale(CreateSaleInput{
		Items: []SaleItemInput{{ProductID: product.ID, Size: "37", Quantity: 2}},
		Payments: []PaymentInput{
			{Method: "efectivo", Amount: 100000},
		},
		Warehouse: "MACA CENTRO",
		UserID:    1,
	})

	var payErr *InsufficientPaymentError
	if !errors.As(err, &payErr) {
		t.Fatalf("se esperaba InsufficientPaymentError, llegó %v", err)
	}
	if payErr.Paid != 100000 || payErr.Total != 300000 {
		t.Fatalf("detalle del error inesperado: %+v", payErr)
	}

	entry := stockFor(t, db, product.ID, "37")
	if entry.Quantity != 10 {
		t.Fatalf("el stock cambió a %d pese al rechazo del pago", entry.Quantity)
	}
	var count int64
	db.Model(&models.Sale{}).Count(&count)
	if count != 0 {
		t.Fatalf("quedaron %d ventas pese al rechazo del pago", count)
	}
}

func TestCreateSaleAcceptsOverpayment(t *testing.T) {
	svc, db := newTestService(t)
	product := seedProduct(t, db, "MACA CENTRO", 150000, map[string]int{"37": 10})

	// el cliente paga de más en efectivo; el vuelto no se registra
	sale, err := svc.CreateSale(CreateSaleInput{
		Items: []SaleItemInput{{ProductID: product.ID, Size: "37", Quantity: 1}},
		Payments: []PaymentInput{
			{Method: "efectivo", Amount: 200000},
		},
		Warehouse: "MACA CENTRO",
		UserID:    1,
	})
	if err != nil {
		t.Fatalf("CreateSale rechazó el sobrepago: %v", err)
	}
	if sale.Total != 150000 {
		t.Fatalf("total %v, se esperaba 150000", sale.Total)
	}
}

func TestCreateSaleMixedPayment(t *testing.T) {
	svc, db := newTestService(t)
	product := seedProduct(t, db, "MACA CENTRO", 150000, map[string]int{"37": 10})

	sale, err := svc.CreateSale(CreateSaleInput{
		Items: []SaleItemInput{{ProductID: product.ID, Size: "37", Quantity: 2}},
		Payments: []PaymentInput{
			{Method: "efectivo", Amount: 100000},
			{Method: "tarjeta", Amount: 200000, Reference: "VISA-4421"},
		},
		Warehouse: "MACA CENTRO",
		UserID:    1,
	})
	if err != nil {
		t.Fatalf("CreateSale falló: %v", err)
	}
	if !sale.IsMixedPayment() {
		t.Fatalf("la venta con dos pagos no quedó marcada como mixta")
	}
	if len(sale.Payments) != 2 {
		t.Fatalf("%d pagos registrados, se esperaban 2", len(sale.Payments))
	}
}

func TestCreateSaleRequiresPayment(t *testing.T) {
	svc, db := newTestService(t)
	product := seedProduct(t, db, "MACA CENTRO", 150000, map[string]int{"37": 10})

	_, err := svc.CreateSale(CreateSaleInput{
		Items:     []SaleItemInput{{ProductID: product.ID, Size: "37", Quantity: 1}},
		Warehouse: "MACA CENTRO",
		UserID:    1,
	})
	if !errors.Is(err, ErrNoPaymentMethod) {
		t.Fatalf("se esperaba ErrNoPaymentMethod, llegó %v", err)
	}
}

func TestCreateSaleEmptyOrder(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateSale(CreateSaleInput{
		PaymentMethod: "efectivo",
		Warehouse:     "MACA CENTRO",
		UserID:        1,
	})
	if !errors.Is(err, ErrEmptyOrder) {
		t.Fatalf("se esperaba ErrEmptyOrder, llegó %v", err)
	}
}

func TestCreateSaleWarehouseIsolation(t *testing.T) {
	svc, db := newTestService(t)
	product := seedProduct(t, db, "MACA CENTRO", 150000, map[string]int{"37": 10})

	// el producto existe, pero no en la bodega de la venta
	_, err := svc.CreateSale(CreateSaleInput{
		Items:         []SaleItemInput{{ProductID: product.ID, Size: "37", Quantity: 1}},
		PaymentMethod: "efectivo",
		Warehouse:     "MACA NORTE",
		UserID:        1,
	})
	var notFoundErr *ProductNotFoundError
	if !errors.As(err, &notFoundErr) {
		t.Fatalf("se esperaba ProductNotFoundError, llegó %v", err)
	}
}

func TestCreateSaleInactiveProduct(t *testing.T) {
	svc, db := newTestService(t)
	product := seedProduct(t, db, "MACA CENTRO", 150000, map[string]int{"37": 10})
	if err := db.Model(product).Update("active", false).Error; err != nil {
		t.Fatalf("no se pudo desactivar el producto: %v", err)
	}

	_, err := svc.CreateSale(CreateSaleInput{
		Items:         []SaleItemInput{{ProductID: product.ID, Size: "37", Quantity: 1}},
		PaymentMethod: "efectivo",
		Warehouse:     "MACA CENTRO",
		UserID:        1,
	})
	var inactiveErr *InactiveProductError
	if !errors.As(err, &inactiveErr) {
		t.Fatalf("se esperaba InactiveProductError, llegó %v", err)
	}
}

func TestCancelSaleRestoresStock(t *testing.T) {
	svc, db := newTestService(t)
	product := seedProduct(t, db, "MACA CENTRO", 150000, map[string]int{"37": 10})

	sale, err := svc.CreateSale(CreateSaleInput{
		Items:         []SaleItemInput{{ProductID: product.ID, Size: "37", Quantity: 4}},
		PaymentMethod: "efectivo",
		Warehouse:     "MACA CENTRO",
		UserID:        1,
	})
	if err != nil {
		t.Fatalf("CreateSale falló: %v", err)
	}
	if entry := stockFor(t, db, product.ID, "37"); entry.Quantity != 6 {
		t.Fatalf("stock %d tras la venta, se esperaba 6", entry.Quantity)
	}

	cancelled, err := svc.CancelSale(sale.ID, "MACA CENTRO")
	if err != nil {
		t.Fatalf("CancelSale falló: %v", err)
	}
	if cancelled.Status != models.SaleStatusCancelled {
		t.Fatalf("estado %s tras anular, se esperaba CANCELLED", cancelled.Status)
	}
	if entry := stockFor(t, db, product.ID, "37"); entry.Quantity != 10 {
		t.Fatalf("stock %d tras anular, se esperaba 10", entry.Quantity)
	}
}

func TestCancelSaleTwiceRejected(t *testing.T) {
	svc, db := newTestService(t)
	product := seedProduct(t, db, "MACA CENTRO", 150000, map[string]int{"37": 10})

	sale, err := svc.CreateSale(CreateSaleInput{
		Items:         []SaleItemInput{{ProductID: product.ID, Size: "37", Quantity: 2}},
		PaymentMethod: "efectivo",
		Warehouse:     "MACA CENTRO",
		UserID:        1,
	})
	if err != nil {
		t.Fatalf("CreateSale falló: %v", err)
	}
	if _, err := svc.CancelSale(sale.ID, "MACA CENTRO"); err != nil {
		t.Fatalf("la primera anulación falló: %v", err)
	}

	_, err = svc.CancelSale(sale.ID, "MACA CENTRO")
	var cancelledErr *AlreadyCancelledError
	if !errors.As(err, &cancelledErr) {
		t.Fatalf("se esperaba AlreadyCancelledError, llegó %v", err)
	}

	// la doble anulación no repone stock de nuevo
	if entry := stockFor(t, db, product.ID, "37"); entry.Quantity != 10 {
		t.Fatalf("stock %d tras doble anulación, se esperaba 10", entry.Quantity)
	}
}

func TestCancelSaleConditionalOnCompletedStatus(t *testing.T) {
	svc, db := newTestService(t)
	product := seedProduct(t, db, "MACA CENTRO", 150000, map[string]int{"37": 10})

	sale, err := svc.CreateSale(CreateSaleInput{
		Items:         []SaleItemInput{{ProductID: product.ID, Size: "37", Quantity: 3}},
		PaymentMethod: "efectivo",
		Warehouse:     "MACA CENTRO",
		UserID:        1,
	})
	if err != nil {
		t.Fatalf("CreateSale falló: %v", err)
	}

	// otro proceso anuló la venta por fuera del servicio; el UPDATE
	// condicional sobre status=COMPLETED debe afectar cero filas
	if err := db.Model(&models.Sale{}).Where("id = ?", sale.ID).
		Update("status", models.SaleStatusCancelled).Error; err != nil {
		t.Fatalf("no se pudo anular por fuera: %v", err)
	}

	_, err = svc.CancelSale(sale.ID, "MACA CENTRO")
	var cancelledErr *AlreadyCancelledError
	if !errors.As(err, &cancelledErr) {
		t.Fatalf("se esperaba AlreadyCancelledError, llegó %v", err)
	}

	// la anulación perdedora no repone stock
	if entry := stockFor(t, db, product.ID, "37"); entry.Quantity != 7 {
		t.Fatalf("stock %d, se esperaba 7 (sin reposición doble)", entry.Quantity)
	}
}

func TestCancelSaleRecreatesDeletedStockEntry(t *testing.T) {
	svc, db := newTestService(t)
	product := seedProduct(t, db, "MACA CENTRO", 150000, map[string]int{"37": 5})

	sale, err := svc.CreateSale(CreateSaleInput{
		Items:         []SaleItemInput{{ProductID: product.ID, Size: "37", Quantity: 3}},
		PaymentMethod: "efectivo",
		Warehouse:     "MACA CENTRO",
		UserID:        1,
	})
	if err != nil {
		t.Fatalf("CreateSale falló: %v", err)
	}

	// alguien borró el registro de stock entre la venta y la anulación
	if err := db.Where("product_id = ? AND size = ?", product.ID, "37").
		Delete(&models.StockEntry{}).Error; err != nil {
		t.Fatalf("no se pudo borrar el registro de stock: %v", err)
	}

	if _, err := svc.CancelSale(sale.ID, "MACA CENTRO"); err != nil {
		t.Fatalf("CancelSale falló: %v", err)
	}
	entry := stockFor(t, db, product.ID, "37")
	if entry.Quantity != 3 {
		t.Fatalf("el registro recreado tiene %d unidades, se esperaban 3", entry.Quantity)
	}
}

func TestCancelSaleWrongWarehouse(t *testing.T) {
	svc, db := newTestService(t)
	product := seedProduct(t, db, "MACA CENTRO", 150000, map[string]int{"37": 10})

	sale, err := svc.CreateSale(CreateSaleInput{
		Items:         []SaleItemInput{{ProductID: product.ID, Size: "37", Quantity: 1}},
		PaymentMethod: "efectivo",
		Warehouse:     "MACA CENTRO",
		UserID:        1,
	})
	if err != nil {
		t.Fatalf("CreateSale falló: %v", err)
	}

	_, err = svc.CancelSale(sale.ID, "MACA NORTE")
	var notFoundErr *SaleNotFoundError
	if !errors.As(err, &notFoundErr) {
		t.Fatalf("se esperaba SaleNotFoundError desde otra bodega, llegó %v", err)
	}
}

func TestSaleNumbersAreSequentialPerWarehouse(t *testing.T) {
	svc, db := newTestService(t)
	product := seedProduct(t, db, "MACA CENTRO", 150000, map[string]int{"37": 10})

	var numbers []string
	for i := 0; i < 3; i++ {
		sale, err := svc.CreateSale(CreateSaleInput{
			Items:         []SaleItemInput{{ProductID: product.ID, Size: "37", Quantity: 1}},
			PaymentMethod: "efectivo",
			Warehouse:     "MACA CENTRO",
			UserID:        1,
		})
		if err != nil {
			t.Fatalf("CreateSale falló: %v", err)
		}
		numbers = append(numbers, sale.SaleNumber)
	}

	for i, n := range numbers {
		want := []string{"-00001", "-00002", "-00003"}[i]
		if !strings.HasSuffix(n, want) {
			t.Fatalf("número %s en posición %d, se esperaba sufijo %s", n, i, want)
		}
	}
}
