package sales

import (
	"errors"
	"fmt"
)

// Errores de validación: la petición viola una precondición. Cada uno
// lleva los datos que el operador necesita para corregirla.
var (
	ErrEmptyOrder      = errors.New("la venta no tiene renglones")
	ErrNoPaymentMethod = errors.New("la venta no tiene ningún pago")
)

// ErrConflict: la validación pasó pero el descuento condicional de stock
// no afectó filas (otra venta ganó la carrera). La operación completa se
// revierte y puede reintentarse.
var ErrConflict = errors.New("conflicto de concurrencia sobre el stock, reintente la operación")

type ProductNotFoundError struct {
	ProductID uint
	Warehouse string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("producto %d no existe en la bodega %s", e.ProductID, e.Warehouse)
}

type InactiveProductError struct {
	ProductID uint
	Name      string
}

func (e *InactiveProductError) Error() string {
	return fmt.Sprintf("producto %d (%s) está inactivo", e.ProductID, e.Name)
}

type NoStockEntryError struct {
	ProductID uint
	Size      string
}

func (e *NoStockEntryError) Error() string {
	return fmt.Sprintf("producto %d no tiene registro de stock para la talla %s", e.ProductID, e.Size)
}

type InsufficientStockError struct {
	ProductID uint
	Name      string
	Size      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente de %s talla %s: disponible %d, solicitado %d",
		e.Name, e.Size, e.Available, e.Requested)
}

type InsufficientPaymentError struct {
	Paid  float64
	Total float64
}

func (e *InsufficientPaymentError) Error() string {
	return fmt.Sprintf("los pagos (%.2f) no cubren el total de la venta (%.2f)", e.Paid, e.Total)
}

type SaleNotFoundError struct {
	SaleID    uint
	Warehouse string
}

func (e *SaleNotFoundError) Error() string {
	return fmt.Sprintf("venta %d no existe en la bodega %s", e.SaleID, e.Warehouse)
}

type AlreadyCancelledError struct {
	SaleID uint
}

func (e *AlreadyCancelledError) Error() string {
	return fmt.Sprintf("la venta %d ya fue anulada", e.SaleID)
}
