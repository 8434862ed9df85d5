package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

var (
	ErrInvalidQuantity   = errors.New("miktar 0'dan büyük olmalı")
	ErrIncompatibleUnit  = errors.New("birimler uyumlu değil")
	ErrUnknownUnit       = errors.New("bilinmeyen birim")
	ErrInsufficientStock = errors.New("yetersiz stok")
	ErrItemNotFound      = errors.New("ürün bulunamadı")
	ErrMaterialNotFound  = errors.New("malzeme bulunamadı")
	ErrNotFound          = errors.New("kayıt bulunamadı")
	ErrDuplicateName     = errors.New("bu isim/kod zaten kullanılıyor")
	ErrInUse             = errors.New("kayıt kullanımda")
	ErrInvalidInput      = errors.New("geçersiz veri")
)

// InsufficientStockError: talep edilen miktar mevcut stoktan fazla.
// Miktarlar kaynağın kendi (kanonik) biriminde tutulur.
type InsufficientStockError struct {
	Resource  string
	Unit      string
	Available float64
	Requested float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Yetersiz stok (%s)! Mevcut: %.4f%s, İstenen: %.4f%s",
		e.Resource, e.Available, e.Unit, e.Requested, e.Unit)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// Shortfall - eksik miktar
func (e *InsufficientStockError) Shortfall() float64 {
	return e.Requested - e.Available
}

// Invalid - ErrInvalidInput'u sarmalayan okunabilir hata
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Duplicate - ErrDuplicateName'i alan adıyla sarmalar
func Duplicate(what, value string) error {
	return fmt.Errorf("%w: %s '%s'", ErrDuplicateName, what, value)
}

// ToFiber domain hatalarını HTTP durum kodlarına çevirir.
// Tanınmayan hatalar olduğu gibi döner (ErrorHandler 500 üretir).
func ToFiber(err error) error {
	if err == nil {
		return nil
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}

	switch {
	case errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrIncompatibleUnit),
		errors.Is(err, ErrUnknownUnit),
		errors.Is(err, ErrInvalidInput):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrItemNotFound),
		errors.Is(err, ErrMaterialNotFound),
		errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicateName),
		errors.Is(err, ErrInUse):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrInsufficientStock):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	return err
}
