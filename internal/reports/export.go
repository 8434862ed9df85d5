package reports

import (
	"bytes"
	"fmt"
	"time"

	"cafe-backend/internal/locale"
	"cafe-backend/internal/pricing"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const (
	SalesSheet    = "Satışlar"
	ExpensesSheet = "Giderler"
	SummarySheet  = "Özet"

	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	moneyFormat = `#,##0.00 "₺"`
)

var (
	salesHeader = []any{
		"Satış No", "Tarih", "Ürün Kodu", "Ürün", "Adet", "Birim Fiyat",
		"KDV Hariç", "KDV", "İndirim", "Toplam", "Maliyet", "Ödeme", "Operatör",
	}
	expensesHeader = []any{
		"Tarih", "Kategori", "Açıklama", "Tutar", "Ödeme", "Referans", "Tekrarlayan", "Not",
	}
)

type sheetStyles struct {
	header int
	money  int
}

func newWorkbook(first string) (*excelize.File, sheetStyles, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), first); err != nil {
		_ = f.Close()
		return nil, sheetStyles{}, err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		_ = f.Close()
		return nil, sheetStyles{}, err
	}
	mf := moneyFormat
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: &mf})
	if err != nil {
		_ = f.Close()
		return nil, sheetStyles{}, err
	}
	return f, sheetStyles{header: header, money: money}, nil
}

// writeRows başlık ve satırları A1'den itibaren yazar, başlığı
// biçimlendirir ve moneyCols sütunlarına para biçimi uygular.
func writeRows(f *excelize.File, st sheetStyles, sheet string, header []any, rows [][]any, moneyCols ...int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, st.header); err != nil {
		return err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return err
		}
	}
	if len(rows) == 0 {
		return nil
	}
	for _, col := range moneyCols {
		top, _ := excelize.CoordinatesToCellName(col, 2)
		bottom, _ := excelize.CoordinatesToCellName(col, len(rows)+1)
		if err := f.SetCellStyle(sheet, top, bottom, st.money); err != nil {
			return err
		}
	}
	return nil
}

func writeSummary(f *excelize.File, st sheetStyles, pairs [][]any) error {
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return err
	}
	return writeRows(f, st, SummarySheet, []any{"Alan", "Değer"}, pairs)
}

// SalesWorkbook [from, to) aralığındaki iade edilmemiş satışların Excel
// dosyası. Özet sayfası Türkçe biçimli tutarlar içerir.
func SalesWorkbook(db *gorm.DB, from, to time.Time) (*excelize.File, error) {
	rows, err := loadSales(db, from, to)
	if err != nil {
		return nil, err
	}
	f, st, err := newWorkbook(SalesSheet)
	if err != nil {
		return nil, fmt.Errorf("excel dosyası oluşturulamadı: %w", err)
	}

	var revenue, tax, cost money
	data := make([][]any, 0, len(rows))
	for _, s := range rows {
		data = append(data, []any{
			s.SaleNumber,
			locale.FormatDateTime(s.SaleDate),
			s.Item.Code,
			s.Item.Name,
			s.Quantity,
			s.UnitPrice,
			s.TotalPrice,
			s.TaxAmount,
			s.DiscountAmount,
			s.TotalWithTax,
			s.ProductCost,
			s.PaymentMethod,
			s.Operator,
		})
		revenue.add(s.TotalWithTax)
		tax.add(s.TaxAmount)
		cost.add(s.ProductCost)
	}
	if err := writeRows(f, st, SalesSheet, salesHeader, data, 6, 7, 8, 9, 10, 11); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("satış sayfası yazılamadı: %w", err)
	}

	summary := [][]any{
		{"Dönem", locale.FormatDate(from) + " - " + locale.FormatDate(to.AddDate(0, 0, -1))},
		{"Satış adedi", len(rows)},
		{"Toplam ciro", locale.FormatCurrency(revenue.value())},
		{"Toplam KDV", locale.FormatCurrency(tax.value())},
		{"Toplam maliyet", locale.FormatCurrency(cost.value())},
		{"Brüt kar", locale.FormatCurrency(pricing.Sub(revenue.value(), cost.value()))},
	}
	if err := writeSummary(f, st, summary); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("özet sayfası yazılamadı: %w", err)
	}
	return f, nil
}

// ExpensesWorkbook [from, to) aralığındaki giderlerin Excel dosyası
func ExpensesWorkbook(db *gorm.DB, from, to time.Time) (*excelize.File, error) {
	rows, err := loadExpenses(db, from, to)
	if err != nil {
		return nil, err
	}
	f, st, err := newWorkbook(ExpensesSheet)
	if err != nil {
		return nil, fmt.Errorf("excel dosyası oluşturulamadı: %w", err)
	}

	var total money
	data := make([][]any, 0, len(rows))
	for _, e := range rows {
		recurring := "Hayır"
		if e.IsRecurring {
			recurring = "Evet (" + e.RecurringType + ")"
		}
		data = append(data, []any{
			locale.FormatDate(e.Date),
			e.Category.Name,
			e.Description,
			e.Amount,
			e.PaymentMethod,
			e.ReferenceNumber,
			recurring,
			e.Notes,
		})
		total.add(e.Amount)
	}
	if err := writeRows(f, st, ExpensesSheet, expensesHeader, data, 4); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("gider sayfası yazılamadı: %w", err)
	}

	summary := [][]any{
		{"Dönem", locale.FormatDate(from) + " - " + locale.FormatDate(to.AddDate(0, 0, -1))},
		{"Gider adedi", len(rows)},
		{"Toplam gider", locale.FormatCurrency(total.value())},
	}
	if err := writeSummary(f, st, summary); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("özet sayfası yazılamadı: %w", err)
	}
	return f, nil
}

// WriteBuffer dosyayı belleğe yazar ve kapatır.
func WriteBuffer(f *excelize.File) (*bytes.Buffer, error) {
	defer func() { _ = f.Close() }()
	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("excel dosyası yazılamadı: %w", err)
	}
	return buf, nil
}
