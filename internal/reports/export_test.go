package reports

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestSalesWorkbook(t *testing.T) {
	f := newFixture(t)
	wb, err := SalesWorkbook(f.db, march, april)
	if err != nil {
		t.Fatalf("SalesWorkbook: %v", err)
	}

	rows, err := wb.GetRows(SalesSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want header + 3 sales", len(rows))
	}
	if rows[0][0] != "Satış No" || rows[1][0] != "SAT-000001" || rows[1][3] != "Latte" {
		t.Fatalf("unexpected rows %v", rows[:2])
	}

	summary, err := wb.GetRows(SummarySheet)
	if err != nil {
		t.Fatalf("summary rows: %v", err)
	}
	found := false
	for _, r := range summary {
		if len(r) == 2 && r[0] == "Toplam ciro" {
			found = r[1] == "180,00 ₺"
		}
	}
	if !found {
		t.Fatalf("summary lacks formatted revenue: %v", summary)
	}

	buf, err := WriteBuffer(wb)
	if err != nil {
		t.Fatalf("WriteBuffer: %v", err)
	}
	reopened, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer reopened.Close()
	if got := reopened.GetSheetList(); len(got) != 2 || got[0] != SalesSheet {
		t.Fatalf("sheets = %v", got)
	}
}

func TestExpensesWorkbook(t *testing.T) {
	f := newFixture(t)
	wb, err := ExpensesWorkbook(f.db, february, april)
	if err != nil {
		t.Fatalf("ExpensesWorkbook: %v", err)
	}
	defer wb.Close()

	rows, err := wb.GetRows(ExpensesSheet)
	if err != nil || len(rows) != 3 {
		t.Fatalf("rows = %v, %v", rows, err)
	}
	if rows[1][0] != "10.02.2025" || rows[1][1] != "Su" || rows[2][1] != "Kira" {
		t.Fatalf("unexpected rows %v", rows)
	}
}
