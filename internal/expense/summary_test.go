package expense

import (
	"testing"
	"time"
)

func TestSummaries(t *testing.T) {
	db := openDB(t)
	rent := categoryID(t, db, "KİRA")
	water := categoryID(t, db, "SU")
	mustExpense(t, db, rent, day(2025, time.January, 5), 1000)
	mustExpense(t, db, water, day(2025, time.January, 20), 150.25)
	mustExpense(t, db, water, day(2025, time.February, 3), 149.75)
	mustExpense(t, db, rent, day(2025, time.March, 1), 999) // aralık dışı

	from, to := day(2025, time.January, 1), day(2025, time.March, 1)

	total, err := Total(db, from, to)
	if err != nil || total != 1300 {
		t.Fatalf("Total = %v, %v", total, err)
	}

	cats, err := ByCategory(db, from, to)
	if err != nil || len(cats) != 2 {
		t.Fatalf("ByCategory = %+v, %v", cats, err)
	}
	if cats[0].Code != "KİRA" || cats[0].Total != 1000 || cats[1].Total != 300 || cats[1].Count != 2 {
		t.Fatalf("unexpected category totals %+v", cats)
	}
	if cats[0].SharePct != 76.92 {
		t.Fatalf("share = %v, want 76.92", cats[0].SharePct)
	}

	months, err := Monthly(db, from, to)
	if err != nil || len(months) != 2 {
		t.Fatalf("Monthly = %+v, %v", months, err)
	}
	if months[0].MonthName != "Ocak" || months[0].Total != 1150.25 || months[1].MonthName != "Şubat" || months[1].Count != 1 {
		t.Fatalf("unexpected months %+v", months)
	}

	s, err := Summarize(db, from, to, 59)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.Count != 3 || s.Total != 1300 || s.AveragePerExpense != 433.33 || s.AveragePerDay != 22.03 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if s.TopCategory == nil || s.TopCategory.Code != "KİRA" {
		t.Fatalf("top category = %+v", s.TopCategory)
	}
}

func TestSummaryEmptyRange(t *testing.T) {
	db := openDB(t)
	s, err := Summarize(db, day(2020, time.January, 1), day(2020, time.February, 1), 31)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.Count != 0 || s.Total != 0 || s.AveragePerExpense != 0 || s.TopCategory != nil {
		t.Fatalf("unexpected empty summary %+v", s)
	}
}
