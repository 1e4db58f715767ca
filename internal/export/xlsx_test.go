package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/theirongolddev/carledger/internal/model"
	"github.com/theirongolddev/carledger/internal/period"
)

func fixture(now time.Time) model.VehicleRecords {
	v := &model.Vehicle{ID: "v1", Name: "Golf", FuelType: "petrol", CurrentMileage: 1900}
	cost := func(f float64) *float64 { return &f }
	interval := 15000
	return model.VehicleRecords{
		Vehicle: v,
		Refuelings: []model.Refueling{
			{ID: "r1", VehicleID: "v1", Date: now.AddDate(0, 0, -20), Mileage: 1000, Volume: 40, FuelType: "petrol", FullTank: true, TotalCost: cost(70)},
			{ID: "r2", VehicleID: "v1", Date: now.AddDate(0, 0, -10), Mileage: 1400, Volume: 36, FuelType: "petrol", FullTank: true, TotalCost: cost(63)},
			{ID: "r3", VehicleID: "v1", Date: now.AddDate(0, 0, -1), Mileage: 1900, Volume: 45, FuelType: "petrol", FullTank: true},
			{ID: "old", VehicleID: "v1", Date: now.AddDate(-1, 0, 0), Mileage: 100, Volume: 30, FuelType: "petrol", FullTank: true},
		},
		Consumables: []model.ConsumableItem{
			{ID: "i1", VehicleID: "v1", Name: "Oil", Category: "oil", InstallationMileage: 900, InstallationDate: now.AddDate(0, 0, -25), IntervalMileage: &interval, Active: true, Cost: 40, ServiceCost: 20},
		},
		Costs: []model.CostRecord{
			{ID: "c1", VehicleID: "v1", Date: now.AddDate(0, 0, -5), Mileage: 1700, Category: model.CategoryExpense, Tag: "parking", Cost: 12},
		},
	}
}

func TestWriteXLSX(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, fixture(now), period.Rolling(period.Month), now); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer func() { _ = f.Close() }()

	want := []string{SheetSummary, SheetRefuelings, SheetConsumables, SheetCosts}
	got := f.GetSheetList()
	if len(got) != len(want) {
		t.Fatalf("sheets = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sheet[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	name, _ := f.GetCellValue(SheetSummary, "B2")
	if name != "Golf" {
		t.Errorf("Summary B2 = %q, want Golf", name)
	}

	// Header plus the three refuelings inside the month; last year's is excluded.
	rows, err := f.GetRows(SheetRefuelings)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("refueling rows = %d, want 4", len(rows))
	}
	if rows[1][0] != "2024-05-26" {
		t.Errorf("first refueling date = %q, want 2024-05-26", rows[1][0])
	}

	status, _ := f.GetCellValue(SheetConsumables, "I2")
	if status != "normal" {
		t.Errorf("consumable status = %q, want normal", status)
	}

	tag, _ := f.GetCellValue(SheetCosts, "D2")
	if tag != "parking" {
		t.Errorf("cost tag = %q, want parking", tag)
	}
}

func TestWriteXLSXNoVehicle(t *testing.T) {
	var buf bytes.Buffer
	err := WriteXLSX(&buf, model.VehicleRecords{}, period.Rolling(period.Month), time.Now())
	if err == nil {
		t.Fatal("expected an error for records without a vehicle")
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %d bytes on error", buf.Len())
	}
}
