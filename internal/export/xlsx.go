// Package export writes a vehicle's ledger and statistics to spreadsheet files.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/theirongolddev/carledger/internal/consumable"
	"github.com/theirongolddev/carledger/internal/fuel"
	"github.com/theirongolddev/carledger/internal/model"
	"github.com/theirongolddev/carledger/internal/period"
	"github.com/theirongolddev/carledger/internal/pipeline"
)

// Sheet names in the order they appear in the workbook.
const (
	SheetSummary     = "Summary"
	SheetRefuelings  = "Refuelings"
	SheetConsumables = "Consumables"
	SheetCosts       = "Costs"
)

const (
	dateLayout  = "2006-01-02"
	headerColor = "205EA6"
)

// WriteXLSX writes a workbook with a summary of w and the records that fall
// inside it. Consumables are listed with their current status regardless of
// the window.
func WriteXLSX(out io.Writer, recs model.VehicleRecords, w period.Window, now time.Time) error {
	bundle, err := pipeline.Aggregate(recs, w, now)
	if err != nil {
		return err
	}
	r := period.Resolve(w, now)

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerColor}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	sheets := []struct {
		name    string
		headers []string
		rows    [][]any
	}{
		{SheetSummary, []string{"Metric", "Value"}, summaryRows(recs.Vehicle, w, bundle)},
		{SheetRefuelings, []string{"Date", "Odometer", "Volume", "Fuel", "Full Tank", "Cost", "L/100km"},
			refuelingRows(pipeline.FilterRefuelings(fuel.Calculate(recs.Refuelings), r))},
		{SheetConsumables, []string{"Item", "Category", "Installed", "Odometer", "Interval km", "Interval days", "Cost", "Service", "Status", "Km left", "Days left"},
			consumableRows(consumable.EvaluateAll(recs.Consumables, recs.Vehicle.CurrentMileage, now))},
		{SheetCosts, []string{"Date", "Odometer", "Category", "Tag", "Description", "Parts", "Labor", "Total"},
			costRows(pipeline.FilterCosts(recs.Costs, r))},
	}

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sh.name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			return err
		}
		if err := writeTable(f, sh.name, sh.headers, sh.rows, headerStyle); err != nil {
			return fmt.Errorf("writing %s sheet: %w", sh.name, err)
		}
	}

	if err := f.Write(out); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeTable(f *excelize.File, sheet string, headers []string, rows [][]any, headerStyle int) error {
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return err
		}
	}

	for i, row := range rows {
		for col, v := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	last, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", last, 16); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func summaryRows(v *model.Vehicle, w period.Window, b model.StatisticsBundle) [][]any {
	rows := [][]any{
		{"Vehicle", v.Name},
		{"Window", w.Label()},
		{"From", b.Since.Format(dateLayout)},
		{"To", b.Until.Format(dateLayout)},
		{"Odometer", v.CurrentMileage},
	}
	if b.Empty || b.General == nil {
		return append(rows, []any{"Total cost", 0.0})
	}

	g := b.General
	rows = append(rows,
		[]any{"Total cost", g.TotalCost},
		[]any{"Distance km", g.DistanceKm},
		[]any{"Cost per km", g.CostPerKm},
		[]any{"Average km per day", g.AverageKmPerDay},
		[]any{"Average km per month", g.AverageKmPerMonth},
	)
	if g.MostExpensiveMonth != nil {
		rows = append(rows, []any{"Costliest month", g.MostExpensiveMonth.Key})
	}
	if b.Fuel != nil && b.Fuel.AverageConsumption != nil {
		rows = append(rows, []any{"Average L/100km", *b.Fuel.AverageConsumption})
	}
	rows = append(rows, []any{"", ""})
	for _, s := range g.CostDistribution {
		rows = append(rows, []any{"Share " + s.Category + " %", s.Percent})
	}
	return rows
}

func refuelingRows(events []model.Refueling) [][]any {
	rows := make([][]any, 0, len(events))
	for _, ev := range events {
		rows = append(rows, []any{
			ev.Date.Format(dateLayout), ev.Mileage, ev.Volume, ev.FuelType, ev.FullTank,
			optional(ev.TotalCost), optional(ev.ConsumptionRate),
		})
	}
	return rows
}

func consumableRows(statuses []model.ConsumableStatus) [][]any {
	rows := make([][]any, 0, len(statuses))
	for _, s := range statuses {
		it := s.Item
		status := "replaced"
		if it.Active {
			status = s.Info.Status.String()
		}
		rows = append(rows, []any{
			it.Name, it.Category, it.InstallationDate.Format(dateLayout), it.InstallationMileage,
			optional(it.IntervalMileage), optional(it.IntervalDays), it.Cost, it.ServiceCost,
			status, optional(s.Info.RemainingMileage), optional(s.Info.RemainingDays),
		})
	}
	return rows
}

func costRows(costs []model.CostRecord) [][]any {
	rows := make([][]any, 0, len(costs))
	for _, c := range costs {
		rows = append(rows, []any{
			c.Date.Format(dateLayout), c.Mileage, string(c.Category), c.Tag, c.Description,
			c.Cost, c.ServiceCost, c.Total(),
		})
	}
	return rows
}

// optional dereferences p, leaving the cell empty when nil.
func optional[T any](p *T) any {
	if p == nil {
		return ""
	}
	return *p
}
