// Package pipeline filters vehicle records to a time window and aggregates
// them into cost and maintenance statistics.
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/theirongolddev/carledger/internal/fuel"
	"github.com/theirongolddev/carledger/internal/model"
	"github.com/theirongolddev/carledger/internal/period"
)

// ErrNoVehicle is returned when records are passed without their vehicle.
var ErrNoVehicle = errors.New("vehicle records without vehicle")

const daysPerMonth = 30.44

// Window holds one vehicle's records narrowed to a resolved range.
type Window struct {
	Range       period.Range
	Refuelings  []model.Refueling
	Consumables []model.ConsumableItem
	Costs       []model.CostRecord
}

// Empty reports whether no category has records in range.
func (w Window) Empty() bool {
	return len(w.Refuelings) == 0 && len(w.Consumables) == 0 && len(w.Costs) == 0
}

// Narrow derives consumption rates over the full refueling history, then
// filters every collection to r. Rates are derived first because the first
// full tank in a window still needs its predecessor.
func Narrow(records model.VehicleRecords, r period.Range) Window {
	return Window{
		Range:       r,
		Refuelings:  FilterRefuelings(fuel.Calculate(records.Refuelings), r),
		Consumables: FilterConsumables(records.Consumables, r),
		Costs:       FilterCosts(records.Costs, r),
	}
}

// Aggregate computes the statistics bundle for one vehicle over window w.
func Aggregate(records model.VehicleRecords, w period.Window, now time.Time) (model.StatisticsBundle, error) {
	if records.Vehicle == nil {
		return model.StatisticsBundle{}, fmt.Errorf("aggregate %s: %w", w, ErrNoVehicle)
	}

	r := period.Resolve(w, now)
	win := Narrow(records, r)

	bundle := model.StatisticsBundle{
		Since: r.Start,
		Until: r.End,
		Empty: win.Empty(),
	}
	if bundle.Empty {
		return bundle, nil
	}

	loc := now.Location()
	bundle.General = General(win, loc)
	bundle.Fuel = Fuel(win.Refuelings, records.Vehicle.FuelType, loc)
	bundle.Repairs = Repairs(win.Costs, loc)
	bundle.Expenses = Expenses(win.Costs, loc)
	bundle.Consumables = Consumables(win.Consumables)
	return bundle, nil
}

// General computes cross-category totals. It returns nil for an empty window.
func General(win Window, loc *time.Location) *model.GeneralSummary {
	if win.Empty() {
		return nil
	}

	byCategory := make(ledger)
	var grand total
	var costs []point
	var odo odometer

	for _, ev := range win.Refuelings {
		byCategory.add(string(model.CategoryFuel), ev.Cost())
		grand.add(ev.Cost())
		costs = append(costs, point{at: ev.Date, v: ev.Cost()})
		odo.observe(ev.Date, ev.Mileage)
	}
	for _, it := range win.Consumables {
		byCategory.add(string(model.CategoryConsumable), it.Total())
		grand.add(it.Total())
		costs = append(costs, point{at: it.InstallationDate, v: it.Total()})
		odo.observe(it.InstallationDate, it.InstallationMileage)
	}
	for _, c := range win.Costs {
		byCategory.add(string(c.Category), c.Total())
		grand.add(c.Total())
		costs = append(costs, point{at: c.Date, v: c.Total()})
		odo.observe(c.Date, c.Mileage)
	}

	s := &model.GeneralSummary{
		TotalCost:  grand.float(),
		DistanceKm: odo.distance(),
		DailyTrend: win.Range.Days() <= dailyTrendMaxDays,
	}
	s.CostPerKm = ratio(s.TotalCost, float64(s.DistanceKm))
	if s.DistanceKm > 0 {
		s.AverageKmPerDay = float64(s.DistanceKm) / odo.days()
		s.AverageKmPerMonth = s.AverageKmPerDay * daysPerMonth
	}

	if s.TotalCost > 0 {
		s.CostDistribution = byCategory.positive().shares()
	}
	s.MostExpensiveMonth = costliest(series(costs, false, loc))
	s.CostTrend = series(costs, s.DailyTrend, loc)
	return s
}

// positive drops zero-amount keys so they don't appear in a distribution.
func (l ledger) positive() ledger {
	out := make(ledger, len(l))
	for k, t := range l {
		if t.d.IsPositive() {
			out[k] = t
		}
	}
	return out
}

// odometer tracks the mileage span and date span of observed records.
type odometer struct {
	seen              bool
	minKm, maxKm      int
	firstDay, lastDay time.Time
}

func (o *odometer) observe(at time.Time, km int) {
	if !o.seen {
		o.seen = true
		o.minKm, o.maxKm = km, km
		o.firstDay, o.lastDay = at, at
		return
	}
	if km < o.minKm {
		o.minKm = km
	}
	if km > o.maxKm {
		o.maxKm = km
	}
	if at.Before(o.firstDay) {
		o.firstDay = at
	}
	if at.After(o.lastDay) {
		o.lastDay = at
	}
}

func (o odometer) distance() int {
	return o.maxKm - o.minKm
}

// days returns the elapsed days between the first and last record, at least one.
func (o odometer) days() float64 {
	d := o.lastDay.Sub(o.firstDay).Hours() / 24
	if d < 1 {
		return 1
	}
	return d
}

// FilterRefuelings returns events dated within r.
func FilterRefuelings(events []model.Refueling, r period.Range) []model.Refueling {
	var out []model.Refueling
	for _, ev := range events {
		if r.Contains(ev.Date) {
			out = append(out, ev)
		}
	}
	return out
}

// FilterConsumables returns items installed within r.
func FilterConsumables(items []model.ConsumableItem, r period.Range) []model.ConsumableItem {
	var out []model.ConsumableItem
	for _, it := range items {
		if r.Contains(it.InstallationDate) {
			out = append(out, it)
		}
	}
	return out
}

// FilterCosts returns cost records dated within r.
func FilterCosts(costs []model.CostRecord, r period.Range) []model.CostRecord {
	var out []model.CostRecord
	for _, c := range costs {
		if r.Contains(c.Date) {
			out = append(out, c)
		}
	}
	return out
}
