// Package fuel derives consumption rates from sequential refueling events.
package fuel

import (
	"sort"

	"github.com/theirongolddev/carledger/internal/model"
)

// Sort orders events chronologically, breaking date ties by mileage.
func Sort(events []model.Refueling) {
	sort.SliceStable(events, func(i, j int) bool {
		return before(events[i], events[j])
	})
}

func before(a, b model.Refueling) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	return a.Mileage < b.Mileage
}

// Calculate returns a chronologically sorted copy of events with every
// consumption rate recomputed.
func Calculate(events []model.Refueling) []model.Refueling {
	sorted := make([]model.Refueling, len(events))
	copy(sorted, events)
	Sort(sorted)

	var prev *model.Refueling
	for i := range sorted {
		ev := &sorted[i]
		ev.ConsumptionRate = nil
		if !ev.FullTank {
			continue
		}
		if prev != nil {
			ev.ConsumptionRate = rateBetween(*prev, *ev)
		}
		prev = ev
	}
	return sorted
}

// Rate computes the consumption rate of sorted[i] from the nearest preceding
// full tank. Partial fills are skipped and never get a rate.
func Rate(sorted []model.Refueling, i int) *float64 {
	if i < 0 || i >= len(sorted) || !sorted[i].FullTank {
		return nil
	}
	for j := i - 1; j >= 0; j-- {
		if sorted[j].FullTank {
			return rateBetween(sorted[j], sorted[i])
		}
	}
	return nil
}

func rateBetween(prev, cur model.Refueling) *float64 {
	distance := cur.Mileage - prev.Mileage
	if distance <= 0 {
		return nil
	}
	rate := cur.Volume / float64(distance) * 100
	return &rate
}

// Dependents returns the indices into sorted whose rate must be recomputed
// after pivot was inserted, edited or deleted: pivot itself when it is present
// and a full tank, and the first full tank at a later position. An absent
// pivot may have sat anywhere among events tied with it, so every tied full
// tank is returned along with the first full tank strictly after it.
func Dependents(sorted []model.Refueling, pivot model.Refueling) []int {
	pos := -1
	if pivot.ID != "" {
		for i, ev := range sorted {
			if ev.ID == pivot.ID {
				pos = i
				break
			}
		}
	}

	var idx []int
	if pos >= 0 {
		if sorted[pos].FullTank {
			idx = append(idx, pos)
		}
		for i := pos + 1; i < len(sorted); i++ {
			if sorted[i].FullTank {
				return append(idx, i)
			}
		}
		return idx
	}

	start := sort.Search(len(sorted), func(j int) bool {
		return !before(sorted[j], pivot)
	})
	for i := start; i < len(sorted); i++ {
		if !sorted[i].FullTank {
			continue
		}
		idx = append(idx, i)
		if before(pivot, sorted[i]) {
			break
		}
	}
	return idx
}

// AverageByFuelType returns the mean of all computed rates per fuel type.
// Fuel types without any rate are absent from the result.
func AverageByFuelType(events []model.Refueling) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, ev := range events {
		if ev.ConsumptionRate == nil {
			continue
		}
		sums[ev.FuelType] += *ev.ConsumptionRate
		counts[ev.FuelType]++
	}

	avg := make(map[string]float64, len(sums))
	for ft, sum := range sums {
		avg[ft] = sum / float64(counts[ft])
	}
	return avg
}

// Average returns the mean of the non-nil rates, or nil when there are none.
func Average(events []model.Refueling) *float64 {
	var sum float64
	var n int
	for _, ev := range events {
		if ev.ConsumptionRate != nil {
			sum += *ev.ConsumptionRate
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}
