package pipeline

import (
	"sort"
	"strings"
	"time"

	"github.com/theirongolddev/carledger/internal/fuel"
	"github.com/theirongolddev/carledger/internal/model"
)

// topCategoriesLimit caps the expense ranking.
const topCategoriesLimit = 5

// Fuel groups refuelings by fuel type. Events without a fuel type are
// attributed to the vehicle's fuel type. It returns nil when events is empty.
func Fuel(events []model.Refueling, vehicleFuelType string, loc *time.Location) *model.FuelSummary {
	if len(events) == 0 {
		return nil
	}

	type group struct {
		cost, volume total
		count        int
		trend        []model.ConsumptionPoint
		volumes      []point
		events       []model.Refueling
	}
	groups := make(map[string]*group)

	var cost, volume total
	for _, ev := range events {
		ft := ev.FuelType
		if ft == "" {
			ft = vehicleFuelType
		}
		if ft == "" {
			ft = "unknown"
		}
		ev.FuelType = ft

		g, ok := groups[ft]
		if !ok {
			g = &group{}
			groups[ft] = g
		}
		g.cost.add(ev.Cost())
		g.volume.add(ev.Volume)
		g.count++
		g.volumes = append(g.volumes, point{at: ev.Date, v: ev.Volume})
		g.events = append(g.events, ev)
		if ev.ConsumptionRate != nil {
			g.trend = append(g.trend, model.ConsumptionPoint{Date: ev.Date, Rate: *ev.ConsumptionRate})
		}

		cost.add(ev.Cost())
		volume.add(ev.Volume)
	}

	s := &model.FuelSummary{
		TotalCost:          cost.float(),
		TotalVolume:        volume.float(),
		RefuelCount:        len(events),
		AverageConsumption: fuel.Average(events),
	}

	for ft, g := range groups {
		sort.SliceStable(g.trend, func(i, j int) bool {
			return g.trend[i].Date.Before(g.trend[j].Date)
		})
		st := model.FuelTypeStats{
			FuelType:      ft,
			TotalCost:     g.cost.float(),
			TotalVolume:   g.volume.float(),
			RefuelCount:   g.count,
			Trend:         g.trend,
			MonthlyVolume: series(g.volumes, false, loc),
		}
		if avg, ok := fuel.AverageByFuelType(g.events)[ft]; ok {
			st.AverageConsumption = &avg
		}
		s.ByType = append(s.ByType, st)
	}
	sort.Slice(s.ByType, func(i, j int) bool {
		return s.ByType[i].FuelType < s.ByType[j].FuelType
	})
	return s
}

// Repairs summarizes breakdowns, accident repairs and part installs. It
// returns nil when no such record exists.
func Repairs(costs []model.CostRecord, loc *time.Location) *model.RepairsSummary {
	var grand, parts, labor total
	byCategory := make(ledger)
	var monthly []point
	count := 0

	for _, c := range costs {
		if !c.Category.IsRepair() {
			continue
		}
		count++
		grand.add(c.Total())
		parts.add(c.Cost)
		labor.add(c.ServiceCost)
		byCategory.add(string(c.Category), c.Total())
		monthly = append(monthly, point{at: c.Date, v: c.Total()})
	}
	if count == 0 {
		return nil
	}

	s := &model.RepairsSummary{
		TotalCost: grand.float(),
		Count:     count,
		PartsVsLabor: model.PartsVsLabor{
			PartsCost: parts.float(),
			LaborCost: labor.float(),
		},
		ByCategory: byCategory.shares(),
		Monthly:    series(monthly, false, loc),
	}
	s.AverageCost = ratio(s.TotalCost, float64(s.Count))

	split := ledger{"parts": &parts, "labor": &labor}
	for _, sh := range split.shares() {
		switch sh.Category {
		case "parts":
			s.PartsVsLabor.PartsPercent = sh.Percent
		case "labor":
			s.PartsVsLabor.LaborPercent = sh.Percent
		}
	}
	return s
}

// Expenses summarizes miscellaneous expenses grouped by tag. It returns nil
// when no expense exists.
func Expenses(costs []model.CostRecord, loc *time.Location) *model.ExpensesSummary {
	var grand total
	byTag := make(ledger)
	var monthly []point
	count := 0

	for _, c := range costs {
		if c.Category != model.CategoryExpense {
			continue
		}
		count++
		grand.add(c.Total())
		byTag.add(expenseTag(c.Tag), c.Total())
		monthly = append(monthly, point{at: c.Date, v: c.Total()})
	}
	if count == 0 {
		return nil
	}

	ranked := byTag.shares()
	byName := make([]model.CategoryShare, len(ranked))
	copy(byName, ranked)
	sort.Slice(byName, func(i, j int) bool {
		return byName[i].Category < byName[j].Category
	})

	top := ranked
	if len(top) > topCategoriesLimit {
		top = top[:topCategoriesLimit]
	}

	return &model.ExpensesSummary{
		TotalCost:     grand.float(),
		Count:         count,
		ByCategory:    byName,
		Monthly:       series(monthly, false, loc),
		TopCategories: top,
	}
}

func expenseTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return "other"
	}
	return tag
}

// Consumables summarizes replacement spending for items installed in range.
// It returns nil when items is empty.
func Consumables(items []model.ConsumableItem) *model.ConsumablesSummary {
	if len(items) == 0 {
		return nil
	}

	counts := make(map[string]int)
	withService := make(ledger)
	var parts, all total

	for _, it := range items {
		cat := it.CategoryKey()
		counts[cat]++
		withService.add(cat, it.Total())
		parts.add(it.Cost)
		all.add(it.Total())
	}

	n := float64(len(items))
	s := &model.ConsumablesSummary{
		TotalCost:                         all.float(),
		ReplacementCount:                  len(items),
		AverageMaintenanceCost:            ratio(parts.float(), n),
		AverageMaintenanceCostWithService: ratio(all.float(), n),
	}

	for _, sh := range withService.shares() {
		cnt := counts[sh.Category]
		s.ByCategory = append(s.ByCategory, model.ConsumableCategoryStats{
			Category:         sh.Category,
			TotalCost:        sh.Amount,
			Percent:          sh.Percent,
			AverageCost:      ratio(sh.Amount, float64(cnt)),
			ReplacementCount: cnt,
		})
	}
	return s
}
