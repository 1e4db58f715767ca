package model

import "time"

// StatisticsBundle is the composite analytics output for one vehicle and
// window. A nil sub-summary means its category had no records in range.
type StatisticsBundle struct {
	Since time.Time
	Until time.Time

	General     *GeneralSummary
	Fuel        *FuelSummary
	Repairs     *RepairsSummary
	Expenses    *ExpensesSummary
	Consumables *ConsumablesSummary

	Empty bool
}

// PeriodCost is one bucket of a cost or volume series.
type PeriodCost struct {
	Start time.Time
	Key   string // "2006-01" or "2006-01-02"
	Cost  float64
}

// CategoryShare is a category's amount and its share of a total.
type CategoryShare struct {
	Category string
	Amount   float64
	Percent  float64
}

// GeneralSummary holds cross-category totals for the window.
type GeneralSummary struct {
	TotalCost          float64
	DistanceKm         int
	CostPerKm          float64
	AverageKmPerDay    float64
	AverageKmPerMonth  float64
	MostExpensiveMonth *PeriodCost
	CostDistribution   []CategoryShare
	CostTrend          []PeriodCost
	DailyTrend         bool // trend buckets are days rather than months
}

// ConsumptionPoint is one computed consumption rate on the trend line.
type ConsumptionPoint struct {
	Date time.Time
	Rate float64
}

// FuelTypeStats holds per-fuel-type refueling metrics.
type FuelTypeStats struct {
	FuelType           string
	AverageConsumption *float64
	TotalCost          float64
	TotalVolume        float64
	RefuelCount        int
	Trend              []ConsumptionPoint
	MonthlyVolume      []PeriodCost // Cost holds the volume
}

// FuelSummary groups refueling metrics by fuel type.
type FuelSummary struct {
	TotalCost          float64
	TotalVolume        float64
	RefuelCount        int
	AverageConsumption *float64
	ByType             []FuelTypeStats
}

// PartsVsLabor splits repair spending.
type PartsVsLabor struct {
	PartsCost    float64
	LaborCost    float64
	PartsPercent float64
	LaborPercent float64
}

// RepairsSummary covers breakdowns, accidents and part installs.
type RepairsSummary struct {
	TotalCost    float64
	Count        int
	AverageCost  float64
	PartsVsLabor PartsVsLabor
	ByCategory   []CategoryShare
	Monthly      []PeriodCost
}

// ExpensesSummary covers miscellaneous expenses grouped by tag.
type ExpensesSummary struct {
	TotalCost     float64
	Count         int
	ByCategory    []CategoryShare
	Monthly       []PeriodCost
	TopCategories []CategoryShare
}

// ConsumableCategoryStats holds spending for one consumable category.
type ConsumableCategoryStats struct {
	Category         string
	TotalCost        float64
	Percent          float64
	AverageCost      float64
	ReplacementCount int
}

// ConsumablesSummary covers consumable replacements installed in range.
type ConsumablesSummary struct {
	TotalCost                         float64
	ReplacementCount                  int
	AverageMaintenanceCost            float64
	AverageMaintenanceCostWithService float64
	ByCategory                        []ConsumableCategoryStats
}
