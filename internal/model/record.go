// Package model defines domain types for vehicles, their records and derived statistics.
package model

import "time"

// Category tags a cost-bearing record for distribution and summaries.
type Category string

// Cost categories.
const (
	CategoryFuel       Category = "fuel"
	CategoryConsumable Category = "consumable"
	CategoryBreakdown  Category = "breakdown"
	CategoryAccident   Category = "accident"
	CategoryPart       Category = "part"
	CategoryExpense    Category = "expense"
)

// IsRepair reports whether records of this category count toward repair spending.
func (c Category) IsRepair() bool {
	switch c {
	case CategoryBreakdown, CategoryAccident, CategoryPart:
		return true
	}
	return false
}

// Valid reports whether c is a category a CostRecord may carry.
func (c Category) Valid() bool {
	switch c {
	case CategoryBreakdown, CategoryAccident, CategoryPart, CategoryExpense:
		return true
	}
	return false
}

// Vehicle is a tracked car. CurrentMileage never decreases.
type Vehicle struct {
	ID             string
	Name           string
	FuelType       string
	CurrentMileage int
}

// Refueling is one fill-up event.
type Refueling struct {
	ID        string
	VehicleID string
	Date      time.Time
	Mileage   int
	Volume    float64
	FuelType  string
	FullTank  bool
	TotalCost *float64

	// ConsumptionRate is derived in L/100km; nil when undefined.
	ConsumptionRate *float64
}

// Cost returns the fill-up cost, or 0 when it was not recorded.
func (r Refueling) Cost() float64 {
	if r.TotalCost == nil {
		return 0
	}
	return *r.TotalCost
}

// ConsumableItem is a part or fluid with a bounded useful life. Each row is
// one installation (replacement) event.
type ConsumableItem struct {
	ID                  string
	VehicleID           string
	Name                string
	Category            string
	InstallationMileage int
	InstallationDate    time.Time
	ReplacementMileage  *int
	ReplacementDate     *time.Time
	IntervalMileage     *int
	IntervalDays        *int
	Active              bool
	Cost                float64
	ServiceCost         float64
}

// Total returns parts plus service cost.
func (c ConsumableItem) Total() float64 {
	return c.Cost + c.ServiceCost
}

// CostRecord is a repair, part install, accident or miscellaneous expense.
type CostRecord struct {
	ID          string
	VehicleID   string
	Date        time.Time
	Mileage     int
	Category    Category
	Tag         string
	Description string
	Cost        float64 // parts or item cost
	ServiceCost float64 // labor
}

// Total returns parts plus service cost.
func (c CostRecord) Total() float64 {
	return c.Cost + c.ServiceCost
}

// VehicleRecords is a fully materialized snapshot of one vehicle's records.
type VehicleRecords struct {
	Vehicle     *Vehicle
	Refuelings  []Refueling
	Consumables []ConsumableItem
	Costs       []CostRecord
}
