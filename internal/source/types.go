package source

import "github.com/theirongolddev/carledger/internal/model"

// RawEntry is one line of a record file. Type selects which fields apply;
// Vehicle references a vehicle by ID or name.
type RawEntry struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Vehicle string `json:"vehicle,omitempty"`
	Date    string `json:"date,omitempty"`
	Mileage *int   `json:"mileage,omitempty"`

	// vehicle
	Name     string `json:"name,omitempty"`
	FuelType string `json:"fuel_type,omitempty"`

	// refueling
	Volume    *float64 `json:"volume,omitempty"`
	FullTank  *bool    `json:"full_tank,omitempty"`
	TotalCost *float64 `json:"total_cost,omitempty"`

	// consumable
	Category        string `json:"category,omitempty"`
	IntervalKm      *int   `json:"interval_km,omitempty"`
	IntervalDays    *int   `json:"interval_days,omitempty"`
	ReplacedMileage *int   `json:"replaced_mileage,omitempty"`
	ReplacedDate    string `json:"replaced_date,omitempty"`
	Active          *bool  `json:"active,omitempty"`

	// cost
	Tag         string  `json:"tag,omitempty"`
	Description string  `json:"description,omitempty"`
	Cost        float64 `json:"cost,omitempty"`
	ServiceCost float64 `json:"service_cost,omitempty"`
}

// Batch holds the records parsed from one or more files. VehicleID fields
// carry the raw vehicle reference until Import resolves them.
type Batch struct {
	Vehicles    []model.Vehicle
	Refuelings  []model.Refueling
	Consumables []model.ConsumableItem
	Costs       []model.CostRecord
}

// Len returns the number of records in the batch.
func (b Batch) Len() int {
	return len(b.Vehicles) + len(b.Refuelings) + len(b.Consumables) + len(b.Costs)
}

func (b *Batch) merge(o Batch) {
	b.Vehicles = append(b.Vehicles, o.Vehicles...)
	b.Refuelings = append(b.Refuelings, o.Refuelings...)
	b.Consumables = append(b.Consumables, o.Consumables...)
	b.Costs = append(b.Costs, o.Costs...)
}

// DiscoveredFile is a record file found during scanning.
type DiscoveredFile struct {
	Path string
	Name string // base name without extension
}
