package config

import "github.com/theirongolddev/carledger/internal/model"

// ServiceInterval is a recommended replacement interval. A zero field means
// the interval does not apply.
type ServiceInterval struct {
	Km   int
	Days int
}

// IntervalOverride lets users replace a default interval per category.
type IntervalOverride struct {
	Km   *int `toml:"km,omitempty"`
	Days *int `toml:"days,omitempty"`
}

// DefaultIntervals maps consumable categories to common replacement intervals.
var DefaultIntervals = map[string]ServiceInterval{
	"oil":            {Km: 15000, Days: 365},
	"oil-filter":     {Km: 15000, Days: 365},
	"air-filter":     {Km: 30000, Days: 730},
	"cabin-filter":   {Km: 15000, Days: 365},
	"fuel-filter":    {Km: 60000},
	"brake-pads":     {Km: 40000},
	"brake-discs":    {Km: 80000},
	"brake-fluid":    {Days: 730},
	"coolant":        {Km: 60000, Days: 1825},
	"spark-plugs":    {Km: 60000},
	"timing-belt":    {Km: 120000, Days: 1825},
	"tires":          {Km: 50000, Days: 2190},
	"battery":        {Days: 1825},
	"wiper-blades":   {Days: 365},
	"transmission":   {Km: 80000},
	"accessory-belt": {Km: 90000},
}

// LookupInterval returns the interval for a category, applying the user's
// overrides on top of the defaults.
func LookupInterval(cfg Config, category string) (ServiceInterval, bool) {
	key := model.NormalizeCategory(category)
	iv, ok := DefaultIntervals[key]

	for name, o := range cfg.Intervals {
		if model.NormalizeCategory(name) != key {
			continue
		}
		ok = true
		if o.Km != nil {
			iv.Km = *o.Km
		}
		if o.Days != nil {
			iv.Days = *o.Days
		}
	}
	return iv, ok
}

// ApplyDefaultIntervals fills in missing intervals of it from its category,
// falling back to its name. It reports whether anything changed.
func ApplyDefaultIntervals(cfg Config, it *model.ConsumableItem) bool {
	if it.IntervalMileage != nil && it.IntervalDays != nil {
		return false
	}

	iv, ok := LookupInterval(cfg, it.Category)
	if !ok {
		iv, ok = LookupInterval(cfg, it.Name)
	}
	if !ok {
		return false
	}

	changed := false
	if it.IntervalMileage == nil && iv.Km > 0 {
		km := iv.Km
		it.IntervalMileage = &km
		changed = true
	}
	if it.IntervalDays == nil && iv.Days > 0 {
		days := iv.Days
		it.IntervalDays = &days
		changed = true
	}
	return changed
}
