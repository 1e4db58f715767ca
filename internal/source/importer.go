package source

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/theirongolddev/carledger/internal/model"
)

// Sink persists imported records. *store.Store satisfies it.
type Sink interface {
	FindVehicle(ref string) (model.Vehicle, error)
	SaveVehicle(v *model.Vehicle) error
	SaveRefueling(r *model.Refueling) error
	SaveConsumable(c *model.ConsumableItem) error
	SaveCostRecord(c *model.CostRecord) error
}

// ImportStats counts what Import persisted and skipped.
type ImportStats struct {
	Vehicles    int
	Refuelings  int
	Consumables int
	Costs       int
	Skipped     int
}

// Total returns the number of persisted records.
func (s ImportStats) Total() int {
	return s.Vehicles + s.Refuelings + s.Consumables + s.Costs
}

// Import saves vehicles first, then every record whose vehicle reference
// resolves to a vehicle in the batch or already in the sink. Records with an
// unknown vehicle or rejected by the sink are skipped and logged. Only a
// failing vehicle save aborts the import.
func Import(sink Sink, b Batch) (ImportStats, error) {
	var stats ImportStats
	resolved := make(map[string]string)

	for i := range b.Vehicles {
		v := &b.Vehicles[i]
		if err := sink.SaveVehicle(v); err != nil {
			return stats, fmt.Errorf("saving vehicle %q: %w", v.Name, err)
		}
		resolved[v.ID] = v.ID
		resolved[strings.ToLower(v.Name)] = v.ID
		stats.Vehicles++
	}

	resolve := func(ref string) (string, bool) {
		key := strings.ToLower(strings.TrimSpace(ref))
		if id, ok := resolved[key]; ok {
			return id, true
		}
		if id, ok := resolved[ref]; ok {
			return id, true
		}
		v, err := sink.FindVehicle(ref)
		if err != nil {
			log.Warn().Str("vehicle", ref).Err(err).Msg("skipping record with unknown vehicle")
			resolved[key] = ""
			return "", false
		}
		resolved[key] = v.ID
		return v.ID, true
	}

	skip := func(kind string, err error) {
		stats.Skipped++
		log.Warn().Str("record", kind).Err(err).Msg("skipping record")
	}

	for i := range b.Refuelings {
		r := &b.Refuelings[i]
		id, ok := resolve(r.VehicleID)
		if !ok || id == "" {
			stats.Skipped++
			continue
		}
		r.VehicleID = id
		if err := sink.SaveRefueling(r); err != nil {
			skip("refueling", err)
			continue
		}
		stats.Refuelings++
	}

	for i := range b.Consumables {
		c := &b.Consumables[i]
		id, ok := resolve(c.VehicleID)
		if !ok || id == "" {
			stats.Skipped++
			continue
		}
		c.VehicleID = id
		if err := sink.SaveConsumable(c); err != nil {
			skip("consumable", err)
			continue
		}
		stats.Consumables++
	}

	for i := range b.Costs {
		c := &b.Costs[i]
		id, ok := resolve(c.VehicleID)
		if !ok || id == "" {
			stats.Skipped++
			continue
		}
		c.VehicleID = id
		if err := sink.SaveCostRecord(c); err != nil {
			skip("cost", err)
			continue
		}
		stats.Costs++
	}

	if stats.Total() == 0 && b.Len() > 0 {
		return stats, errors.New("no records could be imported")
	}
	return stats, nil
}
