package pipeline

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/theirongolddev/carledger/internal/consumable"
	"github.com/theirongolddev/carledger/internal/model"
	"github.com/theirongolddev/carledger/internal/period"
)

// RecordSource supplies fully materialized vehicle records.
type RecordSource interface {
	ListVehicles() ([]model.Vehicle, error)
	LoadRecords(vehicleID string) (model.VehicleRecords, error)
}

// ProgressFunc is called during fleet processing to report progress.
// current is the number of vehicles processed so far, total is the total count.
type ProgressFunc func(current, total int)

// FleetResult holds one vehicle's statistics and consumable statuses.
type FleetResult struct {
	Vehicle  model.Vehicle
	Bundle   model.StatisticsBundle
	Statuses []model.ConsumableStatus
	Err      error
}

// Alerts counts consumables at warning or critical status.
func (r FleetResult) Alerts() (warning, critical int) {
	for _, s := range r.Statuses {
		switch s.Info.Status {
		case model.StatusWarning:
			warning++
		case model.StatusCritical:
			critical++
		}
	}
	return warning, critical
}

// Load materializes every vehicle's records from src.
func Load(src RecordSource) ([]model.VehicleRecords, error) {
	vehicles, err := src.ListVehicles()
	if err != nil {
		return nil, fmt.Errorf("listing vehicles: %w", err)
	}

	all := make([]model.VehicleRecords, 0, len(vehicles))
	for _, v := range vehicles {
		recs, err := src.LoadRecords(v.ID)
		if err != nil {
			return nil, fmt.Errorf("loading records for %s: %w", v.ID, err)
		}
		all = append(all, recs)
	}
	return all, nil
}

// AggregateFleet aggregates each vehicle's records over w. Vehicles are
// processed in parallel with a bounded worker pool; results keep input order.
func AggregateFleet(all []model.VehicleRecords, w period.Window, now time.Time, progressFn ProgressFunc) []FleetResult {
	results := make([]FleetResult, len(all))
	if len(all) == 0 {
		return results
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(all) {
		numWorkers = len(all)
	}

	work := make(chan int, len(all))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range all {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = aggregateOne(all[idx], w, now)
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n), len(all))
				}
			}
		}()
	}

	wg.Wait()
	return results
}

func aggregateOne(recs model.VehicleRecords, w period.Window, now time.Time) FleetResult {
	var res FleetResult
	if recs.Vehicle != nil {
		res.Vehicle = *recs.Vehicle
	}

	bundle, err := Aggregate(recs, w, now)
	if err != nil {
		res.Err = err
		return res
	}
	res.Bundle = bundle
	res.Statuses = consumable.EvaluateAll(recs.Consumables, res.Vehicle.CurrentMileage, now)
	return res
}
