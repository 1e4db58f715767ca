package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/theirongolddev/carledger/internal/fuel"
	"github.com/theirongolddev/carledger/internal/model"
)

const refuelingColumns = `id, vehicle_id, date, mileage, volume, fuel_type, full_tank, total_cost, consumption_rate`

// SaveRefueling inserts or updates r and recomputes the consumption rate of
// every fill-up whose predecessor changed. On an edit both the old and the
// new chronological positions are considered. The vehicle's mileage is
// raised to r.Mileage when higher. r.ConsumptionRate is set to the stored rate.
func (s *Store) SaveRefueling(r *model.Refueling) error {
	if !finite(r.Volume) || (r.TotalCost != nil && !finite(*r.TotalCost)) {
		return errors.New("refueling volume and cost must be finite numbers")
	}
	if r.Volume <= 0 {
		return fmt.Errorf("refueling volume must be positive, got %v", r.Volume)
	}
	if r.Mileage < 0 {
		return fmt.Errorf("refueling mileage must not be negative, got %d", r.Mileage)
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := requireVehicle(tx, r.VehicleID); err != nil {
		return err
	}

	old, err := getRefueling(tx, r.ID)
	hadOld := err == nil
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	_, err = tx.Exec(`INSERT INTO refuelings (`+refuelingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL)
		ON CONFLICT(id) DO UPDATE SET
			vehicle_id = excluded.vehicle_id,
			date = excluded.date,
			mileage = excluded.mileage,
			volume = excluded.volume,
			fuel_type = excluded.fuel_type,
			full_tank = excluded.full_tank,
			total_cost = excluded.total_cost`,
		r.ID, r.VehicleID, formatTime(r.Date), r.Mileage, r.Volume, r.FuelType,
		boolInt(r.FullTank), nullFloat(r.TotalCost),
	)
	if err != nil {
		return fmt.Errorf("saving refueling %s: %w", r.ID, err)
	}

	pivots := []model.Refueling{*r}
	if hadOld {
		old.ID = ""
		if old.VehicleID != r.VehicleID {
			if err := recomputeRates(tx, old.VehicleID, old); err != nil {
				return err
			}
		} else {
			pivots = append(pivots, old)
		}
	}
	if err := recomputeRates(tx, r.VehicleID, pivots...); err != nil {
		return err
	}

	if err := bumpMileage(tx, r.VehicleID, r.Mileage); err != nil {
		return err
	}

	saved, err := getRefueling(tx, r.ID)
	if err != nil {
		return err
	}
	r.ConsumptionRate = saved.ConsumptionRate

	return tx.Commit()
}

// DeleteRefueling removes a refueling and recomputes the rate of the next
// full tank after it.
func (s *Store) DeleteRefueling(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	old, err := getRefueling(tx, id)
	if err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM refuelings WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting refueling %s: %w", id, err)
	}

	old.ID = ""
	if err := recomputeRates(tx, old.VehicleID, old); err != nil {
		return err
	}
	return tx.Commit()
}

// Refuelings returns a vehicle's refuelings in chronological order.
func (s *Store) Refuelings(vehicleID string) ([]model.Refueling, error) {
	return loadRefuelings(s.db, vehicleID)
}

// recomputeRates refreshes the stored rate of each pivot that is still
// present and of the fill-ups depending on each pivot's position.
func recomputeRates(q querier, vehicleID string, pivots ...model.Refueling) error {
	sorted, err := loadRefuelings(q, vehicleID)
	if err != nil {
		return err
	}

	touched := make(map[int]bool)
	for _, p := range pivots {
		for _, i := range fuel.Dependents(sorted, p) {
			touched[i] = true
		}
		if p.ID == "" {
			continue
		}
		// A pivot that became a partial fill must lose its old rate.
		for i, ev := range sorted {
			if ev.ID == p.ID {
				touched[i] = true
			}
		}
	}

	for i := range touched {
		rate := fuel.Rate(sorted, i)
		_, err := q.Exec("UPDATE refuelings SET consumption_rate = ? WHERE id = ?",
			nullFloat(rate), sorted[i].ID)
		if err != nil {
			return fmt.Errorf("updating rate of %s: %w", sorted[i].ID, err)
		}
	}
	return nil
}

func getRefueling(q querier, id string) (model.Refueling, error) {
	row := q.QueryRow(`SELECT `+refuelingColumns+` FROM refuelings WHERE id = ?`, id)
	r, err := scanRefueling(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Refueling{}, fmt.Errorf("refueling %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Refueling{}, fmt.Errorf("loading refueling %s: %w", id, err)
	}
	return r, nil
}

func loadRefuelings(q querier, vehicleID string) ([]model.Refueling, error) {
	rows, err := q.Query(`SELECT `+refuelingColumns+` FROM refuelings
		WHERE vehicle_id = ? ORDER BY date, mileage, id`, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("loading refuelings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Refueling
	for rows.Next() {
		r, err := scanRefueling(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	fuel.Sort(out)
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRefueling(sc scanner) (model.Refueling, error) {
	var r model.Refueling
	var date string
	var full int
	var cost, rate sql.NullFloat64
	if err := sc.Scan(&r.ID, &r.VehicleID, &date, &r.Mileage, &r.Volume, &r.FuelType, &full, &cost, &rate); err != nil {
		return model.Refueling{}, err
	}
	t, err := parseTime(date)
	if err != nil {
		return model.Refueling{}, fmt.Errorf("refueling %s date: %w", r.ID, err)
	}
	r.Date = t
	r.FullTank = full != 0
	r.TotalCost = floatPtr(cost)
	r.ConsumptionRate = floatPtr(rate)
	return r, nil
}
