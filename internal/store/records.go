package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/theirongolddev/carledger/internal/model"
)

const (
	consumableColumns = `id, vehicle_id, name, category, installation_mileage, installation_date,
		replacement_mileage, replacement_date, interval_mileage, interval_days, active, cost, service_cost`
	costColumns = `id, vehicle_id, date, mileage, category, tag, description, cost, service_cost`
)

// SaveConsumable inserts or updates a consumable installation and raises the
// vehicle's mileage to the installation mileage when higher. c.Category is
// normalized before it is stored.
func (s *Store) SaveConsumable(c *model.ConsumableItem) error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("consumable name is required")
	}
	if !finite(c.Cost, c.ServiceCost) || c.Cost < 0 || c.ServiceCost < 0 {
		return fmt.Errorf("consumable %s: costs must be non-negative numbers", c.Name)
	}
	c.Category = c.CategoryKey()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := requireVehicle(tx, c.VehicleID); err != nil {
		return err
	}

	_, err = tx.Exec(`INSERT OR REPLACE INTO consumables (`+consumableColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.VehicleID, c.Name, c.Category, c.InstallationMileage, formatTime(c.InstallationDate),
		nullInt(c.ReplacementMileage), nullTime(c.ReplacementDate),
		nullInt(c.IntervalMileage), nullInt(c.IntervalDays),
		boolInt(c.Active), c.Cost, c.ServiceCost,
	)
	if err != nil {
		return fmt.Errorf("saving consumable %s: %w", c.ID, err)
	}

	if err := bumpMileage(tx, c.VehicleID, c.InstallationMileage); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteConsumable removes a consumable installation.
func (s *Store) DeleteConsumable(id string) error {
	res, err := s.db.Exec("DELETE FROM consumables WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting consumable %s: %w", id, err)
	}
	return requireAffected(res, "consumable", id)
}

// SaveCostRecord inserts or updates a repair or expense. Repair records raise
// the vehicle's mileage when higher.
func (s *Store) SaveCostRecord(c *model.CostRecord) error {
	if !c.Category.Valid() {
		return fmt.Errorf("invalid cost category %q", c.Category)
	}
	if !finite(c.Cost, c.ServiceCost) || c.Cost < 0 || c.ServiceCost < 0 {
		return errors.New("cost record: costs must be non-negative numbers")
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := requireVehicle(tx, c.VehicleID); err != nil {
		return err
	}

	_, err = tx.Exec(`INSERT OR REPLACE INTO cost_records (`+costColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.VehicleID, formatTime(c.Date), c.Mileage, string(c.Category),
		c.Tag, c.Description, c.Cost, c.ServiceCost,
	)
	if err != nil {
		return fmt.Errorf("saving cost record %s: %w", c.ID, err)
	}

	if c.Category.IsRepair() {
		if err := bumpMileage(tx, c.VehicleID, c.Mileage); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DeleteCostRecord removes a repair or expense.
func (s *Store) DeleteCostRecord(id string) error {
	res, err := s.db.Exec("DELETE FROM cost_records WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting cost record %s: %w", id, err)
	}
	return requireAffected(res, "cost record", id)
}

// LoadRecords materializes every record of one vehicle.
func (s *Store) LoadRecords(vehicleID string) (model.VehicleRecords, error) {
	v, err := s.GetVehicle(vehicleID)
	if err != nil {
		return model.VehicleRecords{}, err
	}
	recs := model.VehicleRecords{Vehicle: &v}

	if recs.Refuelings, err = loadRefuelings(s.db, vehicleID); err != nil {
		return model.VehicleRecords{}, err
	}
	if recs.Consumables, err = s.loadConsumables(vehicleID); err != nil {
		return model.VehicleRecords{}, err
	}
	if recs.Costs, err = s.loadCosts(vehicleID); err != nil {
		return model.VehicleRecords{}, err
	}
	return recs, nil
}

func (s *Store) loadConsumables(vehicleID string) ([]model.ConsumableItem, error) {
	rows, err := s.db.Query(`SELECT `+consumableColumns+` FROM consumables
		WHERE vehicle_id = ? ORDER BY installation_date, id`, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("loading consumables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.ConsumableItem
	for rows.Next() {
		var c model.ConsumableItem
		var installed string
		var replacedAt sql.NullString
		var replacedKm, intervalKm, intervalDays sql.NullInt64
		var active int
		err := rows.Scan(&c.ID, &c.VehicleID, &c.Name, &c.Category, &c.InstallationMileage, &installed,
			&replacedKm, &replacedAt, &intervalKm, &intervalDays, &active, &c.Cost, &c.ServiceCost)
		if err != nil {
			return nil, err
		}

		if c.InstallationDate, err = parseTime(installed); err != nil {
			return nil, fmt.Errorf("consumable %s date: %w", c.ID, err)
		}
		if replacedAt.Valid {
			t, err := parseTime(replacedAt.String)
			if err != nil {
				return nil, fmt.Errorf("consumable %s replacement date: %w", c.ID, err)
			}
			c.ReplacementDate = &t
		}
		c.ReplacementMileage = intPtr(replacedKm)
		c.IntervalMileage = intPtr(intervalKm)
		c.IntervalDays = intPtr(intervalDays)
		c.Active = active != 0
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) loadCosts(vehicleID string) ([]model.CostRecord, error) {
	rows, err := s.db.Query(`SELECT `+costColumns+` FROM cost_records
		WHERE vehicle_id = ? ORDER BY date, id`, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("loading cost records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.CostRecord
	for rows.Next() {
		var c model.CostRecord
		var date, category string
		err := rows.Scan(&c.ID, &c.VehicleID, &date, &c.Mileage, &category,
			&c.Tag, &c.Description, &c.Cost, &c.ServiceCost)
		if err != nil {
			return nil, err
		}
		if c.Date, err = parseTime(date); err != nil {
			return nil, fmt.Errorf("cost record %s date: %w", c.ID, err)
		}
		c.Category = model.Category(category)
		out = append(out, c)
	}
	return out, rows.Err()
}
