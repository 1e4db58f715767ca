// Package store provides SQLite-backed persistence for vehicles and their records.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/carledger/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

const timeLayout = time.RFC3339Nano

// Store is the record store. All writes that touch refuelings keep the
// derived consumption rates of neighboring fill-ups current.
type Store struct {
	db *sql.DB
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Open opens or creates the database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveVehicle inserts or updates v, assigning an ID when empty. An update
// never lowers the stored mileage.
func (s *Store) SaveVehicle(v *model.Vehicle) error {
	if strings.TrimSpace(v.Name) == "" {
		return errors.New("vehicle name is required")
	}
	if v.ID == "" {
		v.ID = uuid.NewString()
	}

	_, err := s.db.Exec(`INSERT INTO vehicles (id, name, fuel_type, current_mileage, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			fuel_type = excluded.fuel_type,
			current_mileage = MAX(vehicles.current_mileage, excluded.current_mileage)`,
		v.ID, v.Name, v.FuelType, v.CurrentMileage, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving vehicle %s: %w", v.ID, err)
	}
	return nil
}

// GetVehicle returns the vehicle with the given ID.
func (s *Store) GetVehicle(id string) (model.Vehicle, error) {
	return getVehicle(s.db, id)
}

func getVehicle(q querier, id string) (model.Vehicle, error) {
	var v model.Vehicle
	err := q.QueryRow(`SELECT id, name, fuel_type, current_mileage FROM vehicles WHERE id = ?`, id).
		Scan(&v.ID, &v.Name, &v.FuelType, &v.CurrentMileage)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Vehicle{}, fmt.Errorf("vehicle %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Vehicle{}, fmt.Errorf("loading vehicle %s: %w", id, err)
	}
	return v, nil
}

// FindVehicle resolves ref as a vehicle ID first, then as a case-insensitive name.
func (s *Store) FindVehicle(ref string) (model.Vehicle, error) {
	v, err := s.GetVehicle(ref)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return v, err
	}

	err = s.db.QueryRow(`SELECT id, name, fuel_type, current_mileage FROM vehicles
		WHERE name = ? COLLATE NOCASE ORDER BY created_at LIMIT 1`, ref).
		Scan(&v.ID, &v.Name, &v.FuelType, &v.CurrentMileage)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Vehicle{}, fmt.Errorf("vehicle %q: %w", ref, ErrNotFound)
	}
	if err != nil {
		return model.Vehicle{}, fmt.Errorf("finding vehicle %q: %w", ref, err)
	}
	return v, nil
}

// ListVehicles returns every vehicle ordered by name.
func (s *Store) ListVehicles() ([]model.Vehicle, error) {
	rows, err := s.db.Query(`SELECT id, name, fuel_type, current_mileage FROM vehicles ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("listing vehicles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var vehicles []model.Vehicle
	for rows.Next() {
		var v model.Vehicle
		if err := rows.Scan(&v.ID, &v.Name, &v.FuelType, &v.CurrentMileage); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

// DeleteVehicle removes a vehicle and, through cascading keys, all its records.
func (s *Store) DeleteVehicle(id string) error {
	res, err := s.db.Exec("DELETE FROM vehicles WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting vehicle %s: %w", id, err)
	}
	return requireAffected(res, "vehicle", id)
}

// bumpMileage raises the vehicle's mileage to reported if it is higher.
func bumpMileage(q querier, vehicleID string, reported int) error {
	_, err := q.Exec(`UPDATE vehicles SET current_mileage = MAX(current_mileage, ?) WHERE id = ?`,
		reported, vehicleID)
	if err != nil {
		return fmt.Errorf("updating mileage of %s: %w", vehicleID, err)
	}
	return nil
}

func requireVehicle(q querier, id string) error {
	_, err := getVehicle(q, id)
	return err
}

func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

// Counts reports how many rows each record table holds.
type Counts struct {
	Vehicles    int
	Refuelings  int
	Consumables int
	CostRecords int
}

// Counts returns row counts for every table.
func (s *Store) Counts() (Counts, error) {
	var c Counts
	err := s.db.QueryRow(`SELECT
		(SELECT COUNT(*) FROM vehicles),
		(SELECT COUNT(*) FROM refuelings),
		(SELECT COUNT(*) FROM consumables),
		(SELECT COUNT(*) FROM cost_records)`).
		Scan(&c.Vehicles, &c.Refuelings, &c.Consumables, &c.CostRecords)
	return c, err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// finite reports whether every amount is a real number.
func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func nullTime(p *time.Time) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*p), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
