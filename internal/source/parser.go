// Package source discovers and parses JSONL vehicle record files.
package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/theirongolddev/carledger/internal/model"
)

const dateLayout = "2006-01-02"

// LineError describes why one line was rejected.
type LineError struct {
	Line int
	Err  error
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// ParseResult holds the output of parsing a record file.
type ParseResult struct {
	Batch       Batch
	ParseErrors int
	Problems    []LineError
	Err         error
}

// ParseFile reads a JSONL record file.
func ParseFile(df DiscoveredFile) ParseResult {
	f, err := os.Open(df.Path)
	if err != nil {
		return ParseResult{Err: err}
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

// Parse reads JSONL records from r. Blank lines are ignored. Lines that are
// not valid JSON, carry an unknown "type", or fail validation are counted in
// ParseErrors and skipped; every other line becomes a record.
//
// Entry routing by top-level "type" field:
//   - "vehicle"    → model.Vehicle
//   - "refueling"  → model.Refueling
//   - "consumable" → model.ConsumableItem
//   - "cost"       → model.CostRecord
func Parse(r io.Reader) ParseResult {
	var res ParseResult
	reject := func(line int, err error) {
		res.ParseErrors++
		res.Problems = append(res.Problems, LineError{Line: line, Err: err})
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		entryType := extractTopLevelType(line)
		if entryType == "" {
			reject(lineNo, errors.New("missing or unknown record type"))
			continue
		}

		var entry RawEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			reject(lineNo, err)
			continue
		}

		var err error
		switch entryType {
		case "vehicle":
			var v model.Vehicle
			if v, err = toVehicle(entry); err == nil {
				res.Batch.Vehicles = append(res.Batch.Vehicles, v)
			}
		case "refueling":
			var ev model.Refueling
			if ev, err = toRefueling(entry); err == nil {
				res.Batch.Refuelings = append(res.Batch.Refuelings, ev)
			}
		case "consumable":
			var it model.ConsumableItem
			if it, err = toConsumable(entry); err == nil {
				res.Batch.Consumables = append(res.Batch.Consumables, it)
			}
		case "cost":
			var c model.CostRecord
			if c, err = toCost(entry); err == nil {
				res.Batch.Costs = append(res.Batch.Costs, c)
			}
		}
		if err != nil {
			reject(lineNo, err)
		}
	}

	if err := scanner.Err(); err != nil {
		res.Err = err
	}
	return res
}

// ParseAll parses every file and merges the batches. A file that cannot be
// read aborts with its error.
func ParseAll(files []DiscoveredFile) ParseResult {
	var all ParseResult
	for _, df := range files {
		res := ParseFile(df)
		if res.Err != nil {
			return ParseResult{Err: fmt.Errorf("%s: %w", df.Path, res.Err)}
		}
		all.Batch.merge(res.Batch)
		all.ParseErrors += res.ParseErrors
		all.Problems = append(all.Problems, res.Problems...)
	}
	return all
}

func toVehicle(e RawEntry) (model.Vehicle, error) {
	name := strings.TrimSpace(e.Name)
	if name == "" {
		return model.Vehicle{}, errors.New("vehicle: name is required")
	}
	v := model.Vehicle{ID: e.ID, Name: name, FuelType: e.FuelType}
	if e.Mileage != nil {
		if *e.Mileage < 0 {
			return model.Vehicle{}, errors.New("vehicle: mileage must not be negative")
		}
		v.CurrentMileage = *e.Mileage
	}
	return v, nil
}

func toRefueling(e RawEntry) (model.Refueling, error) {
	date, km, err := common(e)
	if err != nil {
		return model.Refueling{}, fmt.Errorf("refueling: %w", err)
	}
	if e.Volume == nil || *e.Volume <= 0 {
		return model.Refueling{}, errors.New("refueling: volume must be positive")
	}
	if e.TotalCost != nil && *e.TotalCost < 0 {
		return model.Refueling{}, errors.New("refueling: total_cost must not be negative")
	}
	return model.Refueling{
		ID:        e.ID,
		VehicleID: e.Vehicle,
		Date:      date,
		Mileage:   km,
		Volume:    *e.Volume,
		FuelType:  e.FuelType,
		FullTank:  e.FullTank == nil || *e.FullTank,
		TotalCost: e.TotalCost,
	}, nil
}

func toConsumable(e RawEntry) (model.ConsumableItem, error) {
	date, km, err := common(e)
	if err != nil {
		return model.ConsumableItem{}, fmt.Errorf("consumable: %w", err)
	}
	if strings.TrimSpace(e.Name) == "" {
		return model.ConsumableItem{}, errors.New("consumable: name is required")
	}
	if e.Cost < 0 || e.ServiceCost < 0 {
		return model.ConsumableItem{}, errors.New("consumable: costs must not be negative")
	}

	it := model.ConsumableItem{
		ID:                  e.ID,
		VehicleID:           e.Vehicle,
		Name:                strings.TrimSpace(e.Name),
		Category:            e.Category,
		InstallationMileage: km,
		InstallationDate:    date,
		ReplacementMileage:  e.ReplacedMileage,
		IntervalMileage:     e.IntervalKm,
		IntervalDays:        e.IntervalDays,
		Active:              e.Active == nil || *e.Active,
		Cost:                e.Cost,
		ServiceCost:         e.ServiceCost,
	}
	if e.ReplacedDate != "" {
		t, err := parseDate(e.ReplacedDate)
		if err != nil {
			return model.ConsumableItem{}, fmt.Errorf("consumable: replaced_date: %w", err)
		}
		it.ReplacementDate = &t
	}
	it.Category = it.CategoryKey()
	return it, nil
}

func toCost(e RawEntry) (model.CostRecord, error) {
	date, km, err := common(e)
	if err != nil {
		return model.CostRecord{}, fmt.Errorf("cost: %w", err)
	}
	cat := model.Category(strings.ToLower(strings.TrimSpace(e.Category)))
	if cat == "" {
		cat = model.CategoryExpense
	}
	if !cat.Valid() {
		return model.CostRecord{}, fmt.Errorf("cost: invalid category %q", e.Category)
	}
	if e.Cost < 0 || e.ServiceCost < 0 {
		return model.CostRecord{}, errors.New("cost: costs must not be negative")
	}
	return model.CostRecord{
		ID:          e.ID,
		VehicleID:   e.Vehicle,
		Date:        date,
		Mileage:     km,
		Category:    cat,
		Tag:         strings.TrimSpace(e.Tag),
		Description: e.Description,
		Cost:        e.Cost,
		ServiceCost: e.ServiceCost,
	}, nil
}

// common validates the fields every vehicle-owned record needs.
func common(e RawEntry) (time.Time, int, error) {
	if strings.TrimSpace(e.Vehicle) == "" {
		return time.Time{}, 0, errors.New("vehicle is required")
	}
	if e.Mileage == nil || *e.Mileage < 0 {
		return time.Time{}, 0, errors.New("mileage is required and must not be negative")
	}
	date, err := parseDate(e.Date)
	if err != nil {
		return time.Time{}, 0, err
	}
	return date, *e.Mileage, nil
}

// parseDate accepts RFC 3339 timestamps and bare dates, the latter in local time.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("date is required")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

// typeKey is the byte sequence for a JSON key named "type" (with quotes).
var typeKey = []byte(`"type"`)

// extractTopLevelType finds the top-level "type" field in a JSONL line.
// Tracks brace depth and string boundaries so nested "type" keys are ignored.
func extractTopLevelType(line []byte) string {
	depth := 0
	for i := 0; i < len(line); {
		switch line[i] {
		case '"':
			if depth == 1 && bytes.HasPrefix(line[i:], typeKey) {
				val, isKey := classifyType(line, i+len(typeKey))
				if isKey {
					return val
				}
			}
			i = skipJSONString(line, i)
		case '{':
			depth++
			i++
		case '}':
			depth--
			i++
		default:
			i++
		}
	}
	return ""
}

// classifyType checks whether pos follows a JSON key (expects : then value).
// isKey=false means "type" appeared as a value and scanning should continue.
func classifyType(line []byte, pos int) (val string, isKey bool) {
	i := skipSpaces(line, pos)
	if i >= len(line) || line[i] != ':' {
		return "", false
	}
	i = skipSpaces(line, i+1)
	if i >= len(line) || line[i] != '"' {
		return "", true
	}
	i++

	end := bytes.IndexByte(line[i:], '"')
	if end < 0 || end > 20 {
		return "", true
	}
	v := string(line[i : i+end])
	switch v {
	case "vehicle", "refueling", "consumable", "cost":
		return v, true
	}
	return "", true
}

// skipJSONString advances past a JSON string starting at the opening quote.
//
//nolint:gosec // manual bounds checking throughout
func skipJSONString(line []byte, i int) int {
	i++
	for i < len(line) {
		switch line[i] {
		case '\\':
			i += 2
		case '"':
			return i + 1
		default:
			i++
		}
	}
	return i
}

func skipSpaces(line []byte, i int) int {
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return i
}
