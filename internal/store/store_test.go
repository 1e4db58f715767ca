package store

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/carledger/internal/fuel"
	"github.com/theirongolddev/carledger/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newVehicle(t *testing.T, s *Store) model.Vehicle {
	t.Helper()
	v := model.Vehicle{Name: "Golf", FuelType: "gasoline", CurrentMileage: 900}
	if err := s.SaveVehicle(&v); err != nil {
		t.Fatalf("SaveVehicle: %v", err)
	}
	if v.ID == "" {
		t.Fatal("SaveVehicle did not assign an ID")
	}
	return v
}

func date(d int) time.Time {
	return time.Date(2024, time.March, d, 9, 0, 0, 0, time.UTC)
}

func fill(vehicleID string, d, km int, liters float64, full bool) *model.Refueling {
	return &model.Refueling{VehicleID: vehicleID, Date: date(d), Mileage: km, Volume: liters, FullTank: full}
}

func save(t *testing.T, s *Store, r *model.Refueling) {
	t.Helper()
	if err := s.SaveRefueling(r); err != nil {
		t.Fatalf("SaveRefueling: %v", err)
	}
}

func rates(t *testing.T, s *Store, vehicleID string) []*float64 {
	t.Helper()
	events, err := s.Refuelings(vehicleID)
	if err != nil {
		t.Fatalf("Refuelings: %v", err)
	}
	out := make([]*float64, len(events))
	for i, ev := range events {
		out[i] = ev.ConsumptionRate
	}
	return out
}

func assertRates(t *testing.T, got []*float64, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d rates, want %d", len(got), len(want))
	}
	for i := range want {
		switch {
		case want[i] < 0 && got[i] != nil:
			t.Errorf("rate[%d] = %v, want nil", i, *got[i])
		case want[i] >= 0 && got[i] == nil:
			t.Errorf("rate[%d] = nil, want %v", i, want[i])
		case want[i] >= 0 && *got[i] != want[i]:
			t.Errorf("rate[%d] = %v, want %v", i, *got[i], want[i])
		}
	}
}

// none marks an expected nil rate.
const none = -1

func TestStore_VehicleRoundTrip(t *testing.T) {
	s := openTestStore(t)
	v := newVehicle(t, s)

	got, err := s.GetVehicle(v.ID)
	if err != nil {
		t.Fatalf("GetVehicle: %v", err)
	}
	if got != v {
		t.Errorf("GetVehicle = %+v, want %+v", got, v)
	}

	byName, err := s.FindVehicle("golf")
	if err != nil {
		t.Fatalf("FindVehicle: %v", err)
	}
	if byName.ID != v.ID {
		t.Errorf("FindVehicle ID = %s, want %s", byName.ID, v.ID)
	}

	if _, err := s.GetVehicle("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetVehicle(missing) err = %v, want ErrNotFound", err)
	}
}

func TestStore_SaveVehicleNeverLowersMileage(t *testing.T) {
	s := openTestStore(t)
	v := newVehicle(t, s)

	v.CurrentMileage = 100
	v.Name = "Golf GTI"
	if err := s.SaveVehicle(&v); err != nil {
		t.Fatalf("SaveVehicle: %v", err)
	}
	got, _ := s.GetVehicle(v.ID)
	if got.CurrentMileage != 900 {
		t.Errorf("CurrentMileage = %d, want 900", got.CurrentMileage)
	}
	if got.Name != "Golf GTI" {
		t.Errorf("Name = %q, want updated name", got.Name)
	}
}

func TestStore_RefuelingRates(t *testing.T) {
	s := openTestStore(t)
	v := newVehicle(t, s)

	save(t, s, fill(v.ID, 1, 1000, 40, true))
	r2 := fill(v.ID, 10, 1400, 36, true)
	save(t, s, r2)
	save(t, s, fill(v.ID, 20, 1900, 45, true))

	if r2.ConsumptionRate == nil || *r2.ConsumptionRate != 9 {
		t.Errorf("returned rate = %v, want 9", r2.ConsumptionRate)
	}
	assertRates(t, rates(t, s, v.ID), []float64{none, 9, 9})
}

func TestStore_RetroactiveInsertRecomputesNext(t *testing.T) {
	s := openTestStore(t)
	v := newVehicle(t, s)

	save(t, s, fill(v.ID, 1, 1000, 40, true))
	save(t, s, fill(v.ID, 20, 1500, 30, true))
	assertRates(t, rates(t, s, v.ID), []float64{none, 6})

	// Inserted between the two, it takes over as predecessor.
	save(t, s, fill(v.ID, 10, 1200, 20, true))
	assertRates(t, rates(t, s, v.ID), []float64{none, 10, 10})
}

func TestStore_PartialFillDoesNotAlterNextRate(t *testing.T) {
	s := openTestStore(t)
	v := newVehicle(t, s)

	save(t, s, fill(v.ID, 1, 1000, 40, true))
	save(t, s, fill(v.ID, 20, 1500, 30, true))
	save(t, s, fill(v.ID, 10, 1200, 15, false))

	assertRates(t, rates(t, s, v.ID), []float64{none, none, 6})
}

func TestStore_EditRecomputesOldAndNewPosition(t *testing.T) {
	s := openTestStore(t)
	v := newVehicle(t, s)

	save(t, s, fill(v.ID, 1, 1000, 40, true))
	moved := fill(v.ID, 10, 1200, 20, true)
	save(t, s, moved)
	save(t, s, fill(v.ID, 20, 1500, 30, true))
	save(t, s, fill(v.ID, 28, 1800, 24, true))
	assertRates(t, rates(t, s, v.ID), []float64{none, 10, 10, 8})

	// Move the second fill-up after the last one.
	moved.Date = date(30)
	moved.Mileage = 2000
	save(t, s, moved)

	// 1000 -> 1500: 30/500; 1500 -> 1800: 24/300; 1800 -> 2000: 20/200.
	assertRates(t, rates(t, s, v.ID), []float64{none, 6, 8, 10})
}

func TestStore_EditOntoTiedFullTank(t *testing.T) {
	s := openTestStore(t)
	v := newVehicle(t, s)

	moved := fill(v.ID, 1, 1000, 40, true)
	save(t, s, moved)
	save(t, s, fill(v.ID, 5, 1400, 36, true))
	assertRates(t, rates(t, s, v.ID), []float64{none, 9})

	// Landing on the other fill-up's date and odometer leaves no distance
	// for either of them.
	moved.Date = date(5)
	moved.Mileage = 1400
	save(t, s, moved)

	events, err := s.Refuelings(v.ID)
	if err != nil {
		t.Fatalf("Refuelings: %v", err)
	}
	fresh := fuel.Calculate(events)
	for i := range events {
		if (events[i].ConsumptionRate == nil) != (fresh[i].ConsumptionRate == nil) {
			t.Errorf("event %d (%s): stored rate %v disagrees with recomputed %v",
				i, events[i].ID, events[i].ConsumptionRate, fresh[i].ConsumptionRate)
		}
	}
	assertRates(t, rates(t, s, v.ID), []float64{none, none})
}

func TestStore_RefuelingTiesLoadInIDOrder(t *testing.T) {
	s := openTestStore(t)
	v := newVehicle(t, s)

	for _, id := range []string{"c", "a", "b"} {
		r := fill(v.ID, 5, 1400, 30, true)
		r.ID = id
		save(t, s, r)
	}

	events, err := s.Refuelings(v.ID)
	if err != nil {
		t.Fatalf("Refuelings: %v", err)
	}
	for i, want := range []string{"a", "b", "c"} {
		if events[i].ID != want {
			t.Errorf("events[%d].ID = %q, want %q", i, events[i].ID, want)
		}
	}
}

func TestStore_EditToPartialClearsRate(t *testing.T) {
	s := openTestStore(t)
	v := newVehicle(t, s)

	save(t, s, fill(v.ID, 1, 1000, 40, true))
	mid := fill(v.ID, 10, 1200, 20, true)
	save(t, s, mid)
	save(t, s, fill(v.ID, 20, 1500, 30, true))

	mid.FullTank = false
	save(t, s, mid)

	assertRates(t, rates(t, s, v.ID), []float64{none, none, 6})
}

func TestStore_DeleteRecomputesNext(t *testing.T) {
	s := openTestStore(t)
	v := newVehicle(t, s)

	save(t, s, fill(v.ID, 1, 1000, 40, true))
	mid := fill(v.ID, 10, 1200, 20, true)
	save(t, s, mid)
	save(t, s, fill(v.ID, 20, 1500, 30, true))

	if err := s.DeleteRefueling(mid.ID); err != nil {
		t.Fatalf("DeleteRefueling: %v", err)
	}
	assertRates(t, rates(t, s, v.ID), []float64{none, 6})

	if err := s.DeleteRefueling(mid.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestStore_MileageOnlyIncreases(t *testing.T) {
	s := openTestStore(t)
	v := newVehicle(t, s)

	save(t, s, fill(v.ID, 5, 1500, 40, true))
	save(t, s, fill(v.ID, 1, 1000, 40, true))

	err := s.SaveCostRecord(&model.CostRecord{
		VehicleID: v.ID, Date: date(6), Mileage: 1600, Category: model.CategoryBreakdown, Cost: 80,
	})
	if err != nil {
		t.Fatalf("SaveCostRecord: %v", err)
	}
	err = s.SaveCostRecord(&model.CostRecord{
		VehicleID: v.ID, Date: date(7), Mileage: 5000, Category: model.CategoryExpense, Cost: 10,
	})
	if err != nil {
		t.Fatalf("SaveCostRecord: %v", err)
	}
	err = s.SaveConsumable(&model.ConsumableItem{
		VehicleID: v.ID, Name: "Oil", InstallationDate: date(2), InstallationMileage: 1100, Active: true,
	})
	if err != nil {
		t.Fatalf("SaveConsumable: %v", err)
	}

	got, _ := s.GetVehicle(v.ID)
	if got.CurrentMileage != 1600 {
		t.Errorf("CurrentMileage = %d, want 1600", got.CurrentMileage)
	}
}

func TestStore_LoadRecords(t *testing.T) {
	s := openTestStore(t)
	v := newVehicle(t, s)

	save(t, s, fill(v.ID, 1, 1000, 40, true))
	interval := 10000
	replacedAt := date(3)
	replacedKm := 1050
	err := s.SaveConsumable(&model.ConsumableItem{
		VehicleID: v.ID, Name: "Oil", Category: "oil", InstallationDate: date(2), InstallationMileage: 1020,
		IntervalMileage: &interval, ReplacementDate: &replacedAt, ReplacementMileage: &replacedKm,
		Active: true, Cost: 40, ServiceCost: 15,
	})
	if err != nil {
		t.Fatalf("SaveConsumable: %v", err)
	}
	err = s.SaveCostRecord(&model.CostRecord{
		VehicleID: v.ID, Date: date(4), Mileage: 1080, Category: model.CategoryExpense, Tag: "parking", Cost: 5,
	})
	if err != nil {
		t.Fatalf("SaveCostRecord: %v", err)
	}

	recs, err := s.LoadRecords(v.ID)
	if err != nil {
		t.Fatalf("LoadRecords: %v", err)
	}
	if recs.Vehicle == nil || recs.Vehicle.ID != v.ID {
		t.Fatalf("Vehicle = %+v", recs.Vehicle)
	}
	if len(recs.Refuelings) != 1 || len(recs.Consumables) != 1 || len(recs.Costs) != 1 {
		t.Fatalf("counts = %d/%d/%d, want 1/1/1", len(recs.Refuelings), len(recs.Consumables), len(recs.Costs))
	}

	c := recs.Consumables[0]
	if c.IntervalMileage == nil || *c.IntervalMileage != 10000 {
		t.Errorf("IntervalMileage = %v, want 10000", c.IntervalMileage)
	}
	if c.IntervalDays != nil {
		t.Errorf("IntervalDays = %v, want nil", *c.IntervalDays)
	}
	if c.ReplacementDate == nil || !c.ReplacementDate.Equal(replacedAt) {
		t.Errorf("ReplacementDate = %v, want %v", c.ReplacementDate, replacedAt)
	}
	if !c.InstallationDate.Equal(date(2)) {
		t.Errorf("InstallationDate = %v, want %v", c.InstallationDate, date(2))
	}
	if recs.Costs[0].Category != model.CategoryExpense || recs.Costs[0].Tag != "parking" {
		t.Errorf("cost record = %+v", recs.Costs[0])
	}

	if _, err := s.LoadRecords("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadRecords(missing) err = %v, want ErrNotFound", err)
	}
}

func TestStore_SaveConsumableNormalizesCategory(t *testing.T) {
	s := openTestStore(t)
	v := newVehicle(t, s)

	items := []*model.ConsumableItem{
		{VehicleID: v.ID, Name: "Oil change", Category: "Engine Oil", InstallationDate: date(2), InstallationMileage: 1000, Active: true},
		{VehicleID: v.ID, Name: "Motor oil", InstallationDate: date(9), InstallationMileage: 1500, Active: true},
	}
	for _, it := range items {
		if err := s.SaveConsumable(it); err != nil {
			t.Fatalf("SaveConsumable: %v", err)
		}
	}

	recs, err := s.LoadRecords(v.ID)
	if err != nil {
		t.Fatalf("LoadRecords: %v", err)
	}
	if len(recs.Consumables) != 2 {
		t.Fatalf("len(Consumables) = %d, want 2", len(recs.Consumables))
	}
	for _, c := range recs.Consumables {
		if c.Category != "oil" {
			t.Errorf("%s: stored category %q, want oil", c.Name, c.Category)
		}
	}
}

func TestStore_Validation(t *testing.T) {
	s := openTestStore(t)
	v := newVehicle(t, s)

	if err := s.SaveRefueling(fill(v.ID, 1, 1000, 0, true)); err == nil {
		t.Error("zero volume accepted")
	}
	if err := s.SaveRefueling(fill("missing", 1, 1000, 10, true)); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown vehicle err = %v, want ErrNotFound", err)
	}
	if err := s.SaveCostRecord(&model.CostRecord{VehicleID: v.ID, Category: "fuel"}); err == nil {
		t.Error("fuel category accepted on cost record")
	}

	nan := math.NaN()
	if err := s.SaveRefueling(fill(v.ID, 1, 1000, nan, true)); err == nil {
		t.Error("NaN volume accepted")
	}
	bad := fill(v.ID, 1, 1000, 30, true)
	inf := math.Inf(1)
	bad.TotalCost = &inf
	if err := s.SaveRefueling(bad); err == nil {
		t.Error("infinite refueling cost accepted")
	}
	err := s.SaveCostRecord(&model.CostRecord{VehicleID: v.ID, Category: model.CategoryExpense, Cost: nan})
	if err == nil {
		t.Error("NaN cost record accepted")
	}
	err = s.SaveConsumable(&model.ConsumableItem{VehicleID: v.ID, Name: "Oil", ServiceCost: inf})
	if err == nil {
		t.Error("infinite consumable cost accepted")
	}
}

func TestStore_DeleteVehicleCascades(t *testing.T) {
	s := openTestStore(t)
	v := newVehicle(t, s)
	save(t, s, fill(v.ID, 1, 1000, 40, true))

	if err := s.DeleteVehicle(v.ID); err != nil {
		t.Fatalf("DeleteVehicle: %v", err)
	}
	c, err := s.Counts()
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if c.Vehicles != 0 || c.Refuelings != 0 {
		t.Errorf("Counts = %+v, want empty", c)
	}
}
