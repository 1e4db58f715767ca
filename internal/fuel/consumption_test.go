package fuel

import (
	"math"
	"testing"
	"time"

	"github.com/theirongolddev/carledger/internal/model"
)

var base = time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC)

func refuel(id string, day, mileage int, volume float64, full bool) model.Refueling {
	return model.Refueling{
		ID:       id,
		Date:     base.AddDate(0, 0, day),
		Mileage:  mileage,
		Volume:   volume,
		FuelType: "gasoline",
		FullTank: full,
	}
}

func assertRate(t *testing.T, ev model.Refueling, want *float64) {
	t.Helper()
	switch {
	case want == nil && ev.ConsumptionRate != nil:
		t.Errorf("%s: rate = %v, want nil", ev.ID, *ev.ConsumptionRate)
	case want != nil && ev.ConsumptionRate == nil:
		t.Errorf("%s: rate = nil, want %v", ev.ID, *want)
	case want != nil && math.Abs(*ev.ConsumptionRate-*want) > 1e-9:
		t.Errorf("%s: rate = %v, want %v", ev.ID, *ev.ConsumptionRate, *want)
	}
}

func f(v float64) *float64 { return &v }

func TestCalculate_FullTanks(t *testing.T) {
	got := Calculate([]model.Refueling{
		refuel("a", 0, 1000, 40, true),
		refuel("b", 10, 1400, 36, true),
		refuel("c", 20, 1900, 45, true),
	})

	assertRate(t, got[0], nil)
	assertRate(t, got[1], f(9.0))
	assertRate(t, got[2], f(9.0))
}

func TestCalculate_SortsInput(t *testing.T) {
	got := Calculate([]model.Refueling{
		refuel("c", 20, 1900, 45, true),
		refuel("a", 0, 1000, 40, true),
		refuel("b", 10, 1400, 36, true),
	})

	if got[0].ID != "a" || got[1].ID != "b" || got[2].ID != "c" {
		t.Fatalf("order = %s,%s,%s; want a,b,c", got[0].ID, got[1].ID, got[2].ID)
	}
	assertRate(t, got[2], f(9.0))
}

func TestCalculate_PartialFillSkipped(t *testing.T) {
	without := Calculate([]model.Refueling{
		refuel("a", 0, 1000, 40, true),
		refuel("c", 20, 1900, 45, true),
	})
	with := Calculate([]model.Refueling{
		refuel("a", 0, 1000, 40, true),
		refuel("p", 10, 1400, 20, false),
		refuel("c", 20, 1900, 45, true),
	})

	assertRate(t, with[1], nil)
	assertRate(t, with[2], without[1].ConsumptionRate)
	assertRate(t, with[2], f(5.0))
}

func TestCalculate_NonPositiveDistance(t *testing.T) {
	got := Calculate([]model.Refueling{
		refuel("a", 0, 1000, 40, true),
		refuel("b", 1, 1000, 30, true),
		refuel("c", 2, 900, 30, true),
	})

	assertRate(t, got[1], nil)
	assertRate(t, got[2], nil)
}

func TestCalculate_ClearsStaleRates(t *testing.T) {
	stale := refuel("a", 0, 1000, 40, false)
	stale.ConsumptionRate = f(12)

	got := Calculate([]model.Refueling{stale})
	assertRate(t, got[0], nil)
}

func TestSort_TieBrokenByMileage(t *testing.T) {
	events := []model.Refueling{
		refuel("late", 0, 1200, 10, true),
		refuel("early", 0, 1100, 10, true),
	}
	Sort(events)
	if events[0].ID != "early" {
		t.Errorf("first = %s, want early", events[0].ID)
	}
}

func TestRate_MatchesCalculate(t *testing.T) {
	sorted := Calculate([]model.Refueling{
		refuel("a", 0, 1000, 40, true),
		refuel("p", 5, 1200, 15, false),
		refuel("b", 10, 1400, 36, true),
	})
	for i := range sorted {
		assertRate(t, model.Refueling{ID: sorted[i].ID, ConsumptionRate: Rate(sorted, i)}, sorted[i].ConsumptionRate)
	}
	if Rate(sorted, -1) != nil || Rate(sorted, 10) != nil {
		t.Error("Rate out of range should be nil")
	}
}

func TestDependents(t *testing.T) {
	sorted := Calculate([]model.Refueling{
		refuel("a", 0, 1000, 40, true),
		refuel("p", 5, 1200, 15, false),
		refuel("b", 10, 1400, 36, true),
		refuel("c", 20, 1900, 45, true),
	})

	tests := []struct {
		name  string
		pivot model.Refueling
		want  []int
	}{
		{"edited full tank", sorted[0], []int{0, 2}},
		{"edited partial fill", sorted[1], []int{2}},
		{"last event", sorted[3], []int{3}},
		{"deleted event", refuel("gone", 12, 1500, 10, true), []int{3}},
	}
	for _, tt := range tests {
		got := Dependents(sorted, tt.pivot)
		if len(got) != len(tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
				break
			}
		}
	}
}

func TestDependents_TiedEvents(t *testing.T) {
	sorted := Calculate([]model.Refueling{
		refuel("a", 0, 1000, 40, true),
		refuel("t1", 5, 1400, 36, true),
		refuel("t2", 5, 1400, 20, true),
		refuel("c", 10, 1900, 45, true),
	})

	tests := []struct {
		name  string
		pivot model.Refueling
		want  []int
	}{
		{"present pivot reaches tied successor", sorted[1], []int{1, 2}},
		{"deleted pivot among ties", refuel("", 5, 1400, 10, true), []int{1, 2, 3}},
	}
	for _, tt := range tests {
		got := Dependents(sorted, tt.pivot)
		if len(got) != len(tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
				break
			}
		}
	}
}

func TestRetroactiveInsertChangesNextRate(t *testing.T) {
	events := []model.Refueling{
		refuel("a", 0, 1000, 40, true),
		refuel("c", 20, 1900, 45, true),
	}
	before := Calculate(events)
	assertRate(t, before[1], f(5.0))

	events = append(events, refuel("b", 10, 1400, 36, true))
	after := Calculate(events)
	assertRate(t, after[2], f(9.0))
}

func TestAverageByFuelType(t *testing.T) {
	events := Calculate([]model.Refueling{
		refuel("a", 0, 1000, 40, true),
		refuel("b", 10, 1400, 36, true),
		refuel("c", 20, 1900, 40, true),
	})
	diesel := refuel("d", 30, 2000, 5, true)
	diesel.FuelType = "diesel"
	events = append(events, diesel)

	avg := AverageByFuelType(events)
	if math.Abs(avg["gasoline"]-8.5) > 1e-9 {
		t.Errorf("gasoline avg = %v, want 8.5", avg["gasoline"])
	}
	if _, ok := avg["diesel"]; ok {
		t.Error("diesel has no computed rates and should be absent")
	}
}

func TestAverage(t *testing.T) {
	if Average(nil) != nil {
		t.Error("Average(nil) should be nil")
	}
	got := Average([]model.Refueling{{ConsumptionRate: f(8)}, {}, {ConsumptionRate: f(10)}})
	if got == nil || *got != 9 {
		t.Errorf("Average = %v, want 9", got)
	}
}
