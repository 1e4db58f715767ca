package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/carledger/internal/model"
)

// writeRecords creates a temp JSONL file and returns a DiscoveredFile for it.
func writeRecords(t *testing.T, lines ...string) DiscoveredFile {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "records.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return DiscoveredFile{Path: path, Name: "records"}
}

func TestParseFile_AllTypes(t *testing.T) {
	df := writeRecords(t,
		`{"type":"vehicle","name":"Golf","fuel_type":"gasoline","mileage":12000}`,
		`{"type":"refueling","vehicle":"Golf","date":"2024-03-01","mileage":12400,"volume":36.5,"total_cost":61.2}`,
		`{"type":"refueling","vehicle":"Golf","date":"2024-03-09T18:30:00+01:00","mileage":12600,"volume":10,"full_tank":false}`,
		`{"type":"consumable","vehicle":"Golf","name":"Engine oil","category":"Oil","date":"2024-02-10","mileage":11900,"interval_km":15000,"interval_days":365,"cost":45,"service_cost":30}`,
		`{"type":"cost","vehicle":"Golf","date":"2024-03-05","mileage":12500,"category":"breakdown","description":"alternator","cost":220,"service_cost":90}`,
		`{"type":"cost","vehicle":"Golf","date":"2024-03-06","mileage":12520,"tag":"parking","cost":4}`,
	)

	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.ParseErrors != 0 {
		t.Fatalf("ParseErrors = %d, want 0: %v", result.ParseErrors, result.Problems)
	}

	b := result.Batch
	if len(b.Vehicles) != 1 || b.Vehicles[0].CurrentMileage != 12000 {
		t.Errorf("Vehicles = %+v", b.Vehicles)
	}
	if len(b.Refuelings) != 2 {
		t.Fatalf("len(Refuelings) = %d, want 2", len(b.Refuelings))
	}
	if !b.Refuelings[0].FullTank {
		t.Error("FullTank should default to true")
	}
	if b.Refuelings[1].FullTank {
		t.Error("explicit full_tank=false ignored")
	}
	if b.Refuelings[0].TotalCost == nil || *b.Refuelings[0].TotalCost != 61.2 {
		t.Errorf("TotalCost = %v, want 61.2", b.Refuelings[0].TotalCost)
	}
	if b.Refuelings[1].TotalCost != nil {
		t.Errorf("TotalCost = %v, want nil", *b.Refuelings[1].TotalCost)
	}
	wantDate := time.Date(2024, time.March, 9, 17, 30, 0, 0, time.UTC)
	if !b.Refuelings[1].Date.Equal(wantDate) {
		t.Errorf("Date = %v, want %v", b.Refuelings[1].Date, wantDate)
	}
	if b.Refuelings[0].VehicleID != "Golf" {
		t.Errorf("VehicleID = %q, want the raw reference", b.Refuelings[0].VehicleID)
	}

	if len(b.Consumables) != 1 {
		t.Fatalf("len(Consumables) = %d, want 1", len(b.Consumables))
	}
	c := b.Consumables[0]
	if c.Category != "oil" || !c.Active || c.IntervalDays == nil || *c.IntervalDays != 365 {
		t.Errorf("consumable = %+v", c)
	}

	if len(b.Costs) != 2 {
		t.Fatalf("len(Costs) = %d, want 2", len(b.Costs))
	}
	if b.Costs[0].Category != model.CategoryBreakdown || b.Costs[0].ServiceCost != 90 {
		t.Errorf("cost[0] = %+v", b.Costs[0])
	}
	if b.Costs[1].Category != model.CategoryExpense {
		t.Errorf("cost[1].Category = %q, want expense default", b.Costs[1].Category)
	}
}

func TestParseFile_MalformedLinesCounted(t *testing.T) {
	df := writeRecords(t,
		`{"type":"vehicle","name":"Golf"}`,
		`not json at all`,
		`{"type":"refueling","vehicle":"Golf","date":"2024-03-01","mileage":100,"volume":"lots"}`,
		`{"type":"refueling","vehicle":"Golf","date":"March 1st","mileage":100,"volume":30}`,
		`{"type":"refueling","vehicle":"Golf","date":"2024-03-01","volume":30}`,
		`{"type":"refueling","vehicle":"Golf","date":"2024-03-01","mileage":100,"volume":0}`,
		`{"type":"cost","vehicle":"Golf","date":"2024-03-01","mileage":100,"category":"fuel","cost":5}`,
		`{"type":"trip","vehicle":"Golf"}`,
		``,
		`{"type":"refueling","vehicle":"Golf","date":"2024-03-02","mileage":150,"volume":30}`,
	)

	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.ParseErrors != 7 {
		t.Errorf("ParseErrors = %d, want 7", result.ParseErrors)
	}
	if len(result.Problems) != 7 || result.Problems[0].Line != 2 {
		t.Errorf("Problems = %v", result.Problems)
	}
	if len(result.Batch.Vehicles) != 1 || len(result.Batch.Refuelings) != 1 {
		t.Errorf("valid lines lost: %+v", result.Batch)
	}
}

func TestParseFile_ConsumableCategoryNormalized(t *testing.T) {
	df := writeRecords(t,
		`{"type":"consumable","vehicle":"Golf","name":"Oil change","category":"engine oil","date":"2024-02-10","mileage":11900}`,
		`{"type":"consumable","vehicle":"Golf","name":"Motor Oil","date":"2024-08-10","mileage":26900}`,
	)

	result := ParseFile(df)
	if result.Err != nil || result.ParseErrors != 0 {
		t.Fatalf("ParseFile: err=%v problems=%v", result.Err, result.Problems)
	}
	for _, c := range result.Batch.Consumables {
		if c.Category != "oil" {
			t.Errorf("%s: Category = %q, want oil", c.Name, c.Category)
		}
	}
}

func TestExtractTopLevelType_IgnoresNested(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{`{"type":"cost","vehicle":"a"}`, "cost"},
		{`{"meta":{"type":"vehicle"},"type":"refueling"}`, "refueling"},
		{`{"note":"type","type": "consumable"}`, "consumable"},
		{`{"meta":{"type":"vehicle"}}`, ""},
		{`{"type":"unknown"}`, ""},
	}
	for _, tt := range tests {
		if got := extractTopLevelType([]byte(tt.line)); got != tt.want {
			t.Errorf("extractTopLevelType(%s) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestParseFile_Missing(t *testing.T) {
	result := ParseFile(DiscoveredFile{Path: filepath.Join(t.TempDir(), "nope.jsonl")})
	if result.Err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestScanPaths(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "2024")
	if err := os.MkdirAll(nested, 0o750); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{
		filepath.Join(dir, "a.jsonl"),
		filepath.Join(nested, "b.jsonl"),
		filepath.Join(dir, "notes.txt"),
	} {
		if err := os.WriteFile(p, []byte("\n"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	files, err := ScanPaths([]string{dir, filepath.Join(dir, "a.jsonl")})
	if err != nil {
		t.Fatalf("ScanPaths: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("found %d files, want 2: %+v", len(files), files)
	}
	if files[0].Name != "b" && files[1].Name != "b" {
		t.Errorf("nested file not found: %+v", files)
	}

	if _, err := ScanPaths([]string{filepath.Join(dir, "missing")}); err == nil {
		t.Error("expected error for missing path")
	}
}

type fakeSink struct {
	vehicles map[string]model.Vehicle
	saved    []string
	reject   string
}

func (f *fakeSink) FindVehicle(ref string) (model.Vehicle, error) {
	for _, v := range f.vehicles {
		if v.ID == ref || strings.EqualFold(v.Name, ref) {
			return v, nil
		}
	}
	return model.Vehicle{}, errors.New("not found")
}

func (f *fakeSink) SaveVehicle(v *model.Vehicle) error {
	if v.ID == "" {
		v.ID = "id-" + strings.ToLower(v.Name)
	}
	f.vehicles[v.ID] = *v
	return nil
}

func (f *fakeSink) SaveRefueling(r *model.Refueling) error {
	if r.VehicleID == f.reject {
		return errors.New("rejected")
	}
	f.saved = append(f.saved, "refueling:"+r.VehicleID)
	return nil
}

func (f *fakeSink) SaveConsumable(c *model.ConsumableItem) error {
	f.saved = append(f.saved, "consumable:"+c.VehicleID)
	return nil
}

func (f *fakeSink) SaveCostRecord(c *model.CostRecord) error {
	f.saved = append(f.saved, "cost:"+c.VehicleID)
	return nil
}

func TestImport_ResolvesVehicleReferences(t *testing.T) {
	sink := &fakeSink{
		vehicles: map[string]model.Vehicle{"existing": {ID: "existing", Name: "Van"}},
		reject:   "",
	}
	b := Batch{
		Vehicles:    []model.Vehicle{{Name: "Golf"}},
		Refuelings:  []model.Refueling{{VehicleID: "golf"}, {VehicleID: "van"}, {VehicleID: "ghost"}},
		Consumables: []model.ConsumableItem{{VehicleID: "existing"}},
		Costs:       []model.CostRecord{{VehicleID: "ghost"}},
	}

	stats, err := Import(sink, b)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if stats.Vehicles != 1 || stats.Refuelings != 2 || stats.Consumables != 1 || stats.Costs != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", stats.Skipped)
	}
	want := []string{"refueling:id-golf", "refueling:existing", "consumable:existing"}
	if strings.Join(sink.saved, ",") != strings.Join(want, ",") {
		t.Errorf("saved = %v, want %v", sink.saved, want)
	}
}

func TestImport_NothingImportable(t *testing.T) {
	sink := &fakeSink{vehicles: map[string]model.Vehicle{}}
	_, err := Import(sink, Batch{Costs: []model.CostRecord{{VehicleID: "ghost"}}})
	if err == nil {
		t.Fatal("expected error when no record could be imported")
	}
}
