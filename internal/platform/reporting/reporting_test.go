package reporting

import (
	"strings"
	"testing"
)

func TestPredefinedMeasures(t *testing.T) {
	expectedIDs := []string{
		"doctors-by-department",
		"appointments-by-status",
		"revenue-by-payment-status",
		"treatments-by-status",
	}
	if len(PredefinedMeasures) != len(expectedIDs) {
		t.Fatalf("expected %d predefined measures, got %d", len(expectedIDs), len(PredefinedMeasures))
	}

	for i, expectedID := range expectedIDs {
		if PredefinedMeasures[i].ID != expectedID {
			t.Errorf("expected measure[%d].ID = %s, got %s", i, expectedID, PredefinedMeasures[i].ID)
		}
	}
}

func TestPredefinedMeasures_HaveSQL(t *testing.T) {
	for _, m := range PredefinedMeasures {
		if m.SQL == "" {
			t.Errorf("measure %s has empty SQL", m.ID)
		}
		if m.Name == "" {
			t.Errorf("measure %s has empty name", m.ID)
		}
		if m.Description == "" {
			t.Errorf("measure %s has empty description", m.ID)
		}
	}
}

func TestPredefinedMeasures_AreAggregates(t *testing.T) {
	// Measures feed dashboards; every query must group or count, never
	// dump raw rows.
	for _, m := range PredefinedMeasures {
		if !strings.Contains(m.SQL, "COUNT") {
			t.Errorf("measure %s does not aggregate", m.ID)
		}
	}
}

func TestFindMeasure_Exists(t *testing.T) {
	m := FindMeasure("appointments-by-status")
	if m == nil {
		t.Fatal("expected to find appointments-by-status measure")
	}
	if m.Name != "Appointments by Status" {
		t.Errorf("expected 'Appointments by Status', got %s", m.Name)
	}
}

func TestFindMeasure_NotFound(t *testing.T) {
	if m := FindMeasure("nonexistent"); m != nil {
		t.Error("expected nil for nonexistent measure")
	}
}

func TestFindMeasure_AllPredefined(t *testing.T) {
	for _, def := range PredefinedMeasures {
		found := FindMeasure(def.ID)
		if found == nil {
			t.Errorf("expected to find measure %s", def.ID)
			continue
		}
		if found.ID != def.ID {
			t.Errorf("ID mismatch: expected %s, got %s", def.ID, found.ID)
		}
	}
}

func TestNewHandler(t *testing.T) {
	h := NewHandler(nil)
	if h == nil {
		t.Fatal("expected non-nil handler")
	}
}
