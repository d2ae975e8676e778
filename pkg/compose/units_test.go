package compose

import "testing"

func TestUnitToPx(t *testing.T) {
	tests := []struct {
		unit string
		want float64
	}{
		{"mm", 96.0 / 25.4},
		{"cm", 96.0 / 2.54},
		{"in", 96},
		{"px", 1},
		{"", 96.0 / 25.4}, // unknown units read as mm
	}
	for _, tt := range tests {
		if got := unitToPx(tt.unit); !almostEqual(got, tt.want) {
			t.Errorf("unitToPx(%q) = %g, want %g", tt.unit, got, tt.want)
		}
	}
}

func TestPtToUnit(t *testing.T) {
	if got := ptToUnit(72, "in"); !almostEqual(got, 1) {
		t.Errorf("ptToUnit(72, in) = %g, want 1", got)
	}
	if got := ptToUnit(72, "mm"); !almostEqual(got, 25.4) {
		t.Errorf("ptToUnit(72, mm) = %g, want 25.4", got)
	}
	if got := ptToUnit(72, "px"); !almostEqual(got, 96) {
		t.Errorf("ptToUnit(72, px) = %g, want 96", got)
	}
}

func TestInToUnit(t *testing.T) {
	if got := inToUnit(1, "mm"); !almostEqual(got, 25.4) {
		t.Errorf("inToUnit(1, mm) = %g, want 25.4", got)
	}
	if got := inToUnit(2, "cm"); !almostEqual(got, 5.08) {
		t.Errorf("inToUnit(2, cm) = %g, want 5.08", got)
	}
	if got := inToUnit(0.5, "px"); !almostEqual(got, 48) {
		t.Errorf("inToUnit(0.5, px) = %g, want 48", got)
	}
}
