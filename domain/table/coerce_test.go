package table

import (
	"testing"
)

func TestAsFloat(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"float", 12.5, 12.5},
		{"int", 7, 7},
		{"numeric string", "3.25", 3.25},
		{"padded string", "  42 ", 42},
		{"negative string", "-8.5", -8.5},
		{"empty string", "", 0},
		{"free text", "twelve", 0},
		{"nil", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AsFloat(tt.in); got != tt.want {
				t.Errorf("AsFloat(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestAsInt_Truncates(t *testing.T) {
	if got := AsInt("10.9"); got != 10 {
		t.Errorf("AsInt(10.9) = %d, want 10", got)
	}
	if got := AsInt(3.7); got != 3 {
		t.Errorf("AsInt(3.7) = %d, want 3", got)
	}
	if got := AsInt("junk"); got != 0 {
		t.Errorf("AsInt(junk) = %d, want 0", got)
	}
}

func TestCoerceCell(t *testing.T) {
	if got := CoerceCell(""); got != nil {
		t.Errorf("empty string should become nil, got %v", got)
	}
	if got := CoerceCell("  "); got != nil {
		t.Errorf("blank string should become nil, got %v", got)
	}
	if got := CoerceCell("12"); got != 12 {
		t.Errorf("integral string should become int 12, got %v (%T)", got, got)
	}
	if got := CoerceCell("12.5"); got != 12.5 {
		t.Errorf("decimal string should become 12.5, got %v", got)
	}
	if got := CoerceCell(8.0); got != 8 {
		t.Errorf("integral float should become int 8, got %v (%T)", got, got)
	}
	if got := CoerceCell("JF25058"); got != "JF25058" {
		t.Errorf("free text should pass through, got %v", got)
	}
	if got := CoerceCell(true); got != true {
		t.Errorf("non-string non-float should pass through, got %v", got)
	}
}
