package core

import "testing"

func TestParseAmountToCents(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"120.45", 12045, false},
		{"12,34", 1234, false},
		{"-12.34", -1234, false},
		{"+5", 500, false},
		{"0.01", 1, false},
		{"12.345", 1235, false},
		{"12.346", 1235, false},
		{".50", 50, false},
		{"", 0, true},
		{"0", 0, true},
		{"0.00", 0, true},
		{"abc", 0, true},
		{"1.2.3", 0, true},
		{"12a.45", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmountToCents(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAmountToCents(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseAmountToCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestMoneyString(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{12045, "$120.45"},
		{-1230, "-$12.30"},
		{5, "$0.05"},
	}
	for _, tt := range tests {
		got := Money{Cents: tt.cents}.String()
		if got != tt.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tt.cents, got, tt.want)
		}
	}
}
