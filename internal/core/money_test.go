package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"580000", "580000", true},
		{" 2.50 ", "2.5", true},
		{"0.1000000000000000000001", "0.1000000000000000000001", true},
		{"-1", "-1", true},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"1e3", "", false},
		{"1_000", "", false},
		{"-", "", false},
		{".", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestParseJSONAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"580000", "580000", true},
		{"5.8e5", "580000", true},
		{"1E3", "1000", true},
		{"-2.5e-1", "-0.25", true},
		{"0.1000000000000000055511151231257827", "0.1000000000000000055511151231257827", true},
		{"1e999", "", false},
		{"1e-999", "", false},
		{"true", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseJSONAmount(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error, got %s", tc.in, got)
		}
	}
}

func TestParseAmountKeepsExactSums(t *testing.T) {
	a, _ := ParseAmount("0.1")
	b, _ := ParseAmount("0.2")
	if got := FormatAmount(a.Add(b)); got != "0.3" {
		t.Fatalf("0.1+0.2 expected 0.3, got %s", got)
	}
}
