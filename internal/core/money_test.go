package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1.00", true},
		{"1.0", "1.00", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{".5", "0.50", true},
		{"1.005", "1.01", true}, // half-up rounding
		{" 2.50 ", "2.50", true},
		{"0.004", "", false},
		{"-1", "", false},
		{"0", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || FormatAmount(got) != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, FormatAmount(got), err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}
