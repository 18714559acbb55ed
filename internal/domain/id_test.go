package domain

import "testing"

func TestValidID(t *testing.T) {
	cases := []struct {
		id   string
		want bool
	}{
		{"a1b2c3d4e5f6a1b2c3d4e5f6", true},
		{"A1B2C3D4E5F6A1B2C3D4E5F6", true},
		{"a1b2c3d4e5f6a1b2c3d4e5f", false},
		{"a1b2c3d4e5f6a1b2c3d4e5f6a", false},
		{"g1b2c3d4e5f6a1b2c3d4e5f6", false},
		{"", false},
		{"not-an-id", false},
	}
	for _, tc := range cases {
		if got := ValidID(tc.id); got != tc.want {
			t.Errorf("ValidID(%q) = %v, want %v", tc.id, got, tc.want)
		}
	}
}
