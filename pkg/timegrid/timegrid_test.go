package timegrid

import "testing"

func TestToMinutes(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"00:00", 0},
		{"09:00", 540},
		{"09:30:00", 570},
		{"23:59", 1439},
	}
	for _, tc := range cases {
		got, err := ToMinutes(tc.in)
		if err != nil {
			t.Fatalf("ToMinutes(%q): unexpected error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ToMinutes(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestToMinutes_Invalid(t *testing.T) {
	for _, in := range []string{"", "9", "24:00", "12:60", "ab:cd", "1:2:3:4"} {
		if _, err := ToMinutes(in); err == nil {
			t.Errorf("ToMinutes(%q): expected error", in)
		}
	}
}

func TestFromMinutes(t *testing.T) {
	cases := []struct {
		in   int
		want string
	}{
		{0, "00:00:00"},
		{540, "09:00:00"},
		{570, "09:30:00"},
		{1439, "23:59:00"},
	}
	for _, tc := range cases {
		if got := FromMinutes(tc.in); got != tc.want {
			t.Errorf("FromMinutes(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestOverlaps(t *testing.T) {
	// Existing window 09:00-10:00 (540-600).
	cases := []struct {
		name         string
		start, end   int
		wantOverlaps bool
	}{
		{"new start inside", 570, 630, true},
		{"new end inside", 510, 570, true},
		{"new contains existing", 480, 660, true},
		{"identical", 540, 600, true},
		{"abutting before", 480, 540, false},
		{"abutting after", 600, 660, false},
		{"disjoint", 660, 720, false},
	}
	for _, tc := range cases {
		if got := Overlaps(tc.start, tc.end, 540, 600); got != tc.wantOverlaps {
			t.Errorf("%s: Overlaps(%d,%d,540,600) = %v, want %v",
				tc.name, tc.start, tc.end, got, tc.wantOverlaps)
		}
	}
}
