package shared

import "testing"

func TestParseCompetency(t *testing.T) {
	month, year, err := ParseCompetency("6", "2024")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if month != 6 || year != 2024 {
		t.Fatalf("got %d/%d", month, year)
	}

	bad := [][2]string{
		{"0", "2024"},
		{"13", "2024"},
		{"6", "1899"},
		{"6", "2201"},
		{"june", "2024"},
		{"6", "twenty24"},
	}
	for _, pair := range bad {
		if _, _, err := ParseCompetency(pair[0], pair[1]); err == nil {
			t.Fatalf("expected error for %s/%s", pair[0], pair[1])
		}
	}
}
