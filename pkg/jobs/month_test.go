package jobs

import (
	"testing"
	"time"
)

func TestMonth(t *testing.T) {
	ts := time.Date(2026, time.August, 24, 23, 59, 0, 0, time.UTC)
	if got := Month(ts); got != "202608" {
		t.Errorf("expected 202608, got %s", got)
	}

	// Local times collapse to the UTC bucket.
	loc := time.FixedZone("IST", 5*3600+1800)
	ts = time.Date(2026, time.September, 1, 3, 0, 0, 0, loc)
	if got := Month(ts); got != "202608" {
		t.Errorf("expected UTC bucket 202608, got %s", got)
	}
}
