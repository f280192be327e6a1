package jobs

import "time"

// Month returns the usage-bucket key for t, e.g. "202608".
func Month(t time.Time) string {
	return t.UTC().Format("200601")
}
