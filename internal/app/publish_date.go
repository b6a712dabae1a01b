package app

import "time"

// ComputePublishDate returns the next publication slot: the first
// Monday-Friday strictly after "now" in the publication timezone, at the
// configured time of day. Even when today qualifies, the result is the
// next occurrence, never the same calendar day.
func ComputePublishDate(now time.Time, loc *time.Location, publishTime string) time.Time {
	local := now.In(loc)
	candidate := local.AddDate(0, 0, 1)
	for candidate.Weekday() == time.Saturday || candidate.Weekday() == time.Sunday {
		candidate = candidate.AddDate(0, 0, 1)
	}

	tod, err := time.Parse("15:04", publishTime)
	if err != nil {
		// Config validates the format at startup; fall back to morning if a
		// caller slips past that.
		tod, _ = time.Parse("15:04", "09:30")
	}
	return time.Date(candidate.Year(), candidate.Month(), candidate.Day(),
		tod.Hour(), tod.Minute(), 0, 0, loc)
}
