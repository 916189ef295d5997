package utils

import "time"

// SlotEnd returns the exclusive end of the slot starting at start.
func SlotEnd(start time.Time, duration time.Duration) time.Time {
	return start.Add(duration)
}

// Overlaps reports whether the half-open intervals [aStart,aEnd) and
// [bStart,bEnd) intersect. Back-to-back slots do not overlap. Every conflict
// check in the engine delegates to this predicate.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// DayBoundaries returns the start of the calendar day containing t and the
// exclusive start of the next day, computed in loc. Storage and range queries
// must use the same location consistently.
func DayBoundaries(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// SlotBucket keys a scheduled slot for the storage-level uniqueness constraint
// on (partner_id, slot_bucket). Keyed to the minute in UTC.
func SlotBucket(start time.Time) string {
	return start.UTC().Format("2006-01-02T15:04")
}
