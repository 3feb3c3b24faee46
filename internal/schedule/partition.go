package schedule

import "time"

// WeekBucket is a Monday-Sunday span of records. Label is computed once when
// the bucket is created.
type WeekBucket[T any] struct {
	WeekStart time.Time
	WeekEnd   time.Time
	Label     string
	Items     []T
}

// WeekStart returns the Monday of the week containing d. Weekdays are
// numbered Sunday=0..Saturday=6, so the Monday offset is (weekday+6)%7.
func WeekStart(d time.Time) time.Time {
	d = StartOfDay(d)
	offset := (int(d.Weekday()) + 6) % 7

	return d.AddDate(0, 0, -offset)
}

func weekLabel(start, end time.Time) string {
	return start.Format("02 Jan") + " - " + end.Format("02 Jan, 2006")
}

// Partition groups records into Monday-Sunday buckets keyed by the ISO week
// start date. Records for which dateOf reports !ok are skipped. Buckets are
// emitted in order of first occurrence and are never re-sorted: callers that
// need chronological buckets must sort their input first.
func Partition[T any](records []T, dateOf func(T) (time.Time, bool)) []WeekBucket[T] {
	var buckets []WeekBucket[T]
	index := make(map[string]int)

	for _, rec := range records {
		d, ok := dateOf(rec)
		if !ok {
			continue
		}

		start := WeekStart(d)
		key := start.Format("2006-01-02")

		i, exists := index[key]
		if !exists {
			end := start.AddDate(0, 0, 6)
			buckets = append(buckets, WeekBucket[T]{
				WeekStart: start,
				WeekEnd:   end,
				Label:     weekLabel(start, end),
			})
			i = len(buckets) - 1
			index[key] = i
		}

		buckets[i].Items = append(buckets[i].Items, rec)
	}

	return buckets
}
