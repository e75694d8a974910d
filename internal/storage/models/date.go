package models

import "fmt"

// Date is a whole calendar day with no timezone attached. Booking feeds
// publish all-day DTSTART/DTEND values, so everything downstream works in
// calendar days rather than instants.
type Date struct {
	Year  int
	Month int
	Day   int
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Before reports whether d falls strictly before other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// String formats the date as ISO 8601 (YYYY-MM-DD). This is also the form
// stored in the database.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Compact formats the date as the 8-digit feed token (YYYYMMDD).
func (d Date) Compact() string {
	return fmt.Sprintf("%04d%02d%02d", d.Year, d.Month, d.Day)
}

// MarshalJSON encodes the date as an ISO 8601 string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}
