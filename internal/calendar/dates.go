// Package calendar provides ICS feed fetching, parsing, reservation field
// extraction, and the sync orchestration around them.
package calendar

import (
	"fmt"

	"github.com/staysync/backend/internal/storage/models"
)

// MalformedDateError indicates a date token that could not be decoded.
// It causes the single event carrying it to be discarded, never a sync failure.
type MalformedDateError struct {
	Token  string
	Reason string
}

func (e *MalformedDateError) Error() string {
	return fmt.Sprintf("malformed date token %q: %s", e.Token, e.Reason)
}

// DecodeDate parses the 8-digit YYYYMMDD token used by booking feeds for
// all-day DTSTART/DTEND values. Month must be 1-12 and day 1-31; no
// per-month day-count validation is performed, so an impossible combination
// like February 30 is accepted as-is.
func DecodeDate(token string) (models.Date, error) {
	if len(token) != 8 {
		return models.Date{}, &MalformedDateError{Token: token, Reason: "expected 8 digits"}
	}
	for _, c := range token {
		if c < '0' || c > '9' {
			return models.Date{}, &MalformedDateError{Token: token, Reason: "expected 8 digits"}
		}
	}

	year := atoi(token[:4])
	month := atoi(token[4:6])
	day := atoi(token[6:8])

	if month < 1 || month > 12 {
		return models.Date{}, &MalformedDateError{Token: token, Reason: fmt.Sprintf("month %d out of range", month)}
	}
	if day < 1 || day > 31 {
		return models.Date{}, &MalformedDateError{Token: token, Reason: fmt.Sprintf("day %d out of range", day)}
	}

	return models.Date{Year: year, Month: month, Day: day}, nil
}

// atoi converts a digit-only string; callers have already validated input.
func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}
