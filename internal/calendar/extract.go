package calendar

import (
	"regexp"
	"strconv"
	"strings"
)

// Field extraction works over the concatenated summary and description of an
// event. Each extractor tries an ordered list of patterns and accepts the
// first match that passes validation. First match wins; patterns are never
// combined or scored.

// Booking ID patterns, in priority order:
// 1. URL-path segment (reservation detail links embedded in descriptions)
// 2. Platform-prefixed confirmation code
// 3. Generic labeled code ("Booking: X", "Confirmation # X", ...)
var bookingIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)reservations?/(?:details/)?([A-Z0-9]{8,12})\b`),
	regexp.MustCompile(`(?i)\b(HM[A-Z0-9]{6,10})\b`),
	regexp.MustCompile(`(?i)\b(?:booking|confirmation|reservation|ref(?:erence)?|id)\s*(?:code|number|no\.?)?\s*[:#]?\s*([A-Z0-9]{8,12})\b`),
}

// Generic words that match the code shape but are never booking IDs.
var bookingIDRejects = map[string]bool{
	"RESERVATIO":   true,
	"RESERVATION":  true,
	"RESERVATIONS": true,
	"BOOKING":      true,
	"BOOKINGS":     true,
	"DETAILS":      true,
	"CONFIRMATIO":  true,
	"CONFIRMATION": true,
	"UNAVAILABLE":  true,
	"CHECKOUT":     true,
}

var alphanumeric = regexp.MustCompile(`^[A-Z0-9]+$`)

// ExtractBookingID pulls the third-party reservation code out of event text.
// The code is the required key for persisting a reservation, so callers drop
// events where extraction fails.
func ExtractBookingID(text string) (string, bool) {
	for _, pattern := range bookingIDPatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			candidate := strings.ToUpper(strings.TrimSpace(match[1]))
			if len(candidate) < 8 || len(candidate) > 12 {
				continue
			}
			if !alphanumeric.MatchString(candidate) {
				continue
			}
			if bookingIDRejects[candidate] {
				continue
			}
			return candidate, true
		}
	}
	return "", false
}

// Guest name patterns: label-prefixed forms first, then the positional
// "Name - ..." summary convention.
var guestNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)reserved\s+for\s+([^\n\r(]+)`),
	regexp.MustCompile(`(?i)guest(?:\s+name)?\s*:\s*([^\n\r]+)`),
	regexp.MustCompile(`(?i)name\s*:\s*([^\n\r]+)`),
	regexp.MustCompile(`^([\p{L}][\p{L}' .-]{1,60}?)\s+-\s`),
}

// ExtractGuestName returns the guest display name when one of the known
// patterns matches with more than 2 characters of content.
func ExtractGuestName(text string) (string, bool) {
	for _, pattern := range guestNamePatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		name := strings.TrimSpace(match[1])
		if len(name) > 2 {
			return name, true
		}
	}
	return "", false
}

// Guest count patterns including the locale variants seen in real feeds.
var guestCountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(\d{1,3})\s+guests?\b`),
	regexp.MustCompile(`(?i)guests?\s*:\s*(\d{1,3})\b`),
	regexp.MustCompile(`(?i)\b(\d{1,3})\s+personnes?\b`),
	regexp.MustCompile(`(?i)\b(\d{1,3})\s+personas?\b`),
	regexp.MustCompile(`(?i)\b(\d{1,3})\s+g(?:ä|ae)ste\b`),
}

// ExtractGuestCount returns the first matched guest count in the inclusive
// range 1-20. An out-of-range match skips to the next pattern rather than
// failing extraction outright.
func ExtractGuestCount(text string) (int, bool) {
	for _, pattern := range guestCountPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		n, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if n >= 1 && n <= 20 {
			return n, true
		}
	}
	return 0, false
}
