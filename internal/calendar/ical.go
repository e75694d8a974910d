package calendar

import (
	"strings"

	"github.com/staysync/backend/internal/storage/models"
)

// rawSnippetLimit bounds the diagnostic capture of a source block.
const rawSnippetLimit = 500

// ParseEvents splits a raw ICS document into VEVENT blocks and assembles one
// reservation candidate per block. Parsing is pure and holds no cross-call
// state; each call re-parses the document from scratch.
//
// Blocks without a resolvable start and end date, or whose start does not
// precede the end, are dropped silently. That is normal for booking feeds:
// blocked/unavailable ranges often carry no structured dates worth keeping.
func ParseEvents(doc string) []models.ReservationEvent {
	segments := strings.Split(doc, "BEGIN:VEVENT")
	if len(segments) < 2 {
		return nil
	}

	var events []models.ReservationEvent
	// The first segment is the calendar header, not an event.
	for _, block := range segments[1:] {
		if ev, ok := parseBlock(block); ok {
			events = append(events, ev)
		}
	}
	return events
}

// parseBlock scans one raw event block for the fields we care about.
// DESCRIPTION values are un-folded: a line starting with space or tab, or a
// colon-free non-empty line that is not the END marker, continues the value.
// This mirrors the folded-line convention of the feeds we consume; it is a
// heuristic, not the full folding grammar of RFC 5545.
func parseBlock(block string) (models.ReservationEvent, bool) {
	var ev models.ReservationEvent
	var haveStart, haveEnd bool
	var description strings.Builder
	inDescription := false

	lines := strings.Split(strings.ReplaceAll(block, "\r\n", "\n"), "\n")
	for _, line := range lines {
		if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
			if inDescription {
				description.WriteString(strings.TrimLeft(line, " \t"))
			}
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if trimmed == "END:VEVENT" {
			break
		}

		colonIdx := strings.Index(trimmed, ":")
		if colonIdx == -1 {
			if inDescription {
				description.WriteString(trimmed)
			}
			continue
		}

		field := trimmed[:colonIdx]
		value := trimmed[colonIdx+1:]

		// Strip property parameters, e.g. DTSTART;VALUE=DATE:20251115.
		if semicolonIdx := strings.Index(field, ";"); semicolonIdx != -1 {
			field = field[:semicolonIdx]
		}

		inDescription = false
		switch field {
		case "UID":
			ev.ExternalID = value
		case "SUMMARY":
			ev.Summary = unescapeText(value)
		case "DTSTART":
			if d, err := DecodeDate(value); err == nil {
				ev.StartDate = d
				haveStart = true
			}
		case "DTEND":
			if d, err := DecodeDate(value); err == nil {
				ev.EndDate = d
				haveEnd = true
			}
		case "DESCRIPTION":
			description.Reset()
			description.WriteString(value)
			inDescription = true
		}
	}

	if !haveStart || !haveEnd || !ev.StartDate.Before(ev.EndDate) {
		return models.ReservationEvent{}, false
	}

	ev.Description = unescapeText(description.String())
	if ev.ExternalID == "" {
		ev.ExternalID = ev.StartDate.Compact() + "-" + ev.EndDate.Compact()
	}

	snippet := strings.TrimSpace(block)
	if len(snippet) > rawSnippetLimit {
		snippet = snippet[:rawSnippetLimit]
	}
	ev.RawSnippet = snippet

	return ev, true
}

// unescapeText resolves common iCal escape sequences.
func unescapeText(value string) string {
	value = strings.ReplaceAll(value, "\\n", "\n")
	value = strings.ReplaceAll(value, "\\,", ",")
	value = strings.ReplaceAll(value, "\\;", ";")
	value = strings.ReplaceAll(value, "\\\\", "\\")
	return value
}
