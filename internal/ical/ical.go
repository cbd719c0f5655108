// Package ical implements the VEVENT subset TownCal publishes and reads
// back: entity fields to iCalendar text, and best-effort parsing of raw
// calendar data into structured events. No I/O happens here.
package ical

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const prodID = "-//TownCal//NONSGML v1.0//EN"

// Event is one VEVENT decoded from raw calendar text. Fields are empty when
// the source data lacks them. Start and End are local-naive ISO-8601 strings
// (YYYY-MM-DDTHH:MM:SS) when the source value was parseable, otherwise the
// raw value passed through.
type Event struct {
	Title         string
	Start         string
	End           string
	Description   string
	Location      string
	OrganizerName string
	OrganizerMail string
	AttendeeName  string
	AttendeeMail  string
	Contact       string
	URL           string
}

// UID returns the stable identifier for a submission's published event.
// Re-publishing the same submission yields the same UID so the resources can
// be correlated server-side.
func UID(submissionID int64, host string) string {
	return fmt.Sprintf("calendar-submission-%d@%s", submissionID, host)
}

// BuildSubmissionCalendar renders a complete VCALENDAR document holding one
// VEVENT for an approved submission. Lines are CRLF-terminated and never
// folded; values stay well under the RFC 5545 folding threshold in practice.
func BuildSubmissionCalendar(uid, title, description, location string, start time.Time, end *time.Time, now time.Time) string {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + prodID,
		"CALSCALE:GREGORIAN",
		"BEGIN:VEVENT",
		"UID:" + uid,
		"DTSTAMP:" + now.UTC().Format("20060102T150405Z"),
		"DTSTART:" + start.UTC().Format("20060102T150405Z"),
	}
	if end != nil {
		lines = append(lines, "DTEND:"+end.UTC().Format("20060102T150405Z"))
	}
	if title != "" {
		lines = append(lines, "SUMMARY:"+EscapeText(title))
	}
	if description != "" {
		lines = append(lines, "DESCRIPTION:"+EscapeText(description))
	}
	if location != "" {
		lines = append(lines, "LOCATION:"+EscapeText(location))
	}
	lines = append(lines,
		"STATUS:CONFIRMED",
		"END:VEVENT",
		"END:VCALENDAR",
	)
	return strings.Join(lines, "\r\n") + "\r\n"
}

// EscapeText escapes a value for use in an iCalendar content line.
// Backslash must go first so later substitutions are not double-escaped.
func EscapeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

var unescaper = strings.NewReplacer(
	"\\\\", "\\",
	"\\,", ",",
	"\\;", ";",
	"\\n", "\n",
	"\\N", "\n",
)

// UnescapeText reverses EscapeText.
func UnescapeText(s string) string {
	return unescaper.Replace(s)
}

var (
	dateRe     = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})T(\d{2})(\d{2})(\d{2})`)
	mailtoRe   = regexp.MustCompile(`MAILTO:(\S+)`)
	commonName = regexp.MustCompile(`CN=([^;:]+)`)
)

// ParseCalendarData scans raw iCalendar text for VEVENT blocks and projects
// the recognized properties into events. Parameters are discarded, repeated
// properties keep the last value, VALARM blocks are skipped, and structurally
// odd input contributes nothing rather than failing.
func ParseCalendarData(data string) []Event {
	var events []Event

	var props map[string]string
	inEvent := false
	inAlarm := false

	for _, line := range unfoldLines(data) {
		line = strings.TrimSpace(line)

		switch {
		case line == "BEGIN:VEVENT":
			inEvent = true
			inAlarm = false
			props = make(map[string]string)
		case line == "END:VEVENT" && inEvent:
			inEvent = false
			inAlarm = false
			if len(props) > 0 {
				events = append(events, projectEvent(props))
			}
			props = nil
		case line == "BEGIN:VALARM" && inEvent:
			inAlarm = true
		case line == "END:VALARM" && inEvent:
			inAlarm = false
		case inEvent && !inAlarm && strings.Contains(line, ":"):
			name, value, _ := strings.Cut(line, ":")
			// Drop parameters: DTSTART;TZID=... keys as DTSTART.
			if semi := strings.Index(name, ";"); semi != -1 {
				name = name[:semi]
			}
			// Address properties keep the whole content line: the
			// display name travels in the CN= parameter, which the
			// cut above would otherwise discard.
			if name == "ORGANIZER" || name == "ATTENDEE" {
				value = line
			}
			props[name] = value
		}
	}

	return events
}

// unfoldLines joins RFC 5545 continuation lines. The encoder never folds,
// but stricter producers do.
func unfoldLines(data string) []string {
	data = strings.ReplaceAll(data, "\r\n", "\n")
	data = strings.ReplaceAll(data, "\r", "\n")
	raw := strings.Split(data, "\n")
	var lines []string
	for _, line := range raw {
		if len(lines) > 0 && (strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")) {
			lines[len(lines)-1] += strings.TrimLeft(line, " \t")
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func projectEvent(props map[string]string) Event {
	var ev Event

	if v, ok := props["SUMMARY"]; ok {
		ev.Title = UnescapeText(v)
	}
	if v, ok := props["DTSTART"]; ok {
		ev.Start = ParseDate(v)
	}
	if v, ok := props["DTEND"]; ok {
		ev.End = ParseDate(v)
	}
	if v, ok := props["DESCRIPTION"]; ok {
		ev.Description = UnescapeText(v)
	}
	if v, ok := props["LOCATION"]; ok {
		ev.Location = UnescapeText(v)
	}
	if v, ok := props["ORGANIZER"]; ok {
		ev.OrganizerMail, ev.OrganizerName = parseCalAddress(v)
	}
	if v, ok := props["ATTENDEE"]; ok {
		ev.AttendeeMail, ev.AttendeeName = parseCalAddress(v)
	}
	if v, ok := props["CONTACT"]; ok {
		ev.Contact = UnescapeText(v)
	}
	if v, ok := props["URL"]; ok {
		ev.URL = v
	}

	return ev
}

// parseCalAddress extracts the MAILTO address and CN parameter from a full
// ORGANIZER or ATTENDEE content line. Either, both, or neither may be
// present.
func parseCalAddress(v string) (email, name string) {
	if m := mailtoRe.FindStringSubmatch(v); m != nil {
		email = m[1]
	}
	if m := commonName.FindStringSubmatch(v); m != nil {
		name = UnescapeText(strings.Trim(m[1], `"`))
	}
	return email, name
}

// ParseDate reformats an iCalendar date-time value (20250625T180000, with or
// without trailing zone designator) to YYYY-MM-DDTHH:MM:SS. Values that do
// not match pass through unchanged; lossy but non-fatal.
func ParseDate(v string) string {
	// Strip any leading parameter remnant up to a colon, e.g. a TZID that
	// leaked into the value.
	if i := strings.Index(v, ":"); i != -1 {
		v = v[i+1:]
	}
	m := dateRe.FindStringSubmatch(v)
	if m == nil {
		return v
	}
	return fmt.Sprintf("%s-%s-%sT%s:%s:%s", m[1], m[2], m[3], m[4], m[5], m[6])
}
