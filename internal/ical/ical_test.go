package ical

import (
	"strings"
	"testing"
	"time"
)

func TestEscapeUnescapeIdentity(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"plain", "Town Meeting"},
		{"comma", "Hall A, Main Street"},
		{"semicolon", "agenda; budget; roads"},
		{"backslash", `path\to\somewhere`},
		{"newline", "line one\nline two"},
		{"everything", "a,b;c\\d\ne"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UnescapeText(EscapeText(tt.in)); got != tt.in {
				t.Errorf("round trip = %q, want %q", got, tt.in)
			}
		})
	}
}

func TestEscapeTextOrdering(t *testing.T) {
	// Backslash is escaped first; the backslashes introduced by the comma
	// escape must not be doubled.
	if got := EscapeText("a,b"); got != `a\,b` {
		t.Errorf("EscapeText(%q) = %q, want %q", "a,b", got, `a\,b`)
	}
	if got := EscapeText(`a\,b`); got != `a\\\,b` {
		t.Errorf("EscapeText(%q) = %q, want %q", `a\,b`, got, `a\\\,b`)
	}
	// CR and CRLF normalize to the same escape as LF.
	if got := EscapeText("a\r\nb"); got != `a\nb` {
		t.Errorf("EscapeText(CRLF) = %q, want %q", got, `a\nb`)
	}
	if got := EscapeText("a\rb"); got != `a\nb` {
		t.Errorf("EscapeText(CR) = %q, want %q", got, `a\nb`)
	}
}

func TestBuildSubmissionCalendar(t *testing.T) {
	start := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC)
	now := time.Date(2025, 2, 20, 12, 30, 0, 0, time.UTC)

	text := BuildSubmissionCalendar(UID(42, "towncal.example.org"), "Town Meeting", "Agenda: budget", "City Hall", start, &end, now)

	for _, want := range []string{
		"BEGIN:VCALENDAR\r\n",
		"VERSION:2.0\r\n",
		"CALSCALE:GREGORIAN\r\n",
		"UID:calendar-submission-42@towncal.example.org\r\n",
		"DTSTAMP:20250220T123000Z\r\n",
		"DTSTART:20250301T180000Z\r\n",
		"DTEND:20250301T190000Z\r\n",
		"SUMMARY:Town Meeting\r\n",
		"DESCRIPTION:Agenda: budget\r\n",
		"LOCATION:City Hall\r\n",
		"STATUS:CONFIRMED\r\n",
		"END:VEVENT\r\n",
		"END:VCALENDAR\r\n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q\n%s", want, text)
		}
	}
}

func TestBuildOmitsEmptyFields(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	text := BuildSubmissionCalendar("uid@x", "Title", "", "", start, nil, time.Now())

	for _, absent := range []string{"DTEND", "DESCRIPTION", "LOCATION"} {
		if strings.Contains(text, absent) {
			t.Errorf("output should not contain %s line:\n%s", absent, text)
		}
	}
}

func TestBuildConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	start := time.Date(2025, 3, 1, 20, 0, 0, 0, loc)
	text := BuildSubmissionCalendar("uid@x", "Title", "", "", start, nil, time.Now())

	if !strings.Contains(text, "DTSTART:20250301T180000Z") {
		t.Errorf("DTSTART not converted to UTC:\n%s", text)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	start := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC)
	text := BuildSubmissionCalendar("uid@x", "Budget, roads; more", "First\nSecond", `C:\Hall`, start, &end, time.Now())

	events := ParseCalendarData(text)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	ev := events[0]
	if ev.Title != "Budget, roads; more" {
		t.Errorf("Title = %q", ev.Title)
	}
	if ev.Description != "First\nSecond" {
		t.Errorf("Description = %q", ev.Description)
	}
	if ev.Location != `C:\Hall` {
		t.Errorf("Location = %q", ev.Location)
	}
	if ev.Start != "2025-03-01T18:00:00" {
		t.Errorf("Start = %q", ev.Start)
	}
	if ev.End != "2025-03-01T19:00:00" {
		t.Errorf("End = %q", ev.End)
	}
}

func TestDecodeOmittedEnd(t *testing.T) {
	start := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)
	text := BuildSubmissionCalendar("uid@x", "Title", "", "", start, nil, time.Now())

	events := ParseCalendarData(text)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].End != "" {
		t.Errorf("End = %q, want empty", events[0].End)
	}
}

func TestParseIgnoresVALARM(t *testing.T) {
	data := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"BEGIN:VEVENT",
		"SUMMARY:Meeting",
		"DESCRIPTION:The real description",
		"BEGIN:VALARM",
		"ACTION:DISPLAY",
		"DESCRIPTION:Reminder",
		"END:VALARM",
		"DTSTART:20250301T180000Z",
		"END:VEVENT",
		"END:VCALENDAR",
	}, "\r\n")

	events := ParseCalendarData(data)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Description != "The real description" {
		t.Errorf("alarm description leaked into event: %q", events[0].Description)
	}
	// DTSTART after the alarm block must still be picked up.
	if events[0].Start != "2025-03-01T18:00:00" {
		t.Errorf("Start = %q", events[0].Start)
	}
}

func TestParseDiscardsParametersLastValueWins(t *testing.T) {
	data := strings.Join([]string{
		"BEGIN:VEVENT",
		"DTSTART;TZID=America/New_York:20250625T180000",
		"SUMMARY:First",
		"SUMMARY:Second",
		"END:VEVENT",
	}, "\n")

	events := ParseCalendarData(data)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Start != "2025-06-25T18:00:00" {
		t.Errorf("Start = %q", events[0].Start)
	}
	if events[0].Title != "Second" {
		t.Errorf("Title = %q, want last value", events[0].Title)
	}
}

func TestParseOrganizerAttendee(t *testing.T) {
	data := strings.Join([]string{
		"BEGIN:VEVENT",
		`ORGANIZER;CN="Jane Clerk":MAILTO:clerk@example.org`,
		"ATTENDEE;CN=Board;ROLE=REQ-PARTICIPANT:MAILTO:board@example.org",
		"CONTACT:Front desk\\, ext. 12",
		"URL:https://example.org/meetings",
		"END:VEVENT",
	}, "\n")

	events := ParseCalendarData(data)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.OrganizerMail != "clerk@example.org" {
		t.Errorf("OrganizerMail = %q", ev.OrganizerMail)
	}
	if ev.OrganizerName != "Jane Clerk" {
		t.Errorf("OrganizerName = %q", ev.OrganizerName)
	}
	if ev.AttendeeMail != "board@example.org" {
		t.Errorf("AttendeeMail = %q", ev.AttendeeMail)
	}
	if ev.AttendeeName != "Board" {
		t.Errorf("AttendeeName = %q", ev.AttendeeName)
	}
	bare := ParseCalendarData(strings.Join([]string{
		"BEGIN:VEVENT",
		"ORGANIZER:MAILTO:clerk@example.org",
		"END:VEVENT",
	}, "\n"))
	if len(bare) != 1 {
		t.Fatalf("got %d events, want 1", len(bare))
	}
	if bare[0].OrganizerMail != "clerk@example.org" {
		t.Errorf("OrganizerMail = %q", bare[0].OrganizerMail)
	}
	if bare[0].OrganizerName != "" {
		t.Errorf("OrganizerName = %q, want empty without CN", bare[0].OrganizerName)
	}
	if ev.Contact != "Front desk, ext. 12" {
		t.Errorf("Contact = %q", ev.Contact)
	}
	if ev.URL != "https://example.org/meetings" {
		t.Errorf("URL = %q", ev.URL)
	}
}

func TestParseMalformedInput(t *testing.T) {
	tests := []struct {
		name string
		data string
		want int
	}{
		{"empty", "", 0},
		{"no events", "BEGIN:VCALENDAR\nVERSION:2.0\nEND:VCALENDAR", 0},
		{"unterminated event", "BEGIN:VEVENT\nSUMMARY:Dangling", 0},
		{"end without begin", "SUMMARY:Orphan\nEND:VEVENT", 0},
		{"two events", "BEGIN:VEVENT\nSUMMARY:A\nEND:VEVENT\nBEGIN:VEVENT\nSUMMARY:B\nEND:VEVENT", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(ParseCalendarData(tt.data)); got != tt.want {
				t.Errorf("got %d events, want %d", got, tt.want)
			}
		})
	}
}

func TestParseUnfoldsContinuationLines(t *testing.T) {
	data := "BEGIN:VEVENT\r\nSUMMARY:A very long sum\r\n mary line\r\nEND:VEVENT\r\n"
	events := ParseCalendarData(data)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Title != "A very long summary line" {
		t.Errorf("Title = %q", events[0].Title)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"20250625T180000", "2025-06-25T18:00:00"},
		{"20250625T180000Z", "2025-06-25T18:00:00"},
		{"TZID=Europe/Berlin:20250625T180000", "2025-06-25T18:00:00"},
		{"20250625", "20250625"},
		{"not-a-date", "not-a-date"},
	}

	for _, tt := range tests {
		if got := ParseDate(tt.in); got != tt.want {
			t.Errorf("ParseDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUID(t *testing.T) {
	if got := UID(17, "towncal.example.org"); got != "calendar-submission-17@towncal.example.org" {
		t.Errorf("UID = %q", got)
	}
	// Stable across calls.
	if UID(17, "h") != UID(17, "h") {
		t.Error("UID must be deterministic")
	}
}
