// Package feed assembles the public calendar read path. It merges every
// discoverable calendar collection on the CalDAV server into a single list
// of FullCalendar event objects. The read path is best-effort end to end:
// discovery or fetch failures shrink the result, they never fail it.
package feed

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/example/towncal/internal/ical"
)

// DAV is the slice of the CalDAV client the feed needs.
type DAV interface {
	DiscoverCollections(ctx context.Context) ([]string, error)
	FetchCollection(ctx context.Context, collectionURL string) (string, error)
}

// Contact groups the people-related fields of an event for the frontend.
type Contact struct {
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty"`
	AttendeeName  string `json:"attendee_name,omitempty"`
	AttendeeEmail string `json:"attendee_email,omitempty"`
	Contact       string `json:"contact,omitempty"`
	URL           string `json:"url,omitempty"`
}

// ExtendedProps carries the display fields FullCalendar does not consume
// directly.
type ExtendedProps struct {
	Description string   `json:"description,omitempty"`
	Location    string   `json:"location,omitempty"`
	Contact     *Contact `json:"contact,omitempty"`
	StartDate   string   `json:"startDate,omitempty"`
	StartTime   string   `json:"startTime,omitempty"`
	EndDate     string   `json:"endDate,omitempty"`
	EndTime     string   `json:"endTime,omitempty"`
}

// Event is one entry in the FullCalendar event feed.
type Event struct {
	Title         string        `json:"title"`
	Start         string        `json:"start"`
	End           string        `json:"end,omitempty"`
	ExtendedProps ExtendedProps `json:"extendedProps"`
}

type Service struct {
	dav    DAV
	logger *slog.Logger
}

func NewService(dav DAV, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{dav: dav, logger: logger}
}

// Events returns the merged event feed across all calendar collections.
// It never returns an error; a fully unreachable server yields an empty
// (non-nil) slice.
func (s *Service) Events(ctx context.Context) []Event {
	events := []Event{}

	collections, err := s.dav.DiscoverCollections(ctx)
	if err != nil {
		s.logger.Error("calendar discovery failed, serving empty feed", "error", err)
		return events
	}

	for _, url := range collections {
		data, err := s.dav.FetchCollection(ctx, url)
		if err != nil {
			s.logger.Warn("skipping unreadable collection", "url", url, "error", err)
			continue
		}
		for _, ev := range ical.ParseCalendarData(data) {
			events = append(events, toFullCalendar(ev))
		}
	}

	s.logger.Info("built calendar feed", "collections", len(collections), "events", len(events))
	return events
}

// parseable start/end values match the decoder's normalized layout; anything
// else skips the pretty date fields.
const eventTimeLayout = "2006-01-02T15:04:05"

func toFullCalendar(ev ical.Event) Event {
	out := Event{
		Title: ev.Title,
		Start: ev.Start,
		End:   ev.End,
		ExtendedProps: ExtendedProps{
			Description: ev.Description,
			Location:    ev.Location,
		},
	}

	if t, err := time.Parse(eventTimeLayout, ev.Start); err == nil {
		out.ExtendedProps.StartDate = t.Format("01/02/2006")
		out.ExtendedProps.StartTime = t.Format("3:04 PM")
	}
	if t, err := time.Parse(eventTimeLayout, ev.End); err == nil {
		out.ExtendedProps.EndDate = t.Format("01/02/2006")
		out.ExtendedProps.EndTime = t.Format("3:04 PM")
	}

	contact := Contact{
		Name:          ev.OrganizerName,
		Email:         ev.OrganizerMail,
		AttendeeName:  ev.AttendeeName,
		AttendeeEmail: ev.AttendeeMail,
		Contact:       ev.Contact,
		URL:           ev.URL,
	}
	if contact != (Contact{}) {
		out.ExtendedProps.Contact = &contact
	}

	return out
}
