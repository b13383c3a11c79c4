package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const primaryCalendar = "primary"

// Event is an all-day entry on the connected account's primary calendar.
type Event struct {
	Key         string
	Summary     string
	Description string
	Date        time.Time
}

// Publisher keeps deadline events in step with the database. Event ids are
// derived from Key so repeated syncs update rather than duplicate.
type Publisher struct {
	events *gcal.EventsService
}

func NewPublisher(ctx context.Context, client *http.Client, opts ...option.ClientOption) (*Publisher, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}
	return &Publisher{events: svc.Events}, nil
}

// Upsert inserts the event, or overwrites it when the id is already taken.
func (p *Publisher) Upsert(ctx context.Context, ev Event) error {
	id := EventID(ev.Key)
	day := ev.Date.Format(time.DateOnly)
	body := &gcal.Event{
		Id:           id,
		Summary:      ev.Summary,
		Description:  ev.Description,
		Start:        &gcal.EventDateTime{Date: day},
		End:          &gcal.EventDateTime{Date: ev.Date.AddDate(0, 0, 1).Format(time.DateOnly)},
		Transparency: "transparent",
	}

	_, err := p.events.Insert(primaryCalendar, body).Context(ctx).Do()
	if err == nil {
		return nil
	}
	if !isConflict(err) {
		return fmt.Errorf("insert calendar event: %w", err)
	}
	if _, err := p.events.Update(primaryCalendar, id, body).Context(ctx).Do(); err != nil {
		return fmt.Errorf("update calendar event: %w", err)
	}
	return nil
}

// EventID maps a key onto the base32hex alphabet Calendar accepts for ids.
func EventID(key string) string {
	var b strings.Builder
	b.WriteString("cb")
	for _, r := range strings.ToLower(key) {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'v':
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isConflict(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusConflict
}
