// Package caldav publishes tasks to a CalDAV calendar.
package caldav

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/jonboulle/clockwork"

	"daydesk/internal/ics"
	"daydesk/internal/logger"
	"daydesk/internal/models"
)

const userAgent = "daydesk/1.0"

// basicAuthTransport adds Basic Auth and the user agent to requests.
type basicAuthTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.Username != "" {
		req.SetBasicAuth(t.Username, t.Password)
	}
	req.Header.Set("User-Agent", userAgent)
	return t.Transport.RoundTrip(req)
}

// Options configure a Client.
type Options struct {
	Endpoint string
	Username string
	Password string
	Calendar string // display name of the target calendar
	Clock    clockwork.Clock
}

// Client writes task events into one calendar collection.
type Client struct {
	caldavClient *caldav.Client
	webdavClient *webdav.Client
	logger       *logger.Logger
	clock        clockwork.Clock
	calendarPath string
}

// NewClient connects to the server and looks up the calendar by name.
func NewClient(ctx context.Context, logger *logger.Logger, opts Options) (*Client, error) {
	if _, err := url.Parse(opts.Endpoint); err != nil || opts.Endpoint == "" {
		return nil, fmt.Errorf("invalid caldav endpoint %q", opts.Endpoint)
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	httpClient := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &basicAuthTransport{
			Username:  opts.Username,
			Password:  opts.Password,
			Transport: http.DefaultTransport,
		},
	}

	caldavClient, err := caldav.NewClient(httpClient, opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}
	webdavClient, err := webdav.NewClient(httpClient, opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create webdav client: %w", err)
	}

	c := &Client{
		caldavClient: caldavClient,
		webdavClient: webdavClient,
		logger:       logger.With("endpoint", opts.Endpoint),
		clock:        opts.Clock,
	}

	c.logger.Infow("Finding calendar", "calendar", opts.Calendar)
	calendarPath, err := c.findCalendar(ctx, opts.Calendar)
	if err != nil {
		return nil, fmt.Errorf("could not find calendar %q: %w", opts.Calendar, err)
	}
	c.calendarPath = calendarPath
	c.logger.Infow("Found calendar", "path", calendarPath)

	return c, nil
}

// Publish creates or replaces the event for a task.
func (c *Client) Publish(ctx context.Context, uid string, task *models.Task) error {
	cal, err := Calendar(uid, task, c.clock.Now())
	if err != nil {
		return err
	}

	writer, err := c.webdavClient.Create(ctx, c.objectPath(uid))
	if err != nil {
		return fmt.Errorf("failed to create event on caldav server: %w", err)
	}
	if err := ical.NewEncoder(writer).Encode(cal); err != nil {
		writer.Close()
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to upload event: %w", err)
	}

	c.logger.Debugw("Published event", "uid", uid, "title", task.Title)
	return nil
}

// Remove deletes a previously published event.
func (c *Client) Remove(ctx context.Context, uid string) error {
	if err := c.webdavClient.RemoveAll(ctx, c.objectPath(uid)); err != nil {
		return fmt.Errorf("failed to remove event %s: %w", uid, err)
	}
	c.logger.Debugw("Removed event", "uid", uid)
	return nil
}

func (c *Client) objectPath(uid string) string {
	return path.Join(c.calendarPath, url.PathEscape(uid)+".ics")
}

// findCalendar walks principal, home set and calendars and returns the
// path of the calendar with the given name.
func (c *Client) findCalendar(ctx context.Context, name string) (string, error) {
	principalPath, err := c.caldavClient.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal path: %w", err)
	}

	homeSetPath, err := c.caldavClient.FindCalendarHomeSet(ctx, principalPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	calendars, err := c.caldavClient.FindCalendars(ctx, homeSetPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}

	for _, cal := range calendars {
		if cal.Name == name {
			return cal.Path, nil
		}
	}
	return "", fmt.Errorf("no calendar named %q among %d calendars", name, len(calendars))
}

// Calendar wraps the event of a task in a VCALENDAR. Tasks without a due
// time have no event.
func Calendar(uid string, task *models.Task, stamp time.Time) (*ical.Calendar, error) {
	if task.Due == nil {
		return nil, fmt.Errorf("task %s has no due time", task.ID)
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ics.ProductID)
	cal.Children = append(cal.Children, toICal(uid, task, stamp))
	return cal, nil
}

func toICal(uid string, task *models.Task, stamp time.Time) *ical.Component {
	start := task.Due.Truncate(time.Minute)
	end := start.Add(time.Duration(task.EffectiveDuration()) * time.Minute)

	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, uid)
	ve.Props.SetText(ical.PropSummary, task.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, start)
	ve.Props.SetDateTime(ical.PropDateTimeEnd, end)

	if task.Category != "" {
		ve.Props.SetText(ical.PropCategories, task.Category)
	}
	p := ical.NewProp(ical.PropPriority)
	p.SetValueType(ical.ValueInt)
	p.Value = fmt.Sprint(priority(task.Importance))
	ve.Props.Set(p)
	return ve
}

// priority maps importance 5..1 onto iCalendar priorities 1..9.
func priority(importance int) int {
	if importance < 1 || importance > 5 {
		return 0
	}
	return 1 + (5-importance)*2
}
