package ics

import (
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"daydesk/internal/models"
)

// DefaultTitle is used for events without a SUMMARY.
const DefaultTitle = "Imported event"

// dateOnlyHour is the hour given to events that only carry a date.
const dateOnlyHour = 8

// Item is an event read from a calendar document.
type Item struct {
	Title    string
	Start    time.Time
	Duration int // minutes
}

// Task builds a new task for the item.
func (it Item) Task(created time.Time) *models.Task {
	due := it.Start
	return &models.Task{
		ID:         uuid.NewString(),
		Title:      it.Title,
		Due:        &due,
		Duration:   it.Duration,
		Importance: models.DefaultImportance,
		Category:   models.CategoryImported,
		Created:    created,
	}
}

// Decode reads the events of an iCalendar document. Well-formed documents
// go through the full iCalendar parser; anything it rejects is scanned
// block by block instead. Events without a parseable start are skipped.
func Decode(text string, loc *time.Location) []Item {
	items, err := decodeStrict(text, loc)
	if err == nil {
		return items
	}
	return decodeLenient(text, loc)
}

func decodeStrict(text string, loc *time.Location) ([]Item, error) {
	dec := ical.NewDecoder(strings.NewReader(text))
	var items []Item
	for {
		cal, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, fmt.Errorf("failed to decode calendar: %w", err)
		}

		for _, ev := range cal.Events() {
			start, ok := propTime(ev.Props.Get(ical.PropDateTimeStart), loc)
			if !ok {
				continue
			}
			title, err := ev.Props.Text(ical.PropSummary)
			if err != nil || strings.TrimSpace(title) == "" {
				title = DefaultTitle
			}
			end, hasEnd := propTime(ev.Props.Get(ical.PropDateTimeEnd), loc)
			items = append(items, Item{
				Title:    strings.TrimSpace(title),
				Start:    start,
				Duration: duration(start, end, hasEnd),
			})
		}
	}
	if items == nil && !strings.Contains(strings.ToUpper(text), "BEGIN:VCALENDAR") {
		return nil, errors.New("no calendar found")
	}
	return items, nil
}

func propTime(p *ical.Prop, loc *time.Location) (time.Time, bool) {
	if p == nil {
		return time.Time{}, false
	}
	if len(p.Value) == len(dateFormat) {
		d, err := time.ParseInLocation(dateFormat, p.Value, loc)
		if err != nil {
			return time.Time{}, false
		}
		return d.Add(dateOnlyHour * time.Hour), true
	}
	t, err := p.DateTime(loc)
	if err != nil {
		// Unknown TZIDs (e.g. Windows zone names) are read as local wall clock.
		return parseDate(p.Value, loc)
	}
	return t.In(loc), true
}

var (
	eventMarker   = regexp.MustCompile(`(?i)BEGIN:VEVENT`)
	summaryLine   = regexp.MustCompile(`(?m)^SUMMARY(?:;[^:\r\n]*)?:(.+)$`)
	dtStartLine   = regexp.MustCompile(`(?im)^DTSTART(?:;[^:\r\n]+)?:([0-9TZ]+)`)
	dtEndLine     = regexp.MustCompile(`(?im)^DTEND(?:;[^:\r\n]+)?:([0-9TZ]+)`)
	icsDate       = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})(?:T(\d{2})(\d{2})(\d{2})?)?(Z)?`)
	foldedLine    = regexp.MustCompile(`\r?\n[ \t]`)
	textUnescaper = strings.NewReplacer(`\\`, `\`, `\,`, `,`, `\;`, `;`, `\n`, "\n", `\N`, "\n")
)

// decodeLenient scans for VEVENT blocks and pulls the properties it needs
// with line patterns, tolerating broken or partial documents.
func decodeLenient(text string, loc *time.Location) []Item {
	text = foldedLine.ReplaceAllString(text, "")
	blocks := eventMarker.Split(text, -1)
	if len(blocks) < 2 {
		return nil
	}

	var items []Item
	for _, b := range blocks[1:] {
		m := dtStartLine.FindStringSubmatch(b)
		if m == nil {
			continue
		}
		start, ok := parseDate(m[1], loc)
		if !ok {
			continue
		}

		title := DefaultTitle
		if s := summaryLine.FindStringSubmatch(b); s != nil {
			if v := strings.TrimSpace(textUnescaper.Replace(s[1])); v != "" {
				title = v
			}
		}

		var end time.Time
		hasEnd := false
		if e := dtEndLine.FindStringSubmatch(b); e != nil {
			end, hasEnd = parseDate(e[1], loc)
		}
		items = append(items, Item{Title: title, Start: start, Duration: duration(start, end, hasEnd)})
	}
	return items
}

func parseDate(s string, loc *time.Location) (time.Time, bool) {
	m := icsDate.FindStringSubmatch(strings.ToUpper(s))
	if m == nil {
		return time.Time{}, false
	}
	hh, mm, ss := "08", "00", "00"
	if m[4] != "" {
		hh, mm = m[4], m[5]
	}
	if m[6] != "" {
		ss = m[6]
	}
	value := m[1] + m[2] + m[3] + "T" + hh + mm + ss
	if m[7] == "Z" {
		t, err := time.Parse(DateTimeFormat, value)
		if err != nil {
			return time.Time{}, false
		}
		return t.In(loc), true
	}
	t, err := time.ParseInLocation(DateTimeFormat, value, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func duration(start, end time.Time, hasEnd bool) int {
	if !hasEnd {
		return models.DefaultDuration
	}
	minutes := int(math.Round(end.Sub(start).Minutes()))
	return max(models.MinDuration, minutes)
}
