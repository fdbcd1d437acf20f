// Package ics converts tasks to and from a subset of iCalendar.
//
// Export writes a fixed property order with floating local times so that
// calendar apps show the task at the same wall-clock time it was planned
// for. Import accepts any calendar it can find VEVENTs in and turns every
// event with a usable start into a task.
package ics

import (
	"io"
	"strings"
	"time"

	"daydesk/internal/models"
)

const (
	// ProductID identifies documents written by Encode.
	ProductID = "-//daydesk//EN"
	// UIDDomain is appended to task ids to form event UIDs.
	UIDDomain = "daydesk"

	// DateTimeFormat is the floating local form used for DTSTART/DTEND.
	DateTimeFormat = "20060102T150405"
	dateFormat     = "20060102"

	crlf = "\r\n"
)

var textEscaper = strings.NewReplacer(`\`, `\\`, `,`, `\,`, `;`, `\;`, "\r\n", `\n`, "\n", `\n`, "\r", "")

// EscapeText prefixes the iCalendar reserved characters with a backslash
// and turns line breaks into \n.
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}

// UID returns the event UID for a task id.
func UID(taskID string) string {
	return taskID + "@" + UIDDomain
}

// Encode writes a VCALENDAR holding one VEVENT per task with a due time.
// Times are converted to loc and written without a zone designator.
func Encode(w io.Writer, tasks []*models.Task, loc *time.Location) error {
	_, err := io.WriteString(w, Format(tasks, loc))
	return err
}

// Format renders tasks as an iCalendar document.
func Format(tasks []*models.Task, loc *time.Location) string {
	var b strings.Builder
	line := func(s string) {
		b.WriteString(s)
		b.WriteString(crlf)
	}

	line("BEGIN:VCALENDAR")
	line("VERSION:2.0")
	line("PRODID:" + ProductID)
	for _, t := range tasks {
		if t.Due == nil {
			continue
		}
		start := t.Due.In(loc).Truncate(time.Minute)
		end := start.Add(time.Duration(t.EffectiveDuration()) * time.Minute)

		line("BEGIN:VEVENT")
		line("UID:" + UID(t.ID))
		line("SUMMARY:" + EscapeText(t.Title))
		line("DTSTART:" + start.Format(DateTimeFormat))
		line("DTEND:" + end.Format(DateTimeFormat))
		if t.Category != "" {
			line("CATEGORIES:" + EscapeText(t.Category))
		}
		line("END:VEVENT")
	}
	line("END:VCALENDAR")
	return b.String()
}
