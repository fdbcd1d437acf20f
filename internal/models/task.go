package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// DefaultDuration is used when a task has no duration.
	DefaultDuration = 30
	// MinDuration is the shortest slot a scheduled task may occupy.
	MinDuration = 5
	// DefaultImportance is the priority assigned when none is given.
	DefaultImportance = 3

	// CategoryImported marks tasks created from an ICS document.
	CategoryImported = "Imported"
	// CategoryGoogle marks tasks pulled from Google Calendar.
	CategoryGoogle = "Google"
)

// FileRef points at an attachment held by the blob store.
type FileRef struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Task is a to-do item owned by the task store.
type Task struct {
	ID         string     `json:"id" validate:"required"`
	Title      string     `json:"title" validate:"required"`
	Due        *time.Time `json:"due,omitempty"`
	Duration   int        `json:"duration" validate:"gte=0"`
	Importance int        `json:"importance" validate:"gte=1,lte=5"`
	Category   string     `json:"category,omitempty"`
	Created    time.Time  `json:"created"`
	Done       bool       `json:"done"`
	File       *FileRef   `json:"file,omitempty" validate:"omitempty"`
	ExternalID string     `json:"external_id,omitempty"` // e.g. the Google event id for pulled tasks
}

var validate = validator.New()

// Validate checks the task's required fields and ranges.
func (t *Task) Validate() error {
	return validate.Struct(t)
}

// EffectiveDuration returns the minutes the task occupies once scheduled:
// the default when unset, never less than MinDuration.
func (t *Task) EffectiveDuration() int {
	d := t.Duration
	if d == 0 {
		d = DefaultDuration
	}
	return max(MinDuration, d)
}

// Event derives the calendar placement for the task. ok is false when the
// task has no due time.
func (t *Task) Event() (Event, bool) {
	if t.Due == nil {
		return Event{}, false
	}
	return Event{
		Title:     t.Title,
		StartTime: *t.Due,
		Duration:  t.EffectiveDuration(),
		TaskID:    t.ID,
		Done:      t.Done,
		HasFile:   t.File != nil && t.File.ID != "",
	}, true
}
