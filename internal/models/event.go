package models

import "time"

// Event is a task placed on the day calendar. Events are derived from
// Task.Due and Task.Duration every time a day is projected and are never
// stored on their own.
type Event struct {
	Title     string    // Title of the linked task
	StartTime time.Time // Start time of the placement
	Duration  int       // Length of the placement in minutes
	TaskID    string    // ID of the task this event was derived from, may be empty
	Done      bool      // Whether the linked task is completed
	HasFile   bool      // Whether the linked task carries an attachment
}

// EndTime returns the time the event ends.
func (e Event) EndTime() time.Time {
	return e.StartTime.Add(time.Duration(e.Duration) * time.Minute)
}
