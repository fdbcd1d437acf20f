package app

import (
	"fmt"
	"io"
	"strings"

	"daydesk/internal/ics"
	"daydesk/internal/models"
)

// ExportICS writes every task with a due time as an iCalendar document.
func (c *Controller) ExportICS(w io.Writer) error {
	c.mu.Lock()
	doc := ics.Format(c.state.Tasks, c.loc)
	c.mu.Unlock()

	if _, err := io.WriteString(w, doc); err != nil {
		return fmt.Errorf("failed to write calendar: %w", err)
	}
	c.notice(".ics exported")
	return nil
}

// ImportICS adds a task for every event with a usable start and returns
// how many were added.
func (c *Controller) ImportICS(text string) int {
	now := c.now()
	var tasks []*models.Task
	for _, it := range ics.Decode(text, c.loc) {
		tasks = append(tasks, it.Task(now))
	}
	n := c.AddTasks(tasks)
	c.notice(fmt.Sprintf("Imported %d event(s)", n))
	return n
}

// AddTasks appends externally created tasks. Invalid tasks and tasks whose
// ExternalID is already present are skipped.
func (c *Controller) AddTasks(tasks []*models.Task) int {
	c.mu.Lock()
	seen := make(map[string]bool)
	for _, t := range c.state.Tasks {
		if t.ExternalID != "" {
			seen[t.ExternalID] = true
		}
	}

	added := 0
	for _, t := range tasks {
		t.Title = strings.TrimSpace(t.Title)
		if err := t.Validate(); err != nil {
			c.logger.Debugw("Skipping invalid task", "title", t.Title, "error", err)
			continue
		}
		if t.ExternalID != "" {
			if seen[t.ExternalID] {
				continue
			}
			seen[t.ExternalID] = true
		}
		if t.Due != nil {
			due := t.Due.In(c.loc)
			t.Due = &due
		}
		c.state.Tasks = append(c.state.Tasks, cloneTask(t))
		added++
	}
	c.mu.Unlock()

	if added > 0 {
		c.save()
	}
	c.logger.Infow("Tasks imported", "count", added)
	return added
}

// Summarize returns the summary bullets and action items of meeting notes.
func (c *Controller) Summarize(text string) (bullets, actions []string) {
	if strings.TrimSpace(text) == "" {
		c.notice("Paste some notes to summarize")
		return nil, nil
	}
	bullets = c.summarizer.Summarize(text)
	actions = c.summarizer.DetectActions(text)
	c.notice("Summary ready")
	return bullets, actions
}
