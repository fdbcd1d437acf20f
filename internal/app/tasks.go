package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"daydesk/internal/models"
	"daydesk/internal/planner"
	"daydesk/internal/store"
)

// Attachment is a file to store alongside a new task. Err reports a file
// that could not be opened; the task is then created without it.
type Attachment struct {
	Name string
	Type string
	Body io.Reader
	Err  error
}

// NewTask is the input of CreateTask. Zero Duration and Importance take
// the defaults.
type NewTask struct {
	Title      string
	Due        *time.Time
	Duration   int
	Importance int
	Category   string
	Attachment *Attachment
}

// CreateTask adds a task to the end of the list. When the attachment cannot
// be stored the task is created without it.
func (c *Controller) CreateTask(ctx context.Context, in NewTask) (*models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidTask)
	}

	t := &models.Task{
		ID:         uuid.NewString(),
		Title:      title,
		Duration:   in.Duration,
		Importance: in.Importance,
		Category:   strings.TrimSpace(in.Category),
		Created:    c.now(),
	}
	if t.Duration == 0 {
		t.Duration = models.DefaultDuration
	}
	if t.Importance == 0 {
		t.Importance = models.DefaultImportance
	}
	if in.Due != nil {
		due := in.Due.In(c.loc)
		t.Due = &due
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTask, err)
	}

	if in.Attachment != nil {
		t.File = c.storeAttachment(ctx, in.Attachment)
	}

	c.mu.Lock()
	c.state.Tasks = append(c.state.Tasks, t)
	c.mu.Unlock()
	c.save()

	c.logger.Infow("Task created", "id", t.ID, "title", t.Title)
	c.notice("Task created")
	return cloneTask(t), nil
}

func (c *Controller) storeAttachment(ctx context.Context, a *Attachment) *models.FileRef {
	if a.Err != nil {
		c.logger.Warnw("Cannot read attachment, creating task without it", "name", a.Name, "error", a.Err)
		c.notice("Error saving attachment")
		return nil
	}
	if c.blobs == nil {
		c.notice("Error saving attachment")
		return nil
	}
	id := "file-" + uuid.NewString()
	if err := c.blobs.Put(ctx, id, a.Name, a.Type, a.Body); err != nil {
		c.logger.Warnw("Failed to store attachment, creating task without it", "name", a.Name, "error", err)
		c.notice("Error saving attachment")
		return nil
	}
	return &models.FileRef{ID: id, Name: a.Name, Type: a.Type}
}

// Task returns a copy of the task with id.
func (c *Controller) Task(id string) (*models.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, t := c.find(id)
	if t == nil {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return cloneTask(t), nil
}

// SetDone marks a task completed or open.
func (c *Controller) SetDone(id string, done bool) error {
	c.mu.Lock()
	_, t := c.find(id)
	if t == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	t.Done = done
	c.mu.Unlock()
	c.save()

	c.notice("Task updated")
	return nil
}

// Rename changes a task's title. Blank titles are ignored.
func (c *Controller) Rename(id, title string) error {
	title = strings.TrimSpace(title)
	c.mu.Lock()
	_, t := c.find(id)
	if t == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if title == "" {
		c.mu.Unlock()
		return nil
	}
	t.Title = title
	c.mu.Unlock()
	c.save()
	return nil
}

// Delete removes a task and its attachment. A failure to delete the blob
// does not keep the task.
func (c *Controller) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	i, t := c.find(id)
	if t == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	c.state.Tasks = append(c.state.Tasks[:i:i], c.state.Tasks[i+1:]...)
	c.mu.Unlock()

	if t.File != nil && t.File.ID != "" && c.blobs != nil {
		if err := c.blobs.Delete(ctx, t.File.ID); err != nil {
			c.logger.Warnw("Failed to delete attachment", "task", id, "file", t.File.ID, "error", err)
		}
	}
	c.save()

	c.logger.Infow("Task deleted", "id", id)
	return nil
}

// Attachment returns the blob attached to a task.
func (c *Controller) Attachment(ctx context.Context, id string) (*store.Blob, error) {
	t, err := c.Task(id)
	if err != nil {
		return nil, err
	}
	if t.File == nil || t.File.ID == "" || c.blobs == nil {
		return nil, ErrNoAttachment
	}
	b, err := c.blobs.Get(ctx, t.File.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.notice("Attachment not found")
			return nil, ErrNoAttachment
		}
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}
	return b, nil
}

// Status filters for ListOptions.
const (
	StatusOpen = "open"
	StatusDone = "done"
	StatusAll  = "all"
)

// Sort orders for ListOptions.
const (
	SortPriority = "priority"
	SortDue      = "due"
	SortCreated  = "created"
)

// ListOptions select and order the tasks returned by List.
type ListOptions struct {
	Status string // open (default), done or all
	Query  string // case-insensitive match on title or category
	Sort   string // priority (default), due or created
}

// List returns copies of the matching tasks.
func (c *Controller) List(opts ListOptions) []*models.Task {
	q := strings.ToLower(strings.TrimSpace(opts.Query))

	c.mu.Lock()
	var items []*models.Task
	for _, t := range c.state.Tasks {
		switch opts.Status {
		case StatusAll:
		case StatusDone:
			if !t.Done {
				continue
			}
		default:
			if t.Done {
				continue
			}
		}
		if q != "" && !strings.Contains(strings.ToLower(t.Title), q) && !strings.Contains(strings.ToLower(t.Category), q) {
			continue
		}
		items = append(items, cloneTask(t))
	}
	c.mu.Unlock()

	switch opts.Sort {
	case SortDue:
		sort.SliceStable(items, func(i, j int) bool { return dueOrZero(items[i]).Before(dueOrZero(items[j])) })
	case SortCreated:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Created.Before(items[j].Created) })
	default:
		sort.SliceStable(items, func(i, j int) bool { return planner.ByPriority(items[i], items[j]) })
	}
	return items
}

// Overdue reports whether an open task's due time has passed.
func (c *Controller) Overdue(t *models.Task) bool {
	return !t.Done && t.Due != nil && t.Due.Before(c.now())
}

func dueOrZero(t *models.Task) time.Time {
	if t.Due == nil {
		return time.Unix(0, 0)
	}
	return *t.Due
}
