// Package syncer publishes scheduled tasks to an external calendar.
package syncer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"daydesk/internal/ics"
	"daydesk/internal/logger"
	"daydesk/internal/models"
)

// Publisher writes and removes calendar events.
type Publisher interface {
	Publish(ctx context.Context, uid string, task *models.Task) error
	Remove(ctx context.Context, uid string) error
}

// StateStore persists the sync state.
type StateStore interface {
	LoadSyncState() (map[string]string, error)
	SaveSyncState(map[string]string) error
}

// SyncState maps a task id to the revision last published for it.
type SyncState map[string]string

// Result counts what a sync did.
type Result struct {
	Published int
	Removed   int
	Skipped   int
	Failed    int
}

// Syncer pushes tasks with a due time to a Publisher.
type Syncer struct {
	logger    *logger.Logger
	publisher Publisher
	states    StateStore
	dryRun    bool
	loc       *time.Location
}

// New creates a Syncer. In dry-run mode nothing is published or saved.
func New(logger *logger.Logger, publisher Publisher, states StateStore, dryRun bool, loc *time.Location) *Syncer {
	if loc == nil {
		loc = time.Local
	}
	return &Syncer{
		logger:    logger,
		publisher: publisher,
		states:    states,
		dryRun:    dryRun,
		loc:       loc,
	}
}

// Sync publishes new and changed tasks and removes events of tasks that
// are gone or no longer scheduled. Single failures are logged and skipped.
func (s *Syncer) Sync(ctx context.Context, tasks []*models.Task) (Result, error) {
	var res Result
	s.logger.Infow("Starting sync", "tasks", len(tasks), "dryRun", s.dryRun)

	stored, err := s.states.LoadSyncState()
	if err != nil {
		return res, fmt.Errorf("failed to load sync state: %w", err)
	}
	state := SyncState(stored)
	if state == nil {
		state = make(SyncState)
	}

	scheduled := make(map[string]bool)
	for _, t := range tasks {
		if t.Due == nil {
			continue
		}
		scheduled[t.ID] = true
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := s.syncTask(ctx, state, t, &res); err != nil {
			s.logger.Errorw("Failed to publish task", "id", t.ID, "title", t.Title, "error", err)
			res.Failed++
		}
	}

	for id := range state {
		if scheduled[id] {
			continue
		}
		uid := ics.UID(id)
		if s.dryRun {
			s.logger.Infow("[DRY RUN] Would remove event", "uid", uid)
			res.Removed++
			continue
		}
		if err := s.publisher.Remove(ctx, uid); err != nil {
			s.logger.Errorw("Failed to remove event", "uid", uid, "error", err)
			res.Failed++
			continue
		}
		delete(state, id)
		res.Removed++
	}

	if !s.dryRun {
		if err := s.states.SaveSyncState(state); err != nil {
			return res, fmt.Errorf("failed to save sync state: %w", err)
		}
	}

	s.logger.Infow("Sync finished", "published", res.Published, "removed", res.Removed, "skipped", res.Skipped, "failed", res.Failed)
	return res, nil
}

func (s *Syncer) syncTask(ctx context.Context, state SyncState, t *models.Task, res *Result) error {
	rev := Revision(t, s.loc)
	if state[t.ID] == rev {
		s.logger.Debugw("Task unchanged, skipping", "id", t.ID)
		res.Skipped++
		return nil
	}

	uid := ics.UID(t.ID)
	if s.dryRun {
		s.logger.Infow("[DRY RUN] Would publish event", "uid", uid, "title", t.Title, "start", t.Due.In(s.loc))
		res.Published++
		return nil
	}

	local := *t
	due := t.Due.In(s.loc)
	local.Due = &due
	if err := s.publisher.Publish(ctx, uid, &local); err != nil {
		return err
	}
	state[t.ID] = rev
	res.Published++
	return nil
}

// Revision fingerprints the fields that end up in the published event.
func Revision(t *models.Task, loc *time.Location) string {
	var due string
	if t.Due != nil {
		due = t.Due.In(loc).Truncate(time.Minute).Format(time.RFC3339)
	}
	sum := sha256.Sum256(fmt.Appendf(nil, "%s\x00%s\x00%d\x00%s\x00%d", t.Title, due, t.EffectiveDuration(), t.Category, t.Importance))
	return hex.EncodeToString(sum[:8])
}
