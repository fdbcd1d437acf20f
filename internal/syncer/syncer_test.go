package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"daydesk/internal/logger"
	"daydesk/internal/models"
)

type fakePublisher struct {
	published []string
	removed   []string
	fail      map[string]bool
}

func (f *fakePublisher) Publish(_ context.Context, uid string, _ *models.Task) error {
	if f.fail[uid] {
		return errors.New("server error")
	}
	f.published = append(f.published, uid)
	return nil
}

func (f *fakePublisher) Remove(_ context.Context, uid string) error {
	f.removed = append(f.removed, uid)
	return nil
}

type memStates struct {
	state map[string]string
	saves int
}

func (m *memStates) LoadSyncState() (map[string]string, error) {
	cp := make(map[string]string, len(m.state))
	for k, v := range m.state {
		cp[k] = v
	}
	return cp, nil
}

func (m *memStates) SaveSyncState(s map[string]string) error {
	m.state = s
	m.saves++
	return nil
}

func tasksFixture() []*models.Task {
	due := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	return []*models.Task{
		{ID: "a", Title: "Alpha", Due: &due, Duration: 30, Importance: 3},
		{ID: "b", Title: "Beta", Importance: 3},
	}
}

func TestSyncPublishesScheduledTasks(t *testing.T) {
	pub := &fakePublisher{}
	states := &memStates{}
	s := New(logger.Nop(), pub, states, false, time.UTC)
	tasks := tasksFixture()

	res, err := s.Sync(context.Background(), tasks)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if res.Published != 1 || len(pub.published) != 1 || pub.published[0] != "a@daydesk" {
		t.Fatalf("Expected a@daydesk published, got %+v / %v", res, pub.published)
	}

	res, err = s.Sync(context.Background(), tasks)
	if err != nil {
		t.Fatalf("Second sync failed: %v", err)
	}
	if res.Skipped != 1 || res.Published != 0 {
		t.Errorf("Expected unchanged task to be skipped, got %+v", res)
	}

	tasks[0].Title = "Alpha v2"
	res, _ = s.Sync(context.Background(), tasks)
	if res.Published != 1 {
		t.Errorf("Expected changed task to be republished, got %+v", res)
	}
}

func TestSyncRemovesUnscheduledTasks(t *testing.T) {
	pub := &fakePublisher{}
	states := &memStates{state: map[string]string{"gone": "rev"}}
	s := New(logger.Nop(), pub, states, false, time.UTC)

	res, err := s.Sync(context.Background(), tasksFixture())
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if res.Removed != 1 || len(pub.removed) != 1 || pub.removed[0] != "gone@daydesk" {
		t.Errorf("Expected gone@daydesk removed, got %+v / %v", res, pub.removed)
	}
	if _, ok := states.state["gone"]; ok {
		t.Error("Expected removed task to leave the sync state")
	}
}

func TestSyncContinuesAfterFailure(t *testing.T) {
	due := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	pub := &fakePublisher{fail: map[string]bool{"a@daydesk": true}}
	states := &memStates{}
	s := New(logger.Nop(), pub, states, false, time.UTC)

	tasks := []*models.Task{
		{ID: "a", Title: "Alpha", Due: &due, Importance: 3},
		{ID: "c", Title: "Gamma", Due: &due, Importance: 3},
	}
	res, err := s.Sync(context.Background(), tasks)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if res.Failed != 1 || res.Published != 1 {
		t.Errorf("Expected 1 failure and 1 publish, got %+v", res)
	}
	if _, ok := states.state["a"]; ok {
		t.Error("Expected failed task to stay out of the sync state")
	}
}

func TestSyncDryRun(t *testing.T) {
	pub := &fakePublisher{}
	states := &memStates{}
	s := New(logger.Nop(), pub, states, true, time.UTC)

	res, err := s.Sync(context.Background(), tasksFixture())
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if res.Published != 1 {
		t.Errorf("Expected 1 would-be publish, got %+v", res)
	}
	if len(pub.published) != 0 || states.saves != 0 {
		t.Errorf("Expected no side effects, got %v published and %d saves", pub.published, states.saves)
	}
}

func TestRevisionIgnoresSeconds(t *testing.T) {
	a := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	b := a.Add(42 * time.Second)
	ta := &models.Task{Title: "x", Due: &a, Importance: 3}
	tb := &models.Task{Title: "x", Due: &b, Importance: 3}
	if Revision(ta, time.UTC) != Revision(tb, time.UTC) {
		t.Error("Expected same revision within a minute")
	}
	tb.Duration = 60
	if Revision(ta, time.UTC) == Revision(tb, time.UTC) {
		t.Error("Expected duration change to change the revision")
	}
}
