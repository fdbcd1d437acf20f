package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"daydesk/internal/models"
	"daydesk/internal/pomodoro"
	"daydesk/internal/store"
)

type memPersistence struct {
	mu       sync.Mutex
	tasks    []*models.Task
	settings store.Settings
	counters store.Counters
	writes   chan []*models.Task
}

func newMemPersistence() *memPersistence {
	return &memPersistence{writes: make(chan []*models.Task, 100)}
}

func (m *memPersistence) LoadTasks() ([]*models.Task, error) { return m.tasks, nil }
func (m *memPersistence) SaveTasks(t []*models.Task) error {
	m.mu.Lock()
	m.tasks = t
	m.mu.Unlock()
	m.writes <- t
	return nil
}
func (m *memPersistence) LoadSettings() (store.Settings, error) { return m.settings, nil }
func (m *memPersistence) SaveSettings(s store.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = s
	return nil
}
func (m *memPersistence) LoadCounters() (store.Counters, error) { return m.counters, nil }
func (m *memPersistence) SaveCounters(c store.Counters) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = c
	return nil
}

type fakeBlobs struct {
	failPut bool
	blobs   map[string]*store.Blob
	deleted []string
}

func newFakeBlobs() *fakeBlobs { return &fakeBlobs{blobs: make(map[string]*store.Blob)} }

func (f *fakeBlobs) Put(_ context.Context, id, name, typ string, r io.Reader) error {
	if f.failPut {
		return errors.New("disk full")
	}
	data, _ := io.ReadAll(r)
	f.blobs[id] = &store.Blob{ID: id, Name: name, Type: typ, Data: data}
	return nil
}

func (f *fakeBlobs) Get(_ context.Context, id string) (*store.Blob, error) {
	b, ok := f.blobs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return b, nil
}

func (f *fakeBlobs) Delete(_ context.Context, id string) error {
	delete(f.blobs, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeSink struct {
	deny error
	sent []string
}

func (f *fakeSink) RequestPermission(context.Context) error { return f.deny }
func (f *fakeSink) Notify(title, body string)               { f.sent = append(f.sent, title+": "+body) }

type fixture struct {
	c       *Controller
	clock   *clockwork.FakeClock
	persist *memPersistence
	blobs   *fakeBlobs
	sink    *fakeSink
	notices []string
}

var startTime = time.Date(2024, 1, 1, 9, 7, 0, 0, time.UTC)

func newFixture(t *testing.T, seed func(*memPersistence)) *fixture {
	t.Helper()
	f := &fixture{
		clock:   clockwork.NewFakeClockAt(startTime),
		persist: newMemPersistence(),
		blobs:   newFakeBlobs(),
		sink:    &fakeSink{},
	}
	if seed != nil {
		seed(f.persist)
	}
	c, err := New(Deps{
		Clock:       f.clock,
		Location:    time.UTC,
		Persistence: f.persist,
		Blobs:       f.blobs,
		Notifier:    f.sink,
		Notices:     NoticeFunc(func(msg string) { f.notices = append(f.notices, msg) }),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	f.c = c
	return f
}

func (f *fixture) waitWrite(t *testing.T) []*models.Task {
	t.Helper()
	f.clock.Advance(store.DefaultQuiet)
	select {
	case tasks := <-f.persist.writes:
		return tasks
	case <-time.After(time.Second):
		t.Fatal("Expected a write")
		return nil
	}
}

func TestCreateTask(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	task, err := f.c.CreateTask(ctx, NewTask{Title: "  Write report  ", Category: " Work "})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if task.Title != "Write report" || task.Category != "Work" {
		t.Errorf("Expected trimmed fields, got %q / %q", task.Title, task.Category)
	}
	if task.Duration != models.DefaultDuration || task.Importance != models.DefaultImportance {
		t.Errorf("Expected defaults, got duration %d importance %d", task.Duration, task.Importance)
	}
	if !task.Created.Equal(startTime) {
		t.Errorf("Expected created at clock time, got %v", task.Created)
	}

	if _, err := f.c.CreateTask(ctx, NewTask{Title: "   "}); !errors.Is(err, ErrInvalidTask) {
		t.Errorf("Expected ErrInvalidTask for blank title, got %v", err)
	}
	if _, err := f.c.CreateTask(ctx, NewTask{Title: "Too important", Importance: 9}); !errors.Is(err, ErrInvalidTask) {
		t.Errorf("Expected ErrInvalidTask for importance 9, got %v", err)
	}
	if got := len(f.c.List(ListOptions{Status: StatusAll})); got != 1 {
		t.Errorf("Expected 1 task, got %d", got)
	}
}

func TestCreateTaskAttachment(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	task, err := f.c.CreateTask(ctx, NewTask{
		Title:      "With file",
		Attachment: &Attachment{Name: "a.txt", Type: "text/plain", Body: strings.NewReader("hi")},
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if task.File == nil || !strings.HasPrefix(task.File.ID, "file-") {
		t.Fatalf("Expected attachment reference, got %+v", task.File)
	}
	blob, err := f.c.Attachment(ctx, task.ID)
	if err != nil {
		t.Fatalf("Attachment failed: %v", err)
	}
	if string(blob.Data) != "hi" {
		t.Errorf("Expected blob data 'hi', got %q", blob.Data)
	}

	if err := f.c.Delete(ctx, task.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(f.blobs.deleted) != 1 || f.blobs.deleted[0] != task.File.ID {
		t.Errorf("Expected attachment deleted with task, got %v", f.blobs.deleted)
	}
	if _, err := f.c.Task(task.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Expected ErrTaskNotFound after delete, got %v", err)
	}
}

func TestCreateTaskAttachmentFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.blobs.failPut = true

	task, err := f.c.CreateTask(context.Background(), NewTask{
		Title:      "Still created",
		Attachment: &Attachment{Name: "a.txt", Body: strings.NewReader("hi")},
	})
	if err != nil {
		t.Fatalf("CreateTask should not fail on attachment errors: %v", err)
	}
	if task.File != nil {
		t.Errorf("Expected no attachment, got %+v", task.File)
	}
	if len(f.notices) == 0 || f.notices[0] != "Error saving attachment" {
		t.Errorf("Expected an attachment notice, got %v", f.notices)
	}
	if _, err := f.c.Attachment(context.Background(), task.ID); !errors.Is(err, ErrNoAttachment) {
		t.Errorf("Expected ErrNoAttachment, got %v", err)
	}
}

func TestListFilterAndSort(t *testing.T) {
	due1 := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	due2 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	f := newFixture(t, func(m *memPersistence) {
		m.tasks = []*models.Task{
			{ID: "a", Title: "Alpha", Importance: 2, Created: startTime, Due: &due1, Category: "Home"},
			{ID: "b", Title: "Beta", Importance: 5, Created: startTime.Add(time.Minute), Due: &due2},
			{ID: "c", Title: "Gamma", Importance: 5, Created: startTime.Add(-time.Minute)},
			{ID: "d", Title: "Delta", Importance: 4, Created: startTime, Done: true},
		}
	})

	ids := func(tasks []*models.Task) string {
		var b strings.Builder
		for _, t := range tasks {
			b.WriteString(t.ID)
		}
		return b.String()
	}

	tests := []struct {
		name string
		opts ListOptions
		want string
	}{
		{"open by priority", ListOptions{}, "cba"},
		{"all by priority", ListOptions{Status: StatusAll}, "cbda"},
		{"done only", ListOptions{Status: StatusDone}, "d"},
		{"by due", ListOptions{Sort: SortDue}, "cba"},
		{"by created", ListOptions{Sort: SortCreated}, "cab"},
		{"query title", ListOptions{Query: "ETA"}, "b"},
		{"query category", ListOptions{Query: "home"}, "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ids(f.c.List(tt.opts)); got != tt.want {
				t.Errorf("List(%+v) = %s, want %s", tt.opts, got, tt.want)
			}
		})
	}
}

func TestEditTasks(t *testing.T) {
	f := newFixture(t, func(m *memPersistence) {
		m.tasks = []*models.Task{{ID: "a", Title: "Alpha", Importance: 3}}
	})

	if err := f.c.Rename("a", "  "); err != nil {
		t.Fatalf("Rename with blank title failed: %v", err)
	}
	if err := f.c.Rename("a", "Omega"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if err := f.c.SetDone("a", true); err != nil {
		t.Fatalf("SetDone failed: %v", err)
	}
	task, _ := f.c.Task("a")
	if task.Title != "Omega" || !task.Done {
		t.Errorf("Unexpected task %+v", task)
	}
	if err := f.c.SetDone("missing", true); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Expected ErrTaskNotFound, got %v", err)
	}
}

func TestAutoPlan(t *testing.T) {
	f := newFixture(t, func(m *memPersistence) {
		m.settings = store.Settings{NotifyGranted: true, CurrentDay: "2024-01-01"}
		m.tasks = []*models.Task{
			{ID: "low", Title: "Low", Importance: 1, Created: startTime},
			{ID: "high", Title: "High", Importance: 5, Created: startTime},
			{ID: "done", Title: "Done", Importance: 5, Created: startTime, Done: true},
		}
	})

	placements := f.c.AutoPlan()

	if len(placements) != 2 {
		t.Fatalf("Expected 2 placements, got %d", len(placements))
	}
	if placements[0].Task.ID != "high" || placements[0].Start.Format("15:04") != "09:30" {
		t.Errorf("Expected High at 09:30, got %s at %s", placements[0].Task.ID, placements[0].Start.Format("15:04"))
	}
	if placements[1].Task.ID != "low" || placements[1].Start.Format("15:04") != "10:00" {
		t.Errorf("Expected Low at 10:00, got %s at %s", placements[1].Task.ID, placements[1].Start.Format("15:04"))
	}

	high, _ := f.c.Task("high")
	if high.Due == nil || high.Due.Format("15:04") != "09:30" {
		t.Errorf("Expected due set on task, got %v", high.Due)
	}
	if len(f.sink.sent) != 2 || f.sink.sent[0] != "Day plan: High at 09:30" {
		t.Errorf("Unexpected notifications %v", f.sink.sent)
	}

	view, err := f.c.DayView()
	if err != nil {
		t.Fatalf("DayView failed: %v", err)
	}
	if evs := view.Events[3]; len(evs) != 1 || evs[0].TaskID != "high" {
		t.Errorf("Expected High in the 09:30 slot, got %v", evs)
	}
	if view.NowSlot != 2 {
		t.Errorf("Expected now slot 2 (09:00), got %d", view.NowSlot)
	}

	saved := f.waitWrite(t)
	if len(saved) != 3 || saved[1].Due == nil {
		t.Errorf("Expected planned due times to be persisted, got %+v", saved)
	}
}

func TestAutoPlanInvalidDay(t *testing.T) {
	f := newFixture(t, func(m *memPersistence) {
		m.settings = store.Settings{CurrentDay: "not-a-day"}
		m.tasks = []*models.Task{{ID: "a", Title: "A", Importance: 3}}
	})

	if got := f.c.AutoPlan(); got != nil {
		t.Fatalf("Expected no placements, got %v", got)
	}
	task, _ := f.c.Task("a")
	if task.Due != nil {
		t.Errorf("Expected task to stay unscheduled, got %v", task.Due)
	}
}

func TestAutoPlanInvalidDayWhileDayChanges(t *testing.T) {
	f := newFixture(t, func(m *memPersistence) {
		m.settings = store.Settings{CurrentDay: "not-a-day"}
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.c.ShiftDay(1)
	}()
	f.c.AutoPlan()
	<-done

	if got := f.c.CurrentDay(); got != "2024-01-02" {
		t.Errorf("Expected the shifted day 2024-01-02, got %s", got)
	}
}

func TestDebouncedSave(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	for _, title := range []string{"one", "two", "three"} {
		if _, err := f.c.CreateTask(ctx, NewTask{Title: title}); err != nil {
			t.Fatalf("CreateTask failed: %v", err)
		}
		f.clock.Advance(store.DefaultQuiet / 2)
	}

	saved := f.waitWrite(t)
	if len(saved) != 3 {
		t.Fatalf("Expected final state with 3 tasks, got %d", len(saved))
	}

	f.clock.Advance(time.Second)
	select {
	case <-f.persist.writes:
		t.Fatal("Expected exactly one write")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCloseFlushes(t *testing.T) {
	f := newFixture(t, nil)
	if _, err := f.c.CreateTask(context.Background(), NewTask{Title: "one"}); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	f.c.Close()
	select {
	case saved := <-f.persist.writes:
		if len(saved) != 1 {
			t.Errorf("Expected 1 task saved, got %d", len(saved))
		}
	default:
		t.Fatal("Expected Close to write pending changes")
	}
}

func TestICSImportExport(t *testing.T) {
	f := newFixture(t, nil)
	due := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	if _, err := f.c.CreateTask(context.Background(), NewTask{Title: "Standup", Due: &due, Category: "Work", Importance: 5}); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	var buf bytes.Buffer
	if err := f.c.ExportICS(&buf); err != nil {
		t.Fatalf("ExportICS failed: %v", err)
	}
	if !strings.Contains(buf.String(), "DTSTART:20240101T100000\r\n") {
		t.Fatalf("Unexpected export:\n%s", buf.String())
	}

	if n := f.c.ImportICS(buf.String()); n != 1 {
		t.Fatalf("Expected 1 imported task, got %d", n)
	}
	imported := f.c.List(ListOptions{Query: "imported"})
	if len(imported) != 1 {
		t.Fatalf("Expected 1 task in category Imported, got %d", len(imported))
	}
	if !imported[0].Due.Equal(due) || imported[0].Duration != 30 || imported[0].Importance != 3 {
		t.Errorf("Unexpected imported task %+v", imported[0])
	}
}

func TestAddTasksSkipsDuplicates(t *testing.T) {
	f := newFixture(t, nil)
	due := startTime.Add(time.Hour)
	in := []*models.Task{
		{ID: "g1", Title: "Meeting", Due: &due, Importance: 3, ExternalID: "evt-1"},
		{ID: "g2", Title: "", Importance: 3, ExternalID: "evt-2"},
	}
	if n := f.c.AddTasks(in); n != 1 {
		t.Fatalf("Expected 1 task added, got %d", n)
	}
	again := []*models.Task{{ID: "g3", Title: "Meeting", Due: &due, Importance: 3, ExternalID: "evt-1"}}
	if n := f.c.AddTasks(again); n != 0 {
		t.Errorf("Expected duplicate to be skipped, got %d added", n)
	}
}

func TestNotificationsPermission(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.sink.deny = errors.New("no desktop")
	if err := f.c.SetNotifications(ctx, true); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("Expected ErrPermissionDenied, got %v", err)
	}
	if f.c.Settings().NotifyGranted {
		t.Error("Expected notifications to stay off")
	}

	f.sink.deny = nil
	if err := f.c.SetNotifications(ctx, true); err != nil {
		t.Fatalf("SetNotifications failed: %v", err)
	}
	if !f.c.Settings().NotifyGranted {
		t.Error("Expected notifications on")
	}
}

func TestDayNavigationAndTheme(t *testing.T) {
	f := newFixture(t, nil)

	if got := f.c.CurrentDay(); got != "2024-01-01" {
		t.Fatalf("Expected today as default day, got %s", got)
	}
	if day, _ := f.c.ShiftDay(-1); day != "2023-12-31" {
		t.Errorf("Expected 2023-12-31, got %s", day)
	}
	if err := f.c.SetDay("2024-02-29"); err != nil {
		t.Fatalf("SetDay failed: %v", err)
	}
	if err := f.c.SetDay("tomorrow"); err == nil {
		t.Error("Expected error for malformed day")
	}
	if got := f.c.CurrentDay(); got != "2024-02-29" {
		t.Errorf("Expected 2024-02-29, got %s", got)
	}

	if got := f.c.Settings().Theme; got != ThemeDark {
		t.Errorf("Expected dark theme by default, got %s", got)
	}
	if err := f.c.SetTheme("solarized"); err == nil {
		t.Error("Expected error for unknown theme")
	}
	if err := f.c.SetTheme(ThemeLight); err != nil {
		t.Fatalf("SetTheme failed: %v", err)
	}
	if got := f.c.Settings().Theme; got != ThemeLight {
		t.Errorf("Expected light theme, got %s", got)
	}
}

func TestPomodoroCountsCompletedWork(t *testing.T) {
	f := newFixture(t, func(m *memPersistence) {
		m.settings = store.Settings{NotifyGranted: true}
		m.counters = store.Counters{Pomodoros: 3}
	})

	timer := f.c.Pomodoro(1, 1, 2)
	timer.Start()
	for i := 0; i < 60; i++ {
		timer.Tick()
	}

	if got := f.c.PomodoroCount(); got != 4 {
		t.Errorf("Expected 4 pomodoros, got %d", got)
	}
	if s := timer.Status(); s.Phase != pomodoro.LongBreak || s.Remaining != 2*time.Minute {
		t.Errorf("Expected a 2 minute long break, got %+v", s)
	}
	if len(f.sink.sent) != 1 || f.sink.sent[0] != "Pomodoro: Time for a break" {
		t.Errorf("Unexpected notifications %v", f.sink.sent)
	}
	if p := f.c.Settings().Pomodoro; p == nil || p.Work != 1 || p.Long != 2 {
		t.Errorf("Expected durations saved, got %+v", p)
	}

	f.c.ResetPomodoroCount()
	if got := f.c.PomodoroCount(); got != 0 {
		t.Errorf("Expected counter reset, got %d", got)
	}
}

func TestSummarize(t *testing.T) {
	f := newFixture(t, nil)
	bullets, actions := f.c.Summarize("   ")
	if bullets != nil || actions != nil {
		t.Error("Expected nothing for blank notes")
	}
	bullets, actions = f.c.Summarize("- enviar ata\nprazo amanhã")
	if len(bullets) != 2 || len(actions) != 1 || actions[0] != "enviar ata" {
		t.Errorf("Unexpected summary %v / %v", bullets, actions)
	}
}

func TestCreateTaskUnreadableAttachment(t *testing.T) {
	f := newFixture(t, nil)

	task, err := f.c.CreateTask(context.Background(), NewTask{
		Title:      "Missing file",
		Attachment: &Attachment{Name: "gone.pdf", Err: errors.New("no such file")},
	})
	if err != nil {
		t.Fatalf("CreateTask should not fail on unreadable attachments: %v", err)
	}
	if task.File != nil {
		t.Errorf("Expected no attachment, got %+v", task.File)
	}
	if len(f.blobs.blobs) != 0 {
		t.Errorf("Expected nothing stored, got %d blobs", len(f.blobs.blobs))
	}
	if len(f.notices) == 0 || f.notices[0] != "Error saving attachment" {
		t.Errorf("Expected an attachment notice, got %v", f.notices)
	}
}
