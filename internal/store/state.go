package store

import (
	"errors"

	"daydesk/internal/models"
)

// Keys of the documents kept in the KV store.
const (
	TasksKey     = "tasks"
	SettingsKey  = "settings"
	CountersKey  = "counters"
	SyncStateKey = "sync-state"
)

// PomodoroSettings are the phase lengths in minutes.
type PomodoroSettings struct {
	Work  int `json:"work"`
	Short int `json:"short"`
	Long  int `json:"long"`
}

// Settings are user preferences.
type Settings struct {
	Theme         string            `json:"theme,omitempty"` // "dark" or "light"
	NotifyGranted bool              `json:"notifGranted"`
	CurrentDay    string            `json:"currentDay,omitempty"` // YYYY-MM-DD
	Pomodoro      *PomodoroSettings `json:"pom,omitempty"`
}

// Counters are persisted tallies.
type Counters struct {
	Pomodoros int `json:"pomCount"`
}

// Persistence loads and saves the application's documents.
type Persistence struct {
	kv *KV
}

// NewPersistence wraps kv.
func NewPersistence(kv *KV) *Persistence {
	return &Persistence{kv: kv}
}

// LoadTasks returns the stored tasks, or none when nothing was saved yet.
func (p *Persistence) LoadTasks() ([]*models.Task, error) {
	var tasks []*models.Task
	if err := p.load(TasksKey, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// SaveTasks replaces the stored tasks.
func (p *Persistence) SaveTasks(tasks []*models.Task) error {
	if tasks == nil {
		tasks = []*models.Task{}
	}
	return p.kv.Put(TasksKey, tasks)
}

// LoadSettings returns the stored settings.
func (p *Persistence) LoadSettings() (Settings, error) {
	var s Settings
	err := p.load(SettingsKey, &s)
	return s, err
}

// SaveSettings replaces the stored settings.
func (p *Persistence) SaveSettings(s Settings) error {
	return p.kv.Put(SettingsKey, s)
}

// LoadCounters returns the stored counters.
func (p *Persistence) LoadCounters() (Counters, error) {
	var c Counters
	err := p.load(CountersKey, &c)
	return c, err
}

// SaveCounters replaces the stored counters.
func (p *Persistence) SaveCounters(c Counters) error {
	return p.kv.Put(CountersKey, c)
}

// LoadSyncState returns the task id to event UID map of published tasks.
func (p *Persistence) LoadSyncState() (map[string]string, error) {
	state := make(map[string]string)
	if err := p.load(SyncStateKey, &state); err != nil {
		return nil, err
	}
	return state, nil
}

// SaveSyncState replaces the published task map.
func (p *Persistence) SaveSyncState(state map[string]string) error {
	return p.kv.Put(SyncStateKey, state)
}

func (p *Persistence) load(key string, v any) error {
	if err := p.kv.Get(key, v); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}
