package domain

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrEmptyTaskTitle is returned when adding a task without a title.
	ErrEmptyTaskTitle = errors.New("task title is required")
	// ErrTaskNotFound is returned when a task ID does not exist.
	ErrTaskNotFound = errors.New("task not found")
	// ErrEmptyApp is returned when adding an empty app identifier.
	ErrEmptyApp = errors.New("app identifier is required")
)

// Task is an item on the user's focus list.
type Task struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

// Focus is the user's task list and default set of apps to block.
type Focus struct {
	Tasks       []Task   `json:"tasks"`
	BlockedApps []string `json:"blockedApps"`
}

// AddTask appends a new, incomplete task.
func (f *Focus) AddTask(id, title string, at time.Time) (Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Task{}, ErrEmptyTaskTitle
	}
	t := Task{ID: id, Title: title, CreatedAt: at}
	f.Tasks = append(f.Tasks, t)
	return t, nil
}

// ToggleTask flips a task's completed flag.
func (f *Focus) ToggleTask(id string) (Task, error) {
	for i := range f.Tasks {
		if f.Tasks[i].ID == id {
			f.Tasks[i].Completed = !f.Tasks[i].Completed
			return f.Tasks[i], nil
		}
	}
	return Task{}, ErrTaskNotFound
}

// RemoveTask deletes a task.
func (f *Focus) RemoveTask(id string) error {
	for i := range f.Tasks {
		if f.Tasks[i].ID == id {
			f.Tasks = append(f.Tasks[:i], f.Tasks[i+1:]...)
			return nil
		}
	}
	return ErrTaskNotFound
}

// CompletedTasks counts completed tasks.
func (f Focus) CompletedTasks() int {
	n := 0
	for _, t := range f.Tasks {
		if t.Completed {
			n++
		}
	}
	return n
}

// AddBlockedApp adds app to the default block list. Adding an app twice is a no-op.
func (f *Focus) AddBlockedApp(app string) error {
	app = strings.TrimSpace(app)
	if app == "" {
		return ErrEmptyApp
	}
	for _, a := range f.BlockedApps {
		if a == app {
			return nil
		}
	}
	f.BlockedApps = append(f.BlockedApps, app)
	return nil
}

// RemoveBlockedApp removes app and reports whether it was present.
func (f *Focus) RemoveBlockedApp(app string) bool {
	for i, a := range f.BlockedApps {
		if a == app {
			f.BlockedApps = append(f.BlockedApps[:i], f.BlockedApps[i+1:]...)
			return true
		}
	}
	return false
}

// FocusRepository is the port for focus list persistence.
type FocusRepository interface {
	// GetFocus returns nil when the user has no focus list yet.
	GetFocus(ctx context.Context, userID int64) (*Focus, error)
	SaveFocus(ctx context.Context, userID int64, focus Focus) error
}
