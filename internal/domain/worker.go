package domain

import "time"

// WorkerRole enumerates helpdesk roles.
type WorkerRole string

const (
	WorkerRoleAgent   WorkerRole = "agent"
	WorkerRoleManager WorkerRole = "manager"
	WorkerRoleAdmin   WorkerRole = "admin"
)

// Worker is a support agent or manager who handles tickets.
type Worker struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         WorkerRole
	CategoryIDs  []string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CanManage reports whether the worker may act on other workers' calendars.
func (w *Worker) CanManage() bool {
	return w.Role == WorkerRoleManager || w.Role == WorkerRoleAdmin
}

// Category groups tickets by kind of work with a default resolution time.
type Category struct {
	ID             string
	Name           string
	DefaultMinutes int
	Active         bool
}

// Snapshot copies the category for embedding in a ticket.
func (c Category) Snapshot() CategorySnapshot {
	return CategorySnapshot{ID: c.ID, Name: c.Name, DefaultMinutes: c.DefaultMinutes}
}
