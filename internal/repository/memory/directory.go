package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/repository"
)

type categoryRepository struct {
	store *Store
}

// NewCategoryRepository returns a CategoryRepository over the store.
func NewCategoryRepository(store *Store) repository.CategoryRepository {
	return &categoryRepository{store: store}
}

func (r *categoryRepository) GetByID(_ context.Context, id string) (*domain.Category, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	c, ok := r.store.categories[id]
	if !ok {
		return nil, fmt.Errorf("get category: %w", repository.ErrNotFound)
	}
	return &c, nil
}

func (r *categoryRepository) List(_ context.Context) ([]domain.Category, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []domain.Category
	for _, c := range r.store.categories {
		if c.Active {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

type workerRepository struct {
	store *Store
}

// NewWorkerRepository returns a WorkerRepository over the store.
func NewWorkerRepository(store *Store) repository.WorkerRepository {
	return &workerRepository{store: store}
}

func (r *workerRepository) GetByID(_ context.Context, id string) (*domain.Worker, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	w, ok := r.store.workers[id]
	if !ok {
		return nil, fmt.Errorf("get worker: %w", repository.ErrNotFound)
	}
	w.CategoryIDs = append([]string(nil), w.CategoryIDs...)
	return &w, nil
}

func (r *workerRepository) GetByEmail(_ context.Context, email string) (*domain.Worker, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, w := range r.store.workers {
		if strings.EqualFold(w.Email, email) {
			w.CategoryIDs = append([]string(nil), w.CategoryIDs...)
			return &w, nil
		}
	}
	return nil, fmt.Errorf("get worker by email: %w", repository.ErrNotFound)
}

func (r *workerRepository) ListActive(_ context.Context, role *domain.WorkerRole) ([]domain.Worker, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []domain.Worker
	for _, w := range r.store.workers {
		if !w.Active || (role != nil && w.Role != *role) {
			continue
		}
		w.CategoryIDs = append([]string(nil), w.CategoryIDs...)
		result = append(result, w)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

type settingsRepository struct {
	store *Store
}

// NewSettingsRepository returns a SettingsRepository over the store.
func NewSettingsRepository(store *Store) repository.SettingsRepository {
	return &settingsRepository{store: store}
}

func (r *settingsRepository) Get(_ context.Context, managerID string) (*domain.AutoAssignmentSettings, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	s, ok := r.store.settings[managerID]
	if !ok {
		return nil, fmt.Errorf("get auto-assignment settings: %w", repository.ErrNotFound)
	}
	return &s, nil
}

func (r *settingsRepository) Save(_ context.Context, s *domain.AutoAssignmentSettings) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored := *s
	if existing, ok := r.store.settings[s.ManagerID]; ok {
		stored.LastRunAt = existing.LastRunAt
		stored.TicketsAssigned = existing.TicketsAssigned
	}
	r.store.settings[s.ManagerID] = stored
	return nil
}

func (r *settingsRepository) RecordRun(_ context.Context, managerID string, at time.Time, assigned int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.settings[managerID]
	if !ok {
		return fmt.Errorf("record auto-assignment run: %w", repository.ErrNotFound)
	}
	s.LastRunAt = &at
	s.TicketsAssigned += assigned
	r.store.settings[managerID] = s
	return nil
}
