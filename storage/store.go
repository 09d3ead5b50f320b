package storage

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/Coachraj/Reminder-tool/domain"
)

// ErrTaskNotFound is returned by mutations referencing a missing task id.
var ErrTaskNotFound = errors.New("task not found")

// ErrEmailNotFound is returned when marking a missing inbox message read.
var ErrEmailNotFound = errors.New("email not found")

// State is the full serialized shape written to durable storage. Every
// successful mutation rewrites it wholesale; there is no partial write.
type State struct {
	Tasks    []domain.Task   `json:"tasks"`
	Emails   []domain.Email  `json:"emails"`
	Settings domain.Settings `json:"settings"`
	Contacts []string        `json:"contacts"`
}

// Persister writes and reloads the full state blob.
type Persister interface {
	Save(ctx context.Context, st State) error
	Load(ctx context.Context) (State, bool, error)
}

// Store owns the canonical task and email collections. It is the only
// writer of record; readers get snapshot copies.
type Store struct {
	mu        sync.RWMutex
	persister Persister
	clock     domain.Clock
	logger    *log.Logger

	tasks    []domain.Task
	emails   []domain.Email
	settings domain.Settings
	contacts []string
}

func New(p Persister, clock domain.Clock, logger *log.Logger) *Store {
	if clock == nil {
		clock = domain.RealClock{}
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Store{persister: p, clock: clock, logger: logger}
}

// Load rehydrates the store from the persister. A missing blob starts empty.
func (s *Store) Load(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	st, found, err := s.persister.Load(ctx)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	s.mu.Lock()
	s.tasks = st.Tasks
	s.emails = st.Emails
	s.settings = st.Settings
	s.contacts = st.Contacts
	s.mu.Unlock()
	return nil
}

// GetTasks returns a snapshot copy of all tasks in store order.
func (s *Store) GetTasks() []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyTasks(s.tasks)
}

// GetEmails returns a snapshot copy of the inbox, newest first.
func (s *Store) GetEmails() []domain.Email {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Email, len(s.emails))
	copy(out, s.emails)
	return out
}

// GetSettings returns the stored sender identity.
func (s *Store) GetSettings() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// GetContacts returns the saved-contacts set in insertion order.
func (s *Store) GetContacts() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.contacts))
	copy(out, s.contacts)
	return out
}

// AddTask creates one task from the given params. New tasks are prepended
// and start pending with no reminder history, so the next scheduling cycle
// finds them immediately due.
func (s *Store) AddTask(ctx context.Context, p domain.TaskParams) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task := s.newTask(p)
	s.tasks = append([]domain.Task{task}, s.tasks...)
	return task, s.persist(ctx)
}

// AddTasks creates one independent task per assignee from a single
// submission. Each task gets its own id, timestamps and counters.
func (s *Store) AddTasks(ctx context.Context, p domain.TaskParams, assignees []string) ([]domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	created := make([]domain.Task, 0, len(assignees))
	for _, addr := range assignees {
		tp := p
		tp.AssigneeEmail = addr
		task := s.newTask(tp)
		s.tasks = append([]domain.Task{task}, s.tasks...)
		created = append(created, task)
	}
	return created, s.persist(ctx)
}

func (s *Store) newTask(p domain.TaskParams) domain.Task {
	items := make([]domain.ChecklistItem, 0, len(p.Items))
	for _, text := range p.Items {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		items = append(items, domain.ChecklistItem{ID: uuid.NewString(), Text: text})
	}
	if len(items) == 0 {
		items = nil
	}
	return domain.Task{
		ID:            uuid.NewString(),
		Title:         p.Title,
		Description:   p.Description,
		Items:         items,
		AssigneeEmail: p.AssigneeEmail,
		SenderEmail:   p.SenderEmail,
		CompanyName:   p.CompanyName,
		IntervalHours: p.IntervalHours,
		Status:        domain.StatusPending,
		CreatedAt:     s.clock.Now().UnixMilli(),
	}
}

// UpdateTask applies mutate to the task with the given id and persists the
// result. A missing id is a no-op returning ErrTaskNotFound.
func (s *Store) UpdateTask(ctx context.Context, id string, mutate func(*domain.Task)) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			mutate(&s.tasks[i])
			task := cloneTask(s.tasks[i])
			return task, s.persist(ctx)
		}
	}
	return domain.Task{}, ErrTaskNotFound
}

// AppendEmail records one outgoing message at the head of the inbox log.
func (s *Store) AppendEmail(ctx context.Context, email domain.Email) (domain.Email, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emails = append([]domain.Email{email}, s.emails...)
	return email, s.persist(ctx)
}

// MarkEmailRead flips the read flag on an inbox message.
func (s *Store) MarkEmailRead(ctx context.Context, id string) (domain.Email, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.emails {
		if s.emails[i].ID == id {
			s.emails[i].IsRead = true
			return s.emails[i], s.persist(ctx)
		}
	}
	return domain.Email{}, ErrEmailNotFound
}

// SetSettings replaces the stored sender identity.
func (s *Store) SetSettings(ctx context.Context, settings domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	return s.persist(ctx)
}

// AddContacts unions the given addresses into the saved-contacts set and
// reports how many were new. Matching is by lower-cased exact string.
func (s *Store) AddContacts(ctx context.Context, addrs []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{}, len(s.contacts))
	for _, c := range s.contacts {
		seen[c] = struct{}{}
	}
	added := 0
	for _, addr := range addrs {
		addr = strings.ToLower(strings.TrimSpace(addr))
		if addr == "" {
			continue
		}
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		s.contacts = append(s.contacts, addr)
		added++
	}
	if added == 0 {
		return 0, nil
	}
	return added, s.persist(ctx)
}

// persist rewrites the full state through the persister. Callers hold the
// write lock. Failures are logged and surfaced, never retried.
func (s *Store) persist(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	st := State{
		Tasks:    copyTasks(s.tasks),
		Emails:   append([]domain.Email(nil), s.emails...),
		Settings: s.settings,
		Contacts: append([]string(nil), s.contacts...),
	}
	if err := s.persister.Save(ctx, st); err != nil {
		s.logger.WithError(err).Error("persisting store state failed")
		return err
	}
	return nil
}

func copyTasks(tasks []domain.Task) []domain.Task {
	out := make([]domain.Task, len(tasks))
	for i, t := range tasks {
		out[i] = cloneTask(t)
	}
	return out
}

func cloneTask(t domain.Task) domain.Task {
	if t.Items != nil {
		t.Items = append([]domain.ChecklistItem(nil), t.Items...)
	}
	if t.LastReminderAt != nil {
		ts := *t.LastReminderAt
		t.LastReminderAt = &ts
	}
	return t
}
