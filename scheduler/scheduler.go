package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Coachraj/Reminder-tool/domain"
	"github.com/Coachraj/Reminder-tool/generator"
	"github.com/Coachraj/Reminder-tool/notify"
)

// DefaultPollInterval bounds reminder latency to a few seconds past the
// theoretical due time, independent of any task's configured interval.
const DefaultPollInterval = 5 * time.Second

const tracerName = "reminder-scheduler"

// Store is the slice of the task store the scheduler needs.
type Store interface {
	GetTasks() []domain.Task
	UpdateTask(ctx context.Context, id string, mutate func(*domain.Task)) (domain.Task, error)
	AppendEmail(ctx context.Context, email domain.Email) (domain.Email, error)
}

// Scheduler periodically scans the store for due tasks and dispatches one
// reminder per due task, strictly one generator call at a time.
type Scheduler struct {
	store    Store
	gen      generator.Generator
	notifier notify.Notifier
	clock    domain.Clock
	interval time.Duration
	logger   *log.Logger

	busy atomic.Bool
}

func New(store Store, gen generator.Generator, notifier notify.Notifier, clock domain.Clock, interval time.Duration, logger *log.Logger) *Scheduler {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	if clock == nil {
		clock = domain.RealClock{}
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Scheduler{store: store, gen: gen, notifier: notifier, clock: clock, interval: interval, logger: logger}
}

// Run attaches a wall-clock ticker and calls Tick until the context is
// cancelled. An in-flight cycle runs to completion.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.logger.Infof("reminder scheduler started, poll interval: %v", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("reminder scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one scheduling cycle. Ticks landing while a cycle is in flight
// are dropped, not queued; an idle cycle touches nothing.
func (s *Scheduler) Tick(ctx context.Context) {
	if !s.busy.CompareAndSwap(false, true) {
		s.logger.Debug("previous cycle still in flight, skipping tick")
		return
	}
	defer s.busy.Store(false)

	start := time.Now()
	now := s.clock.Now().UnixMilli()
	var due []domain.Task
	for _, task := range s.store.GetTasks() {
		if domain.Due(task, now) {
			due = append(due, task)
		}
	}
	if len(due) == 0 {
		return
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "reminders.cycle")
	defer span.End()

	fallbacks := 0
	for _, task := range due {
		if s.dispatch(ctx, task) {
			fallbacks++
		}
	}

	span.SetAttributes(
		attribute.Int("reminders.tasks_due", len(due)),
		attribute.Int("reminders.fallbacks", fallbacks),
	)
	s.logger.WithFields(log.Fields{
		"tasks_due": len(due),
		"fallbacks": fallbacks,
		"cycle_ms":  float64(time.Since(start)) / float64(time.Millisecond),
	}).Info("reminders.cycle.metrics")
}

// dispatch generates and stores one reminder for a due task, reporting
// whether the fallback draft was used. A failed generation still counts as
// a sent reminder; the fallback text is what lands in the inbox.
func (s *Scheduler) dispatch(ctx context.Context, task domain.Task) bool {
	req := generator.Request{
		TaskTitle:       task.Title,
		TaskDescription: task.Description,
		PendingItems:    task.PendingItems(),
		CompletedItems:  task.CompletedItems(),
		AssigneeEmail:   task.AssigneeEmail,
		SenderEmail:     task.SenderEmail,
		CompanyName:     task.CompanyName,
		Sequence:        task.ReminderCount,
	}
	draft, err := s.gen.Generate(ctx, req)
	usedFallback := false
	if err != nil {
		s.logger.WithError(err).WithField("task", task.ID).Warn("reminder generation failed, storing fallback draft")
		draft = generator.Fallback(req)
		usedFallback = true
	}

	sentAt := s.clock.Now().UnixMilli()
	email := domain.Email{
		ID:            uuid.NewString(),
		TaskID:        task.ID,
		TaskTitle:     task.Title,
		AssigneeEmail: task.AssigneeEmail,
		SenderEmail:   task.SenderEmail,
		CompanyName:   task.CompanyName,
		Subject:       draft.Subject,
		Content:       draft.Content,
		SentAt:        sentAt,
	}
	if _, err := s.store.AppendEmail(ctx, email); err != nil {
		s.logger.WithError(err).WithField("task", task.ID).Error("storing reminder email failed")
	}
	if _, err := s.store.UpdateTask(ctx, task.ID, func(t *domain.Task) {
		t.RecordReminder(sentAt)
	}); err != nil {
		s.logger.WithError(err).WithField("task", task.ID).Error("updating reminder bookkeeping failed")
	}

	s.notifier.ReminderSent(ctx, notify.Event{
		TaskID:        task.ID,
		TaskTitle:     task.Title,
		AssigneeEmail: task.AssigneeEmail,
		Subject:       draft.Subject,
		SentAt:        sentAt,
	})
	return usedFallback
}
