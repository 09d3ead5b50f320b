package notify

import "context"

// Event describes one dispatched reminder. It is the payload pushed over
// every side channel.
type Event struct {
	TaskID        string `json:"taskId"`
	TaskTitle     string `json:"taskTitle"`
	AssigneeEmail string `json:"assigneeEmail"`
	Subject       string `json:"subject"`
	SentAt        int64  `json:"sentAt"`
}

// Notifier is a fire-and-forget side channel. Implementations must never
// block the scheduling cycle or surface failures to it.
type Notifier interface {
	ReminderSent(ctx context.Context, ev Event)
}

// Noop discards all events.
type Noop struct{}

func (Noop) ReminderSent(context.Context, Event) {}

// Func adapts a function into a Notifier.
type Func func(ctx context.Context, ev Event)

func (f Func) ReminderSent(ctx context.Context, ev Event) { f(ctx, ev) }

// Multi fans an event out to several channels.
type Multi []Notifier

func (m Multi) ReminderSent(ctx context.Context, ev Event) {
	for _, n := range m {
		if n != nil {
			n.ReminderSent(ctx, ev)
		}
	}
}
