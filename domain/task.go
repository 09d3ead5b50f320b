package domain

// TaskStatus is the lifecycle state of a reminder task.
type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusCompleted TaskStatus = "completed"
)

// ChecklistItem is a single togglable entry inside a task.
type ChecklistItem struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Task is a persistent reminder assigned to an email address. It keeps
// generating reminder emails until completed.
type Task struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Items          []ChecklistItem `json:"items,omitempty"`
	AssigneeEmail  string          `json:"assigneeEmail"`
	SenderEmail    string          `json:"senderEmail"`
	CompanyName    string          `json:"companyName"`
	IntervalHours  float64         `json:"intervalHours"`
	Status         TaskStatus      `json:"status"`
	CreatedAt      int64           `json:"createdAt"`
	LastReminderAt *int64          `json:"lastReminderAt"`
	ReminderCount  int             `json:"reminderCount"`
}

// TaskParams carries the user-supplied fields for task creation. Batch
// submissions expand into one TaskParams-derived task per assignee.
type TaskParams struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Items         []string `json:"items"`
	AssigneeEmail string   `json:"assigneeEmail"`
	SenderEmail   string   `json:"senderEmail"`
	CompanyName   string   `json:"companyName"`
	IntervalHours float64  `json:"intervalHours"`
}

// Complete marks the task completed.
func (t *Task) Complete() {
	t.Status = StatusCompleted
}

// Reopen puts a completed task back into rotation. Reminder bookkeeping is
// kept, so the next due check still measures from the last reminder.
func (t *Task) Reopen() {
	t.Status = StatusPending
}

// ToggleItem flips the completion state of one checklist item and reports
// whether the item exists. When the flip leaves every item completed the
// task itself completes; any other combination leaves the status untouched.
func (t *Task) ToggleItem(itemID string) bool {
	found := false
	for i := range t.Items {
		if t.Items[i].ID == itemID {
			t.Items[i].Completed = !t.Items[i].Completed
			found = true
			break
		}
	}
	if !found {
		return false
	}
	if len(t.Items) > 0 && t.allItemsCompleted() {
		t.Status = StatusCompleted
	}
	return true
}

func (t *Task) allItemsCompleted() bool {
	for _, it := range t.Items {
		if !it.Completed {
			return false
		}
	}
	return true
}

// RecordReminder advances the reminder bookkeeping after a message was
// stored. LastReminderAt never moves backwards.
func (t *Task) RecordReminder(now int64) {
	if t.LastReminderAt == nil || now > *t.LastReminderAt {
		ts := now
		t.LastReminderAt = &ts
	}
	t.ReminderCount++
}

// PendingItems returns the texts of items not yet completed.
func (t Task) PendingItems() []string {
	var out []string
	for _, it := range t.Items {
		if !it.Completed {
			out = append(out, it.Text)
		}
	}
	return out
}

// CompletedItems returns the texts of completed items.
func (t Task) CompletedItems() []string {
	var out []string
	for _, it := range t.Items {
		if it.Completed {
			out = append(out, it.Text)
		}
	}
	return out
}
