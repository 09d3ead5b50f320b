package api

import (
	"context"

	"github.com/Coachraj/Reminder-tool/domain"
)

// Store abstracts the task store for handlers.
type Store interface {
	GetTasks() []domain.Task
	GetEmails() []domain.Email
	GetSettings() domain.Settings
	GetContacts() []string
	AddTasks(ctx context.Context, params domain.TaskParams, assignees []string) ([]domain.Task, error)
	UpdateTask(ctx context.Context, id string, mutate func(*domain.Task)) (domain.Task, error)
	MarkEmailRead(ctx context.Context, id string) (domain.Email, error)
	SetSettings(ctx context.Context, settings domain.Settings) error
	AddContacts(ctx context.Context, addrs []string) (int, error)
}

// request body limits
const (
	createTaskMaxSize = 64 * 1024
	importMaxSize     = 1 << 20
)

// POST /api/tasks request body. Exactly one of assigneeEmail,
// assigneeEmails or batch selects the recipients; batch expands over the
// saved-contacts set.
type createTasksRequest struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Items          []string `json:"items"`
	AssigneeEmail  string   `json:"assigneeEmail"`
	AssigneeEmails []string `json:"assigneeEmails"`
	Batch          bool     `json:"batch"`
	SenderEmail    string   `json:"senderEmail"`
	CompanyName    string   `json:"companyName"`
	IntervalHours  float64  `json:"intervalHours"`
}

type createTasksResponse struct {
	Tasks []domain.Task `json:"tasks"`
}

type tasksResponse struct {
	Tasks []domain.Task `json:"tasks"`
}

type emailsResponse struct {
	Emails []domain.Email `json:"emails"`
}

type contactsResponse struct {
	Contacts []string `json:"contacts"`
}

type importResponse struct {
	Imported int `json:"imported"`
	Total    int `json:"total"`
}
