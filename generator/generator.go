package generator

import (
	"context"
	"fmt"
	"strings"
)

// Request is the task snapshot handed to the content generator.
// Sequence is zero-indexed: 0 means the upcoming message is nudge number 1.
type Request struct {
	TaskTitle       string
	TaskDescription string
	PendingItems    []string
	CompletedItems  []string
	AssigneeEmail   string
	SenderEmail     string
	CompanyName     string
	Sequence        int
}

// Draft is one generated subject/content pair.
type Draft struct {
	Subject string `json:"subject"`
	Content string `json:"content"`
}

// Generator produces reminder drafts. Implementations may fail; callers are
// expected to substitute Fallback so the cycle still delivers a message.
type Generator interface {
	Generate(ctx context.Context, req Request) (Draft, error)
}

// Local serves the fallback template directly. It stands in for Gemini when
// no API key is configured.
type Local struct{}

func (Local) Generate(_ context.Context, req Request) (Draft, error) {
	return Fallback(req), nil
}

// Fallback builds the deterministic local draft used when generation fails.
// The failed attempt still counts as a sent reminder, so the template states
// the prior notification count rather than retrying later.
func Fallback(req Request) Draft {
	recipient := req.AssigneeEmail
	if at := strings.Index(recipient, "@"); at > 0 {
		recipient = recipient[:at]
	}
	return Draft{
		Subject: fmt.Sprintf("Urgent Reminder from %s: %s", req.CompanyName, req.TaskTitle),
		Content: fmt.Sprintf(
			"Hello %s,\n\nThis is a persistent reminder from %s to complete your task: %s. "+
				"You have received %d previous notifications. Please reply 'finished' once the task is done.",
			recipient, req.CompanyName, req.TaskTitle, req.Sequence,
		),
	}
}
