package domain

// Email is one simulated outgoing message. The inbox is an append-only log;
// records are never edited or pruned, only IsRead flips when opened.
type Email struct {
	ID            string `json:"id"`
	TaskID        string `json:"taskId"`
	TaskTitle     string `json:"taskTitle"`
	AssigneeEmail string `json:"assigneeEmail"`
	SenderEmail   string `json:"senderEmail"`
	CompanyName   string `json:"companyName"`
	Subject       string `json:"subject"`
	Content       string `json:"content"`
	SentAt        int64  `json:"sentAt"`
	IsRead        bool   `json:"isRead"`
}
