package domain

// Settings holds the sender identity applied to new tasks when the creation
// request leaves those fields blank.
type Settings struct {
	SenderEmail string `json:"senderEmail"`
	CompanyName string `json:"companyName"`
}
