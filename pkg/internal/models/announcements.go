package models

// Announcement is immutable after creation; there is no edit or delete
// surface anywhere in the service.
type Announcement struct {
	BaseModel

	Content   string  `json:"content"`
	AccountID uint    `json:"account_id"`
	Account   Account `json:"account"`
}
