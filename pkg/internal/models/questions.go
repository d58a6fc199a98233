package models

type Question struct {
	BaseModel

	Content   string   `json:"content"`
	AccountID uint     `json:"account_id"`
	Account   Account  `json:"account"`
	Answers   []Answer `json:"answers" gorm:"foreignKey:QuestionID"`
}

// Answer is append-only; answers keep their creation order and are only
// written by organizers.
type Answer struct {
	BaseModel

	Content    string  `json:"content"`
	QuestionID uint    `json:"question_id"`
	AccountID  uint    `json:"account_id"`
	Account    Account `json:"account"`
}
