package events

import "time"

type VoteUpdatePayload struct {
	TargetID   string  `json:"targetId"`
	TargetType string  `json:"targetType"`
	VoteCount  int     `json:"voteCount"`
	UserVote   *string `json:"userVote"`
}

type AnswerAcceptedPayload struct {
	AnswerID   string `json:"answerId"`
	IsAccepted bool   `json:"isAccepted"`
}

// AnswerPayload carries a created or edited answer.
type AnswerPayload struct {
	ID         string       `json:"id"`
	QuestionID string       `json:"questionId"`
	Content    string       `json:"content"`
	VoteCount  int          `json:"voteCount"`
	IsAccepted bool         `json:"isAccepted"`
	Author     AuthorDigest `json:"author"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

type AuthorDigest struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type QuestionUpdatedPayload struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type QuestionDeletedPayload struct {
	QuestionID string `json:"questionId"`
}

type AnswerDeletedPayload struct {
	AnswerID   string `json:"answerId"`
	QuestionID string `json:"questionId"`
}
