package dto

type CreateAnswerRequest struct {
	QuestionID string `json:"questionId" binding:"required"`
	Content    string `json:"content" binding:"required"`
}

type UpdateAnswerRequest struct {
	Content string `json:"content" binding:"required"`
}

// AcceptanceResponse: state of the answer after accept/unaccept
type AcceptanceResponse struct {
	AnswerID   string `json:"answerId"`
	QuestionID string `json:"questionId"`
	IsAccepted bool   `json:"isAccepted"`
}
