package dto

import "stackit/internal/microservices/http-api/models"

type CreateQuestionRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// UpdateQuestionRequest: empty fields are left unchanged
type UpdateQuestionRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// QuestionListResponse is the home feed page.
type QuestionListResponse struct {
	Success   bool              `json:"success"`
	Questions []models.Question `json:"questions"`
	HasMore   bool              `json:"hasMore"`
	Total     int64             `json:"total"`
	Page      int               `json:"page"`
	Limit     int               `json:"limit"`
}
