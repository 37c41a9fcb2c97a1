package handler

import (
	"net/http"

	"stackit/internal/microservices/http-api/dto"
	"stackit/internal/microservices/http-api/middleware"
	"stackit/internal/microservices/http-api/models"
	"stackit/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type AnswerHandler struct {
	answers    service.AnswerService
	acceptance service.AcceptanceService
}

func NewAnswerHandler(answers service.AnswerService, acceptance service.AcceptanceService) *AnswerHandler {
	return &AnswerHandler{answers: answers, acceptance: acceptance}
}

func (h *AnswerHandler) Create(c *gin.Context) {
	var req dto.CreateAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	answer, err := h.answers.CreateAnswer(ctx, middleware.UserID(c), req.QuestionID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, answer, "Answer posted")
}

func (h *AnswerHandler) Update(c *gin.Context) {
	var req dto.UpdateAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	answer, err := h.answers.UpdateAnswer(ctx, middleware.UserID(c), c.Param("id"), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, answer, "Answer updated")
}

func (h *AnswerHandler) Delete(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.answers.DeleteAnswer(ctx, middleware.UserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, nil, "Answer deleted")
}

// Accept handles POST /api/answers/:id/accept, a toggle.
func (h *AnswerHandler) Accept(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	answer, err := h.acceptance.ToggleAcceptance(ctx, middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondAcceptance(c, answer)
}

// Unaccept handles DELETE /api/answers/:id/accept. Unaccepting an answer
// that is not accepted succeeds without change.
func (h *AnswerHandler) Unaccept(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	answer, err := h.acceptance.SetAcceptance(ctx, middleware.UserID(c), c.Param("id"), false)
	if err != nil {
		respondError(c, err)
		return
	}
	respondAcceptance(c, answer)
}

func respondAcceptance(c *gin.Context, answer *models.Answer) {
	message := "Answer unaccepted"
	if answer.IsAccepted {
		message = "Answer accepted"
	}
	respondOK(c, http.StatusOK, dto.AcceptanceResponse{
		AnswerID:   answer.ID,
		QuestionID: answer.QuestionID,
		IsAccepted: answer.IsAccepted,
	}, message)
}
