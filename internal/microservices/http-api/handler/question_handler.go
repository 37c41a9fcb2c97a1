package handler

import (
	"net/http"
	"strconv"
	"strings"

	"stackit/internal/microservices/http-api/dto"
	"stackit/internal/microservices/http-api/middleware"
	"stackit/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type QuestionHandler struct {
	svc service.QuestionService
}

func NewQuestionHandler(svc service.QuestionService) *QuestionHandler {
	return &QuestionHandler{svc: svc}
}

// List serves GET /api/questions?search=&filter=&sort=&page=&limit=.
// Unparseable page or limit values fall back to the defaults.
func (h *QuestionHandler) List(c *gin.Context) {
	query := service.QuestionQuery{
		Search: strings.TrimSpace(c.Query("search")),
		Filter: strings.TrimSpace(c.Query("filter")),
		Sort:   strings.TrimSpace(c.Query("sort")),
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil {
		query.Page = page
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil {
		query.Limit = limit
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	page, err := h.svc.ListQuestions(ctx, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.QuestionListResponse{
		Success:   true,
		Questions: page.Questions,
		HasMore:   page.HasMore,
		Total:     page.Total,
		Page:      page.Page,
		Limit:     page.Limit,
	})
}

func (h *QuestionHandler) Create(c *gin.Context) {
	var req dto.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	question, err := h.svc.CreateQuestion(ctx, middleware.UserID(c), req.Title, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, question, "Question posted")
}

// Get returns the thread and counts a view. Runs behind OptionalAuth.
func (h *QuestionHandler) Get(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	question, err := h.svc.GetQuestion(ctx, middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, question, "")
}

func (h *QuestionHandler) Update(c *gin.Context) {
	var req dto.UpdateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.Title == "" && req.Content == "" {
		respondFail(c, http.StatusBadRequest, "nothing to update")
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	question, err := h.svc.UpdateQuestion(ctx, middleware.UserID(c), c.Param("id"), req.Title, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, question, "Question updated")
}

func (h *QuestionHandler) Delete(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.DeleteQuestion(ctx, middleware.UserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, nil, "Question deleted")
}
