package handler

import (
	"net/http"

	"stackit/internal/microservices/http-api/dto"
	"stackit/internal/microservices/http-api/middleware"
	"stackit/internal/microservices/http-api/models"
	"stackit/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	svc service.VoteService
}

func NewVoteHandler(svc service.VoteService) *VoteHandler {
	return &VoteHandler{svc: svc}
}

// Cast handles POST /api/votes. Casting the same kind twice removes the
// vote, the opposite kind flips it.
func (h *VoteHandler) Cast(c *gin.Context) {
	var req dto.CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.svc.CastVote(ctx, middleware.UserID(c), req.Target(), models.VoteKind(req.Type))
	if err != nil {
		respondError(c, err)
		return
	}

	var userVote *string
	if result.UserVote != nil {
		v := string(*result.UserVote)
		userVote = &v
	}
	c.JSON(http.StatusOK, dto.CastVoteResponse{
		Success:   true,
		VoteCount: result.VoteCount,
		UserVote:  userVote,
	})
}

// List handles GET /api/votes?questionId=|answerId= and returns the
// caller's own vote on that target, if any.
func (h *VoteHandler) List(c *gin.Context) {
	target := models.VoteTarget{
		QuestionID: c.Query("questionId"),
		AnswerID:   c.Query("answerId"),
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	votes, err := h.svc.GetUserVotes(ctx, middleware.UserID(c), target)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.VotesResponse{Success: true, Votes: votes})
}
