package dto

import "stackit/internal/microservices/http-api/models"

// CastVoteRequest: exactly one of QuestionID / AnswerID must be set. The
// target is checked before Type, both by the vote service.
type CastVoteRequest struct {
	QuestionID string `json:"questionId"`
	AnswerID   string `json:"answerId"`
	Type       string `json:"type"`
}

func (r CastVoteRequest) Target() models.VoteTarget {
	return models.VoteTarget{QuestionID: r.QuestionID, AnswerID: r.AnswerID}
}

// CastVoteResponse: userVote is null when the cast removed the vote
type CastVoteResponse struct {
	Success   bool    `json:"success"`
	VoteCount int     `json:"voteCount"`
	UserVote  *string `json:"userVote"`
}

type VotesResponse struct {
	Success bool          `json:"success"`
	Votes   []models.Vote `json:"votes"`
}
