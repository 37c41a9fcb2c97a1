package repository

import (
	"context"
	"errors"

	"stackit/internal/microservices/http-api/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("transaction conflict")
	ErrTimeout  = errors.New("transaction timed out")
	ErrReadOnly = errors.New("write attempted in read-only view")
)

// Repository is the set of store operations the services need. Every method
// runs inside whatever unit of work the Repository was handed out by.
type Repository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)

	CreateQuestion(ctx context.Context, question *models.Question) error
	GetQuestion(ctx context.Context, id string) (*models.Question, error)
	// LockQuestion reads the question and holds a row lock until the
	// surrounding transaction ends.
	LockQuestion(ctx context.Context, id string) (*models.Question, error)
	// GetQuestionDetail loads author, tags and answers, answers ordered by
	// accepted first, then votes, then age.
	GetQuestionDetail(ctx context.Context, id string) (*models.Question, error)
	UpdateQuestion(ctx context.Context, id, title, content string) error
	DeleteQuestion(ctx context.Context, id string) error
	SetQuestionAnswered(ctx context.Context, id string, answered bool) error
	// RecountAnswers recomputes answer_count from the answers table.
	RecountAnswers(ctx context.Context, questionID string) (int, error)
	// RecordView bumps view_count. For a signed-in viewer it only counts
	// the first view; an empty userID always counts.
	RecordView(ctx context.Context, userID, questionID string) (bool, error)
	// ListQuestions returns one page of the feed with author and tags
	// loaded, plus the number of questions matching the filter.
	ListQuestions(ctx context.Context, filter QuestionFilter) ([]models.Question, int64, error)

	CreateAnswer(ctx context.Context, answer *models.Answer) error
	GetAnswer(ctx context.Context, id string) (*models.Answer, error)
	LockAnswer(ctx context.Context, id string) (*models.Answer, error)
	UpdateAnswerContent(ctx context.Context, id, content string) error
	DeleteAnswer(ctx context.Context, id string) error
	SetAnswerAccepted(ctx context.Context, id string, accepted bool) error
	// ClearAcceptedAnswers unsets is_accepted on every answer of the
	// question except exceptAnswerID and returns how many rows changed.
	ClearAcceptedAnswers(ctx context.Context, questionID, exceptAnswerID string) (int64, error)
	CountAcceptedAnswers(ctx context.Context, questionID string) (int64, error)

	FindVote(ctx context.Context, userID string, target models.VoteTarget) (*models.Vote, error)
	ListVotes(ctx context.Context, target models.VoteTarget) ([]models.Vote, error)
	CreateVote(ctx context.Context, vote *models.Vote) error
	UpdateVoteKind(ctx context.Context, id string, kind models.VoteKind) error
	DeleteVote(ctx context.Context, id string) error
	// SetVoteCount writes the cached vote_count on the target row.
	SetVoteCount(ctx context.Context, target models.VoteTarget, count int) error
}

type QuestionSort string

const (
	SortNewest QuestionSort = "newest"
	SortOldest QuestionSort = "oldest"
	SortVotes  QuestionSort = "votes"
	SortViews  QuestionSort = "views"
)

// QuestionFilter selects a page of the question feed. Search matches
// title or body, case-insensitive. Unanswered keeps questions with no
// answers at all.
type QuestionFilter struct {
	Search     string
	Unanswered bool
	Sort       QuestionSort
	Offset     int
	Limit      int
}

// Store hands out Repositories bound to a unit of work.
type Store interface {
	// WithinTx runs fn in one atomic transaction. Any error from fn rolls
	// everything back. Failures surface as ErrTimeout, ErrConflict or
	// ErrNotFound where they can be classified.
	WithinTx(ctx context.Context, fn func(repo Repository) error) error
	// View runs fn against committed state. fn must not write.
	View(ctx context.Context, fn func(repo Repository) error) error
	Close() error
}
