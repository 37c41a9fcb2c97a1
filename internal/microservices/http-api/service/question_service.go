package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"stackit/internal/microservices/events"
	"stackit/internal/microservices/http-api/models"
	"stackit/internal/microservices/http-api/repository"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

// Feed filters. FilterNewest is the plain feed.
const (
	FilterNewest     = "newest"
	FilterUnanswered = "unanswered"
	FilterPopular    = "popular"
)

// QuestionQuery is the home feed request. Zero values mean defaults:
// newest first, page 1, DefaultPageSize per page.
type QuestionQuery struct {
	Search string
	Filter string
	Sort   string
	Page   int
	Limit  int
}

type QuestionPage struct {
	Questions []models.Question
	Total     int64
	Page      int
	Limit     int
	HasMore   bool
}

type QuestionService interface {
	// ListQuestions serves the home feed.
	ListQuestions(ctx context.Context, query QuestionQuery) (*QuestionPage, error)
	CreateQuestion(ctx context.Context, userID, title, content string) (*models.Question, error)
	// GetQuestion loads the full thread and counts a view. viewerID may be
	// empty for anonymous readers.
	GetQuestion(ctx context.Context, viewerID, questionID string) (*models.Question, error)
	UpdateQuestion(ctx context.Context, userID, questionID, title, content string) (*models.Question, error)
	DeleteQuestion(ctx context.Context, userID, questionID string) error
}

type questionService struct {
	store    repository.Store
	notifier Notifier
	logger   *slog.Logger
}

func NewQuestionService(store repository.Store, notifier Notifier) QuestionService {
	return &questionService{
		store:    store,
		notifier: notifier,
		logger:   slog.Default(),
	}
}

func (s *questionService) ListQuestions(ctx context.Context, query QuestionQuery) (*QuestionPage, error) {
	filter, err := feedFilter(query)
	if err != nil {
		return nil, err
	}

	var (
		questions []models.Question
		total     int64
	)
	err = s.store.View(ctx, func(repo repository.Repository) error {
		list, n, err := repo.ListQuestions(ctx, filter)
		if err != nil {
			return err
		}
		questions, total = list, n
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}

	return &QuestionPage{
		Questions: questions,
		Total:     total,
		Page:      filter.Offset/filter.Limit + 1,
		Limit:     filter.Limit,
		HasMore:   int64(filter.Offset+len(questions)) < total,
	}, nil
}

// feedFilter validates a feed query and fills in defaults. "popular"
// always orders by votes, whatever sort was asked for.
func feedFilter(query QuestionQuery) (repository.QuestionFilter, error) {
	page, limit := query.Page, query.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	filter := repository.QuestionFilter{
		Search: strings.TrimSpace(query.Search),
		Sort:   repository.SortNewest,
		Offset: (page - 1) * limit,
		Limit:  limit,
	}

	switch sort := repository.QuestionSort(strings.ToLower(query.Sort)); sort {
	case "":
	case repository.SortNewest, repository.SortOldest, repository.SortVotes, repository.SortViews:
		filter.Sort = sort
	default:
		return filter, fmt.Errorf("%w: sort must be one of newest, oldest, votes, views", ErrInvalidQuery)
	}

	switch strings.ToLower(query.Filter) {
	case "", FilterNewest:
	case FilterUnanswered:
		filter.Unanswered = true
	case FilterPopular:
		filter.Sort = repository.SortVotes
	default:
		return filter, fmt.Errorf("%w: filter must be one of newest, unanswered, popular", ErrInvalidQuery)
	}
	return filter, nil
}

func (s *questionService) CreateQuestion(ctx context.Context, userID, title, content string) (*models.Question, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	cleanTitle, err := sanitizeTitle(title)
	if err != nil {
		return nil, err
	}
	body, err := sanitizeBody(content)
	if err != nil {
		return nil, err
	}

	q := &models.Question{Title: cleanTitle, Content: body, AuthorID: userID}
	err = s.store.WithinTx(ctx, func(repo repository.Repository) error {
		if err := requireActiveUser(ctx, repo, userID); err != nil {
			return err
		}
		return repo.CreateQuestion(ctx, q)
	})
	if err != nil {
		return nil, storeError(err)
	}
	return q, nil
}

func (s *questionService) GetQuestion(ctx context.Context, viewerID, questionID string) (*models.Question, error) {
	var question *models.Question
	err := s.store.WithinTx(ctx, func(repo repository.Repository) error {
		q, err := repo.GetQuestion(ctx, questionID)
		if err != nil {
			return err
		}
		// authors reading their own question are not counted
		if viewerID != q.AuthorID {
			if _, err := repo.RecordView(ctx, viewerID, questionID); err != nil {
				return err
			}
		}
		question, err = repo.GetQuestionDetail(ctx, questionID)
		return err
	})
	if err != nil {
		return nil, storeError(err)
	}
	return question, nil
}

func (s *questionService) UpdateQuestion(ctx context.Context, userID, questionID, title, content string) (*models.Question, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	var err error
	if title != "" {
		if title, err = sanitizeTitle(title); err != nil {
			return nil, err
		}
	}
	if content != "" {
		if content, err = sanitizeBody(content); err != nil {
			return nil, err
		}
	}

	var question *models.Question
	err = s.store.WithinTx(ctx, func(repo repository.Repository) error {
		q, err := repo.LockQuestion(ctx, questionID)
		if err != nil {
			return err
		}
		if err := authorizeAuthorOrAdmin(ctx, repo, userID, q.AuthorID); err != nil {
			return err
		}
		if err := repo.UpdateQuestion(ctx, questionID, title, content); err != nil {
			return err
		}
		question, err = repo.GetQuestion(ctx, questionID)
		return err
	})
	if err != nil {
		return nil, storeError(err)
	}

	notify(ctx, s.notifier, s.logger, events.New(events.QuestionUpdated, question.ID, events.QuestionUpdatedPayload{
		ID:        question.ID,
		Title:     question.Title,
		Content:   question.Content,
		UpdatedAt: question.UpdatedAt,
	}))
	return question, nil
}

func (s *questionService) DeleteQuestion(ctx context.Context, userID, questionID string) error {
	if userID == "" {
		return ErrUnauthorized
	}

	err := s.store.WithinTx(ctx, func(repo repository.Repository) error {
		q, err := repo.LockQuestion(ctx, questionID)
		if err != nil {
			return err
		}
		if err := authorizeAuthorOrAdmin(ctx, repo, userID, q.AuthorID); err != nil {
			return err
		}
		return repo.DeleteQuestion(ctx, questionID)
	})
	if err != nil {
		return storeError(err)
	}

	s.logger.Info("question_deleted", "question_id", questionID, "user_id", userID)
	notify(ctx, s.notifier, s.logger, events.New(events.QuestionDeleted, questionID, events.QuestionDeletedPayload{
		QuestionID: questionID,
	}))
	return nil
}

func authorizeAuthorOrAdmin(ctx context.Context, repo repository.Repository, userID, ownerID string) error {
	if userID == ownerID {
		return nil
	}
	user, err := repo.GetUser(ctx, userID)
	if err != nil {
		return ErrForbidden
	}
	if user.Role != models.RoleAdmin {
		return ErrForbidden
	}
	return nil
}
