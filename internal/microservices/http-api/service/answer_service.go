package service

import (
	"context"
	"log/slog"

	"stackit/internal/microservices/events"
	"stackit/internal/microservices/http-api/models"
	"stackit/internal/microservices/http-api/repository"
)

type AnswerService interface {
	CreateAnswer(ctx context.Context, userID, questionID, content string) (*models.Answer, error)
	UpdateAnswer(ctx context.Context, userID, answerID, content string) (*models.Answer, error)
	DeleteAnswer(ctx context.Context, userID, answerID string) error
}

type answerService struct {
	store    repository.Store
	notifier Notifier
	logger   *slog.Logger
}

func NewAnswerService(store repository.Store, notifier Notifier) AnswerService {
	return &answerService{
		store:    store,
		notifier: notifier,
		logger:   slog.Default(),
	}
}

func (s *answerService) CreateAnswer(ctx context.Context, userID, questionID, content string) (*models.Answer, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	body, err := sanitizeBody(content)
	if err != nil {
		return nil, err
	}

	var answer *models.Answer
	err = s.store.WithinTx(ctx, func(repo repository.Repository) error {
		if err := requireActiveUser(ctx, repo, userID); err != nil {
			return err
		}
		author, err := repo.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if _, err := repo.LockQuestion(ctx, questionID); err != nil {
			return err
		}
		a := &models.Answer{QuestionID: questionID, AuthorID: userID, Content: body}
		if err := repo.CreateAnswer(ctx, a); err != nil {
			return err
		}
		if _, err := repo.RecountAnswers(ctx, questionID); err != nil {
			return err
		}
		a.Author = *author
		answer = a
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}

	notify(ctx, s.notifier, s.logger, events.New(events.NewAnswer, questionID, answerPayload(answer)))
	return answer, nil
}

func (s *answerService) UpdateAnswer(ctx context.Context, userID, answerID, content string) (*models.Answer, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	body, err := sanitizeBody(content)
	if err != nil {
		return nil, err
	}

	var answer *models.Answer
	err = s.store.WithinTx(ctx, func(repo repository.Repository) error {
		a, err := repo.LockAnswer(ctx, answerID)
		if err != nil {
			return err
		}
		if a.AuthorID != userID {
			return ErrForbidden
		}
		if err := repo.UpdateAnswerContent(ctx, answerID, body); err != nil {
			return err
		}
		if answer, err = repo.GetAnswer(ctx, answerID); err != nil {
			return err
		}
		author, err := repo.GetUser(ctx, answer.AuthorID)
		if err != nil {
			return err
		}
		answer.Author = *author
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}

	notify(ctx, s.notifier, s.logger, events.New(events.AnswerUpdated, answer.QuestionID, answerPayload(answer)))
	return answer, nil
}

// DeleteAnswer removes the answer and its votes. Deleting the accepted
// answer leaves the question unanswered.
func (s *answerService) DeleteAnswer(ctx context.Context, userID, answerID string) error {
	if userID == "" {
		return ErrUnauthorized
	}

	var questionID string
	err := s.store.WithinTx(ctx, func(repo repository.Repository) error {
		a, err := repo.GetAnswer(ctx, answerID)
		if err != nil {
			return err
		}
		if a.AuthorID != userID {
			return ErrForbidden
		}
		question, err := repo.LockQuestion(ctx, a.QuestionID)
		if err != nil {
			return err
		}
		if err := repo.DeleteAnswer(ctx, answerID); err != nil {
			return err
		}
		if _, err := repo.RecountAnswers(ctx, question.ID); err != nil {
			return err
		}
		questionID = question.ID
		return syncAnswered(ctx, repo, question)
	})
	if err != nil {
		return storeError(err)
	}

	notify(ctx, s.notifier, s.logger, events.New(events.AnswerDeleted, questionID, events.AnswerDeletedPayload{
		AnswerID:   answerID,
		QuestionID: questionID,
	}))
	return nil
}

func answerPayload(a *models.Answer) events.AnswerPayload {
	return events.AnswerPayload{
		ID:         a.ID,
		QuestionID: a.QuestionID,
		Content:    a.Content,
		VoteCount:  a.VoteCount,
		IsAccepted: a.IsAccepted,
		Author:     events.AuthorDigest{ID: a.Author.ID, Username: a.Author.Username},
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}
