package service

import (
	"context"
	"log/slog"

	"stackit/internal/microservices/events"
	"stackit/internal/microservices/http-api/models"
	"stackit/internal/microservices/http-api/repository"
)

type AcceptanceService interface {
	// SetAcceptance marks answerID accepted (clearing any other accepted
	// answer on the question) or unaccepted. Only the question author may.
	SetAcceptance(ctx context.Context, userID, answerID string, accepted bool) (*models.Answer, error)
	// ToggleAcceptance flips the current state of answerID.
	ToggleAcceptance(ctx context.Context, userID, answerID string) (*models.Answer, error)
}

type acceptanceService struct {
	store       repository.Store
	notifier    Notifier
	maxAttempts int
	logger      *slog.Logger
}

func NewAcceptanceService(store repository.Store, notifier Notifier, maxAttempts int) AcceptanceService {
	if maxAttempts < 1 {
		maxAttempts = defaultMaxAttempts
	}
	return &acceptanceService{
		store:       store,
		notifier:    notifier,
		maxAttempts: maxAttempts,
		logger:      slog.Default(),
	}
}

func (s *acceptanceService) SetAcceptance(ctx context.Context, userID, answerID string, accepted bool) (*models.Answer, error) {
	return s.apply(ctx, userID, answerID, func(bool) bool { return accepted })
}

func (s *acceptanceService) ToggleAcceptance(ctx context.Context, userID, answerID string) (*models.Answer, error) {
	return s.apply(ctx, userID, answerID, func(current bool) bool { return !current })
}

// apply reads the answer's current state under the question lock and
// writes whatever decide returns for it.
func (s *acceptanceService) apply(ctx context.Context, userID, answerID string, decide func(current bool) bool) (*models.Answer, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if answerID == "" {
		return nil, ErrNotFound
	}

	var answer *models.Answer
	err := withRetry(ctx, s.maxAttempts, func() error {
		answer = nil
		return s.store.WithinTx(ctx, func(repo repository.Repository) error {
			a, err := acceptInTx(ctx, repo, userID, answerID, decide)
			if err != nil {
				return err
			}
			answer = a
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("answer_acceptance_changed",
		"answer_id", answer.ID,
		"question_id", answer.QuestionID,
		"accepted", answer.IsAccepted,
	)
	notify(ctx, s.notifier, s.logger, events.New(events.AnswerAccepted, answer.QuestionID, events.AnswerAcceptedPayload{
		AnswerID:   answer.ID,
		IsAccepted: answer.IsAccepted,
	}))
	return answer, nil
}

func acceptInTx(ctx context.Context, repo repository.Repository, userID, answerID string, decide func(bool) bool) (*models.Answer, error) {
	answer, err := repo.GetAnswer(ctx, answerID)
	if err != nil {
		return nil, err
	}
	question, err := repo.LockQuestion(ctx, answer.QuestionID)
	if err != nil {
		return nil, err
	}
	// ownership only, admins are not exempt
	if question.AuthorID != userID {
		return nil, ErrForbidden
	}

	// re-read now that the question is locked
	answer, err = repo.GetAnswer(ctx, answerID)
	if err != nil {
		return nil, err
	}

	accepted := decide(answer.IsAccepted)
	if accepted {
		if _, err := repo.ClearAcceptedAnswers(ctx, question.ID, answer.ID); err != nil {
			return nil, err
		}
		if !answer.IsAccepted {
			if err := repo.SetAnswerAccepted(ctx, answer.ID, true); err != nil {
				return nil, err
			}
		}
	} else if answer.IsAccepted {
		if err := repo.SetAnswerAccepted(ctx, answer.ID, false); err != nil {
			return nil, err
		}
	}
	answer.IsAccepted = accepted

	if err := syncAnswered(ctx, repo, question); err != nil {
		return nil, err
	}
	return answer, nil
}

// syncAnswered sets is_answered from the accepted-answer count.
func syncAnswered(ctx context.Context, repo repository.Repository, question *models.Question) error {
	n, err := repo.CountAcceptedAnswers(ctx, question.ID)
	if err != nil {
		return err
	}
	answered := n == 1
	if question.IsAnswered == answered {
		return nil
	}
	if err := repo.SetQuestionAnswered(ctx, question.ID, answered); err != nil {
		return err
	}
	question.IsAnswered = answered
	return nil
}
