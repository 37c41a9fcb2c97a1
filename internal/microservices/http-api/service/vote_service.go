package service

import (
	"context"
	"errors"
	"log/slog"

	"stackit/internal/microservices/events"
	"stackit/internal/microservices/http-api/models"
	"stackit/internal/microservices/http-api/repository"
)

// VoteResult is the state after a cast. UserVote is nil when the cast
// removed the caller's vote.
type VoteResult struct {
	Target     models.VoteTarget
	QuestionID string
	VoteCount  int
	UserVote   *models.VoteKind
}

type VoteService interface {
	CastVote(ctx context.Context, userID string, target models.VoteTarget, kind models.VoteKind) (*VoteResult, error)
	GetUserVotes(ctx context.Context, userID string, target models.VoteTarget) ([]models.Vote, error)
}

type voteService struct {
	store       repository.Store
	notifier    Notifier
	maxAttempts int
	logger      *slog.Logger
}

func NewVoteService(store repository.Store, notifier Notifier, maxAttempts int) VoteService {
	if maxAttempts < 1 {
		maxAttempts = defaultMaxAttempts
	}
	return &voteService{
		store:       store,
		notifier:    notifier,
		maxAttempts: maxAttempts,
		logger:      slog.Default(),
	}
}

func validateVoteRequest(userID string, target models.VoteTarget) error {
	if userID == "" {
		return ErrUnauthorized
	}
	if !target.Valid() {
		return ErrInvalidTarget
	}
	return nil
}

// CastVote toggles the caller's vote on target and recomputes the target's
// count from every vote row, all in one transaction.
//
//	no vote       -> create kind
//	same kind     -> delete
//	opposite kind -> flip
func (s *voteService) CastVote(ctx context.Context, userID string, target models.VoteTarget, kind models.VoteKind) (*VoteResult, error) {
	if err := validateVoteRequest(userID, target); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, ErrInvalidVoteKind
	}

	var result *VoteResult
	err := withRetry(ctx, s.maxAttempts, func() error {
		result = nil
		return s.store.WithinTx(ctx, func(repo repository.Repository) error {
			r, err := castInTx(ctx, repo, userID, target, kind)
			if err != nil {
				return err
			}
			result = r
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("vote_cast",
		"user_id", userID,
		"target_type", target.Kind(),
		"target_id", target.ID(),
		"vote_count", result.VoteCount,
	)

	var userVote *string
	if result.UserVote != nil {
		v := string(*result.UserVote)
		userVote = &v
	}
	notify(ctx, s.notifier, s.logger, events.New(events.VoteUpdate, result.QuestionID, events.VoteUpdatePayload{
		TargetID:   target.ID(),
		TargetType: target.Kind(),
		VoteCount:  result.VoteCount,
		UserVote:   userVote,
	}))
	return result, nil
}

func castInTx(ctx context.Context, repo repository.Repository, userID string, target models.VoteTarget, kind models.VoteKind) (*VoteResult, error) {
	if err := requireActiveUser(ctx, repo, userID); err != nil {
		return nil, err
	}

	// the row lock on the target serialises concurrent casts on it
	questionID, err := lockVoteTarget(ctx, repo, target)
	if err != nil {
		return nil, err
	}

	existing, err := repo.FindVote(ctx, userID, target)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	var userVote *models.VoteKind
	switch {
	case existing == nil:
		vote := &models.Vote{UserID: userID, Type: kind}
		if target.IsQuestion() {
			vote.QuestionID = &target.QuestionID
		} else {
			vote.AnswerID = &target.AnswerID
		}
		if err := repo.CreateVote(ctx, vote); err != nil {
			return nil, err
		}
		userVote = &kind
	case existing.Type == kind:
		if err := repo.DeleteVote(ctx, existing.ID); err != nil {
			return nil, err
		}
	default:
		if err := repo.UpdateVoteKind(ctx, existing.ID, kind); err != nil {
			return nil, err
		}
		userVote = &kind
	}

	votes, err := repo.ListVotes(ctx, target)
	if err != nil {
		return nil, err
	}
	count := models.NetVotes(votes)
	if err := repo.SetVoteCount(ctx, target, count); err != nil {
		return nil, err
	}

	return &VoteResult{
		Target:     target,
		QuestionID: questionID,
		VoteCount:  count,
		UserVote:   userVote,
	}, nil
}

// lockVoteTarget locks the voted row and returns the question that owns it.
func lockVoteTarget(ctx context.Context, repo repository.Repository, target models.VoteTarget) (string, error) {
	if target.IsQuestion() {
		q, err := repo.LockQuestion(ctx, target.QuestionID)
		if err != nil {
			return "", err
		}
		return q.ID, nil
	}
	a, err := repo.LockAnswer(ctx, target.AnswerID)
	if err != nil {
		return "", err
	}
	return a.QuestionID, nil
}

func (s *voteService) GetUserVotes(ctx context.Context, userID string, target models.VoteTarget) ([]models.Vote, error) {
	if err := validateVoteRequest(userID, target); err != nil {
		return nil, err
	}

	votes := []models.Vote{}
	err := s.store.View(ctx, func(repo repository.Repository) error {
		v, err := repo.FindVote(ctx, userID, target)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		votes = append(votes, *v)
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}
	return votes, nil
}

// requireActiveUser re-checks the caller inside the transaction.
func requireActiveUser(ctx context.Context, repo repository.Repository, userID string) error {
	user, err := repo.GetUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUnauthorized
	}
	if err != nil {
		return err
	}
	if !user.IsActive {
		return ErrUnauthorized
	}
	return nil
}
