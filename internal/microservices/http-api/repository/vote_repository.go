package repository

import (
	"context"
	"fmt"

	"stackit/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

// whereTarget scopes a vote query to the target's column.
func whereTarget(db *gorm.DB, target models.VoteTarget) *gorm.DB {
	if target.IsQuestion() {
		return db.Where("question_id = ?", target.QuestionID)
	}
	return db.Where("answer_id = ?", target.AnswerID)
}

func (r *gormRepository) FindVote(ctx context.Context, userID string, target models.VoteTarget) (*models.Vote, error) {
	var v models.Vote
	err := whereTarget(r.db.WithContext(ctx), target).
		Where("user_id = ?", userID).
		First(&v).Error
	if err != nil {
		return nil, firstOrNotFound(err)
	}
	return &v, nil
}

func (r *gormRepository) ListVotes(ctx context.Context, target models.VoteTarget) ([]models.Vote, error) {
	var votes []models.Vote
	err := whereTarget(r.db.WithContext(ctx), target).
		Order("created_at ASC").
		Find(&votes).Error
	return votes, err
}

func (r *gormRepository) CreateVote(ctx context.Context, v *models.Vote) error {
	if err := r.db.WithContext(ctx).Create(v).Error; err != nil {
		return fmt.Errorf("create vote: %w", err)
	}
	return nil
}

func (r *gormRepository) UpdateVoteKind(ctx context.Context, id string, kind models.VoteKind) error {
	return rowsOrNotFound(r.db.WithContext(ctx).
		Model(&models.Vote{}).
		Where("id = ?", id).
		Update("type", kind))
}

func (r *gormRepository) DeleteVote(ctx context.Context, id string) error {
	return rowsOrNotFound(r.db.WithContext(ctx).Delete(&models.Vote{}, "id = ?", id))
}

func (r *gormRepository) SetVoteCount(ctx context.Context, target models.VoteTarget, count int) error {
	var model any = &models.Answer{}
	if target.IsQuestion() {
		model = &models.Question{}
	}
	return rowsOrNotFound(r.db.WithContext(ctx).
		Model(model).
		Where("id = ?", target.ID()).
		UpdateColumn("vote_count", count))
}
