package repository

import (
	"context"
	"fmt"

	"stackit/internal/microservices/http-api/models"
)

func (r *gormRepository) CreateAnswer(ctx context.Context, a *models.Answer) error {
	if err := r.db.WithContext(ctx).Omit("Author").Create(a).Error; err != nil {
		return fmt.Errorf("create answer: %w", err)
	}
	return nil
}

func (r *gormRepository) GetAnswer(ctx context.Context, id string) (*models.Answer, error) {
	var a models.Answer
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, firstOrNotFound(err)
	}
	return &a, nil
}

func (r *gormRepository) LockAnswer(ctx context.Context, id string) (*models.Answer, error) {
	var a models.Answer
	if err := r.forUpdate().WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, firstOrNotFound(err)
	}
	return &a, nil
}

func (r *gormRepository) UpdateAnswerContent(ctx context.Context, id, content string) error {
	return rowsOrNotFound(r.db.WithContext(ctx).
		Model(&models.Answer{}).
		Where("id = ?", id).
		Update("content", content))
}

func (r *gormRepository) DeleteAnswer(ctx context.Context, id string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("answer_id = ?", id).Delete(&models.Vote{}).Error; err != nil {
		return fmt.Errorf("delete answer votes: %w", err)
	}
	if err := db.Where("answer_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
		return fmt.Errorf("delete answer comments: %w", err)
	}
	return rowsOrNotFound(db.Delete(&models.Answer{}, "id = ?", id))
}

func (r *gormRepository) SetAnswerAccepted(ctx context.Context, id string, accepted bool) error {
	return rowsOrNotFound(r.db.WithContext(ctx).
		Model(&models.Answer{}).
		Where("id = ?", id).
		UpdateColumn("is_accepted", accepted))
}

func (r *gormRepository) ClearAcceptedAnswers(ctx context.Context, questionID, exceptAnswerID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Answer{}).
		Where("question_id = ? AND id <> ? AND is_accepted = ?", questionID, exceptAnswerID, true).
		UpdateColumn("is_accepted", false)
	return result.RowsAffected, result.Error
}

func (r *gormRepository) CountAcceptedAnswers(ctx context.Context, questionID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Answer{}).
		Where("question_id = ? AND is_accepted = ?", questionID, true).
		Count(&count).Error
	return count, err
}
