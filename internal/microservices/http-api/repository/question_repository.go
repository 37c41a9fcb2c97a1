package repository

import (
	"context"
	"fmt"
	"strings"

	"stackit/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *gormRepository) CreateQuestion(ctx context.Context, q *models.Question) error {
	if err := r.db.WithContext(ctx).Create(q).Error; err != nil {
		return fmt.Errorf("create question: %w", err)
	}
	return nil
}

func (r *gormRepository) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	var q models.Question
	if err := r.db.WithContext(ctx).First(&q, "id = ?", id).Error; err != nil {
		return nil, firstOrNotFound(err)
	}
	return &q, nil
}

func (r *gormRepository) LockQuestion(ctx context.Context, id string) (*models.Question, error) {
	var q models.Question
	if err := r.forUpdate().WithContext(ctx).First(&q, "id = ?", id).Error; err != nil {
		return nil, firstOrNotFound(err)
	}
	return &q, nil
}

func (r *gormRepository) GetQuestionDetail(ctx context.Context, id string) (*models.Question, error) {
	var q models.Question
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags").
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_accepted DESC, vote_count DESC, created_at ASC")
		}).
		Preload("Answers.Author").
		First(&q, "id = ?", id).Error
	if err != nil {
		return nil, firstOrNotFound(err)
	}
	return &q, nil
}

func (r *gormRepository) UpdateQuestion(ctx context.Context, id, title, content string) error {
	updates := map[string]any{}
	if title != "" {
		updates["title"] = title
	}
	if content != "" {
		updates["content"] = content
	}
	if len(updates) == 0 {
		return nil
	}
	return rowsOrNotFound(r.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("id = ?", id).
		Updates(updates))
}

func (r *gormRepository) DeleteQuestion(ctx context.Context, id string) error {
	db := r.db.WithContext(ctx)
	// children first so SQLite without FK enforcement stays clean too
	answerIDs := db.Model(&models.Answer{}).Select("id").Where("question_id = ?", id)
	if err := db.Where("answer_id IN (?)", answerIDs).Delete(&models.Vote{}).Error; err != nil {
		return fmt.Errorf("delete answer votes: %w", err)
	}
	if err := db.Where("question_id = ?", id).Delete(&models.Vote{}).Error; err != nil {
		return fmt.Errorf("delete question votes: %w", err)
	}
	if err := db.Where("answer_id IN (?) OR question_id = ?", answerIDs, id).Delete(&models.Comment{}).Error; err != nil {
		return fmt.Errorf("delete comments: %w", err)
	}
	if err := db.Where("question_id = ?", id).Delete(&models.Answer{}).Error; err != nil {
		return fmt.Errorf("delete answers: %w", err)
	}
	if err := db.Where("question_id = ?", id).Delete(&models.QuestionView{}).Error; err != nil {
		return fmt.Errorf("delete views: %w", err)
	}
	if err := db.Model(&models.Question{ID: id}).Association("Tags").Clear(); err != nil {
		return fmt.Errorf("clear tags: %w", err)
	}
	return rowsOrNotFound(db.Delete(&models.Question{}, "id = ?", id))
}

func (r *gormRepository) SetQuestionAnswered(ctx context.Context, id string, answered bool) error {
	return rowsOrNotFound(r.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("id = ?", id).
		UpdateColumn("is_answered", answered))
}

func (r *gormRepository) RecountAnswers(ctx context.Context, questionID string) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Answer{}).Where("question_id = ?", questionID).Count(&count).Error; err != nil {
		return 0, err
	}
	err := rowsOrNotFound(r.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("id = ?", questionID).
		UpdateColumn("answer_count", count))
	return int(count), err
}

func (r *gormRepository) RecordView(ctx context.Context, userID, questionID string) (bool, error) {
	db := r.db.WithContext(ctx)
	if userID != "" {
		result := db.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.QuestionView{UserID: userID, QuestionID: questionID})
		if result.Error != nil {
			return false, result.Error
		}
		if result.RowsAffected == 0 {
			return false, nil
		}
	}
	err := rowsOrNotFound(db.Model(&models.Question{}).
		Where("id = ?", questionID).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)))
	return err == nil, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func questionOrder(sort QuestionSort) string {
	switch sort {
	case SortOldest:
		return "created_at ASC, id ASC"
	case SortVotes:
		return "vote_count DESC, created_at DESC, id ASC"
	case SortViews:
		return "view_count DESC, created_at DESC, id ASC"
	default:
		return "created_at DESC, id ASC"
	}
}

// filtered applies the feed's WHERE clauses; shared by the count and the page query.
func filtered(db *gorm.DB, f QuestionFilter) *gorm.DB {
	db = db.Model(&models.Question{})
	if term := strings.TrimSpace(f.Search); term != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
		db = db.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(content) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	if f.Unanswered {
		db = db.Where("answer_count = 0")
	}
	return db
}

func (r *gormRepository) ListQuestions(ctx context.Context, f QuestionFilter) ([]models.Question, int64, error) {
	db := r.db.WithContext(ctx)

	var total int64
	if err := filtered(db, f).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count questions: %w", err)
	}

	list := []models.Question{}
	err := filtered(db, f).
		Preload("Author").
		Preload("Tags").
		Order(questionOrder(f.Sort)).
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&list).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list questions: %w", err)
	}
	return list, total, nil
}
