package models

import "time"

// QuestionView records that a signed-in user has seen a question once.
type QuestionView struct {
	UserID     string    `gorm:"type:uuid;primaryKey" json:"userId"`
	QuestionID string    `gorm:"type:uuid;primaryKey;index" json:"questionId"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`

	Question Question `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE;" json:"-"`
}

func (QuestionView) TableName() string {
	return "question_views"
}

// All lists every model for AutoMigrate, parents first.
func All() []any {
	return []any{
		&User{},
		&Tag{},
		&Question{},
		&Answer{},
		&Vote{},
		&Comment{},
		&QuestionView{},
	}
}
