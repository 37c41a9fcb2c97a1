package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Answer struct {
	ID         string    `json:"id" gorm:"primaryKey;type:uuid"`
	Content    string    `json:"content" gorm:"not null;type:text"`
	QuestionID string    `json:"questionId" gorm:"type:uuid;not null;index"`
	AuthorID   string    `json:"authorId" gorm:"type:uuid;not null;index"`
	VoteCount  int       `json:"voteCount" gorm:"not null;default:0"`
	IsAccepted bool      `json:"isAccepted" gorm:"not null;default:false;index"`
	CreatedAt  time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt  time.Time `json:"updatedAt" gorm:"autoUpdateTime"`

	// Associations
	Author User   `json:"author,omitempty" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE;"`
	Votes  []Vote `json:"-" gorm:"foreignKey:AnswerID;constraint:OnDelete:CASCADE;"`
}

func (a *Answer) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return
}

func (Answer) TableName() string {
	return "answers"
}
