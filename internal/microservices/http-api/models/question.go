package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Question is the root of a thread. VoteCount and AnswerCount are caches
// recomputed from the votes and answers tables on every change.
type Question struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid"`
	Title       string    `json:"title" gorm:"not null;size:200"`
	Content     string    `json:"content" gorm:"not null;type:text"`
	AuthorID    string    `json:"authorId" gorm:"type:uuid;not null;index"`
	VoteCount   int       `json:"voteCount" gorm:"not null;default:0"`
	AnswerCount int       `json:"answerCount" gorm:"not null;default:0"`
	ViewCount   int       `json:"viewCount" gorm:"not null;default:0"`
	IsAnswered  bool      `json:"isAnswered" gorm:"not null;default:false"`
	CreatedAt   time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updatedAt" gorm:"autoUpdateTime"`

	// Associations
	Author  User     `json:"author,omitempty" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE;"`
	Tags    []Tag    `json:"tags,omitempty" gorm:"many2many:question_tags;constraint:OnDelete:CASCADE;"`
	Answers []Answer `json:"answers,omitempty" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE;"`
	Votes   []Vote   `json:"-" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE;"`
}

func (q *Question) BeforeCreate(tx *gorm.DB) (err error) {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	return
}

func (Question) TableName() string {
	return "questions"
}
