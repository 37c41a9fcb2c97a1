package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Comment struct {
	ID         string    `json:"id" gorm:"primaryKey;type:uuid"`
	Content    string    `json:"content" gorm:"not null;type:text"`
	AuthorID   string    `json:"authorId" gorm:"type:uuid;not null;index"`
	QuestionID *string   `json:"questionId,omitempty" gorm:"type:uuid;index"`
	AnswerID   *string   `json:"answerId,omitempty" gorm:"type:uuid;index"`
	CreatedAt  time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt  time.Time `json:"updatedAt" gorm:"autoUpdateTime"`

	// Associations
	Author   User      `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE;"`
	Question *Question `json:"-" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE;"`
	Answer   *Answer   `json:"-" gorm:"foreignKey:AnswerID;constraint:OnDelete:CASCADE;"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}

func (Comment) TableName() string {
	return "comments"
}
